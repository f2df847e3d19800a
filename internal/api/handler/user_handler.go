package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/datingapp/dating-api/internal/core/ports"
)

type UserHandler struct {
	users ports.UserService
	now   func() time.Time
}

func NewUserHandler(users ports.UserService) *UserHandler {
	return &UserHandler{users: users, now: time.Now}
}

// Get returns a member's full profile.
//
// @Summary      Get a user
// @Tags         users
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      int  true  "User id"
// @Success      200  {object}  userForDetailed
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /api/users/{id} [get]
func (h *UserHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	user, err := h.users.GetUser(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUserForDetailed(user, h.now()))
}
