package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// OwnerOnly lets the request through only when the path parameter names the
// authenticated user. It must run after Auth.
func OwnerOnly(param string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := ClaimsFrom(c)
			if !ok {
				return unauthorized()
			}
			id, err := strconv.ParseInt(c.Param(param), 10, 64)
			if err != nil || id != claims.UserID {
				return c.JSON(http.StatusForbidden, map[string]string{"error": "forbidden"})
			}
			return next(c)
		}
	}
}
