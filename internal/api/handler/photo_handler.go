package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/datingapp/dating-api/internal/api/metrics"
	"github.com/datingapp/dating-api/internal/core/domain"
	"github.com/datingapp/dating-api/internal/core/ports"
)

// uploadField is the multipart field carrying the image.
const uploadField = "file"

type PhotoHandler struct {
	photos ports.PhotoService
}

func NewPhotoHandler(photos ports.PhotoService) *PhotoHandler {
	return &PhotoHandler{photos: photos}
}

// Upload stores an image for the user and appends it to their photos.
//
// @Summary      Upload a photo
// @Tags         photos
// @Accept       multipart/form-data
// @Produce      json
// @Security     BearerAuth
// @Param        id           path      int     true   "User id"
// @Param        file         formData  file    true   "Image, at most 10 MiB"
// @Param        description  formData  string  false  "Caption"
// @Success      200          {object}  photoResponse
// @Failure      400          {object}  map[string]string
// @Failure      401          {object}  map[string]string
// @Failure      403          {object}  map[string]string
// @Router       /api/users/{id}/photos [post]
func (h *PhotoHandler) Upload(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}

	fh, err := c.FormFile(uploadField)
	if err != nil {
		return fmt.Errorf("%w: %s is required", domain.ErrValidation, uploadField)
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()

	photo, err := h.photos.Upload(c.Request().Context(), ports.UploadPhotoInput{
		UserID:      userID,
		FileName:    fh.Filename,
		Description: c.FormValue("description"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		metrics.PhotoUploadsTotal.WithLabelValues(uploadResult(err)).Inc()
		return err
	}
	metrics.PhotoUploadsTotal.WithLabelValues("success").Inc()
	metrics.PhotoUploadBytes.Observe(float64(fh.Size))

	c.Response().Header().Set(echo.HeaderLocation, fmt.Sprintf("/api/users/%d/photos/%d", userID, photo.ID))
	return c.JSON(http.StatusOK, toPhotoResponse(photo))
}

// Get returns one photo of a user.
//
// @Summary      Get a photo
// @Tags         photos
// @Produce      json
// @Security     BearerAuth
// @Param        id       path      int  true  "User id"
// @Param        photoId  path      int  true  "Photo id"
// @Success      200      {object}  photoResponse
// @Failure      404      {object}  map[string]string
// @Router       /api/users/{id}/photos/{photoId} [get]
func (h *PhotoHandler) Get(c echo.Context) error {
	userID, err := pathID(c, "id")
	if err != nil {
		return err
	}
	photoID, err := pathID(c, "photoId")
	if err != nil {
		return err
	}
	photo, err := h.photos.GetPhoto(c.Request().Context(), userID, photoID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toPhotoResponse(photo))
}

func uploadResult(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotImage):
		return "not_image"
	case errors.Is(err, domain.ErrFileTooLarge):
		return "too_large"
	default:
		return "error"
	}
}
