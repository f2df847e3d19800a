package ports

import (
	"context"
	"io"

	"github.com/datingapp/dating-api/internal/core/domain"
)

// UploadPhotoInput is the DTO passed from the transport layer to PhotoService.
type UploadPhotoInput struct {
	UserID      int64
	FileName    string
	Description string
	Size        int64
	Body        io.Reader
}

type PhotoService interface {
	Upload(ctx context.Context, in UploadPhotoInput) (*domain.Photo, error)
	GetPhoto(ctx context.Context, userID, photoID int64) (*domain.Photo, error)
}

// PhotoStorage stores photo blobs and returns their public URL.
type PhotoStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}
