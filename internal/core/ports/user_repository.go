package ports

import (
	"context"
	"time"

	"github.com/datingapp/dating-api/internal/core/domain"
)

// UserRepository is the credential store. Implementations must enforce
// username uniqueness themselves (unique index or constraint) and report a
// violation as domain.ErrUserExists.
type UserRepository interface {
	Exists(ctx context.Context, username string) (bool, error)
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	FindByUsername(ctx context.Context, username string) (*domain.User, error)
	FindByID(ctx context.Context, id int64) (*domain.User, error)
	TouchLastActive(ctx context.Context, id int64, at time.Time) error
}

// PhotoRepository persists photo metadata owned by a user.
type PhotoRepository interface {
	// AddPhoto appends the photo to the user's collection and returns it with
	// ID assigned. The first photo a user owns is stored as the main photo.
	AddPhoto(ctx context.Context, userID int64, photo *domain.Photo) (*domain.Photo, error)
	FindPhoto(ctx context.Context, userID, photoID int64) (*domain.Photo, error)
}
