package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/datingapp/dating-api/internal/core/domain"
	"github.com/datingapp/dating-api/internal/core/ports"
)

// DefaultMaxPhotoBytes is the upload limit applied when none is configured.
const DefaultMaxPhotoBytes int64 = 10 << 20

type PhotoService struct {
	photos   ports.PhotoRepository
	storage  ports.PhotoStorage
	maxBytes int64
	log      zerolog.Logger
	now      func() time.Time
	newKey   func() string
}

func NewPhotoService(photos ports.PhotoRepository, storage ports.PhotoStorage, maxBytes int64, log zerolog.Logger) *PhotoService {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxPhotoBytes
	}
	return &PhotoService{
		photos:   photos,
		storage:  storage,
		maxBytes: maxBytes,
		log:      log,
		now:      time.Now,
		newKey:   uuid.NewString,
	}
}

// Upload checks the blob is an image within the size limit, stores it and
// appends the photo to the user's collection.
func (s *PhotoService) Upload(ctx context.Context, in ports.UploadPhotoInput) (*domain.Photo, error) {
	if in.Size > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(in.Body, s.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("upload photo: read body: %w", err)
	}
	if int64(len(data)) > s.maxBytes {
		return nil, domain.ErrFileTooLarge
	}

	mt := mimetype.Detect(data)
	if !strings.HasPrefix(mt.String(), "image/") {
		return nil, domain.ErrNotImage
	}

	key := fmt.Sprintf("users/%d/%s%s", in.UserID, s.newKey(), mt.Extension())
	url, err := s.storage.Put(ctx, key, bytes.NewReader(data), int64(len(data)), mt.String())
	if err != nil {
		return nil, fmt.Errorf("upload photo: store blob: %w", err)
	}

	photo, err := s.photos.AddPhoto(ctx, in.UserID, &domain.Photo{
		UserID:      in.UserID,
		URL:         url,
		Description: in.Description,
		DateAdded:   s.now().UTC(),
		PublicID:    key,
	})
	if err != nil {
		// Without a record nothing references the blob any more.
		if delErr := s.storage.Delete(ctx, key); delErr != nil {
			s.log.Warn().Err(delErr).Str("key", key).Msg("failed to remove orphaned photo blob")
		}
		return nil, fmt.Errorf("upload photo: save record: %w", err)
	}

	s.log.Info().
		Int64("user_id", in.UserID).
		Int64("photo_id", photo.ID).
		Bool("is_main", photo.IsMain).
		Int("bytes", len(data)).
		Msg("photo uploaded")

	return photo, nil
}

func (s *PhotoService) GetPhoto(ctx context.Context, userID, photoID int64) (*domain.Photo, error) {
	return s.photos.FindPhoto(ctx, userID, photoID)
}
