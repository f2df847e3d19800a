package domain

import "errors"

var (
	ErrUserExists    = errors.New("user already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("access forbidden")
	ErrValidation    = errors.New("validation failed")
	ErrPhotoNotFound = errors.New("photo not found")
	ErrNotImage      = errors.New("file is not an image")
	ErrFileTooLarge  = errors.New("file exceeds the maximum upload size")
)
