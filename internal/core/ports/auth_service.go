package ports

import (
	"context"
	"time"

	"github.com/datingapp/dating-api/internal/core/domain"
)

// RegisterInput carries the registration form.
type RegisterInput struct {
	Username    string
	Password    string
	Gender      string
	KnownAs     string
	DateOfBirth time.Time
	City        string
	Country     string
}

// LoginResult is returned after a successful login.
type LoginResult struct {
	Token string
	User  *domain.User
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*LoginResult, error)
	Logout(ctx context.Context, claims *TokenClaims) error
}

type UserService interface {
	GetUser(ctx context.Context, id int64) (*domain.User, error)
}
