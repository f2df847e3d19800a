package ports

import (
	"context"
	"time"

	"github.com/datingapp/dating-api/internal/core/domain"
)

// TokenClaims is the verified content of a session token.
type TokenClaims struct {
	ID        string // jti
	UserID    int64
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

type TokenIssuer interface {
	Issue(user *domain.User) (string, *TokenClaims, error)
}

// TokenVerifier checks signature and expiry. Any failure is reported as
// domain.ErrUnauthorized.
type TokenVerifier interface {
	Verify(token string) (*TokenClaims, error)
}

// TokenDenylist records revoked token IDs until their natural expiry.
type TokenDenylist interface {
	Revoke(ctx context.Context, jti string, until time.Time) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
