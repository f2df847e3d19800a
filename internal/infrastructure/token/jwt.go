package token

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/datingapp/dating-api/internal/core/domain"
	"github.com/datingapp/dating-api/internal/core/ports"
)

// DefaultTTL is the session lifetime used when none is configured.
const DefaultTTL = 24 * time.Hour

// Claims is the token payload. nameid carries the numeric user id as a
// decimal string, unique_name the username.
type Claims struct {
	NameID     string `json:"nameid"`
	UniqueName string `json:"unique_name"`
	jwt.RegisteredClaims
}

// Service issues and verifies HS512 session tokens.
type Service struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewService(secret []byte, ttl time.Duration) (*Service, error) {
	if len(secret) == 0 {
		return nil, errors.New("token: empty signing secret")
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{secret: secret, ttl: ttl, now: time.Now}, nil
}

func (s *Service) Issue(user *domain.User) (string, *ports.TokenClaims, error) {
	if user == nil {
		return "", nil, errors.New("token: nil user")
	}

	now := s.now().UTC().Truncate(time.Second)
	exp := now.Add(s.ttl)
	jti := uuid.NewString()

	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, Claims{
		NameID:     strconv.FormatInt(user.ID, 10),
		UniqueName: user.Username,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	})

	signed, err := tok.SignedString(s.secret)
	if err != nil {
		return "", nil, fmt.Errorf("token: sign: %w", err)
	}

	return signed, &ports.TokenClaims{
		ID:        jti,
		UserID:    user.ID,
		Username:  user.Username,
		IssuedAt:  now,
		ExpiresAt: exp,
	}, nil
}

// Verify checks signature, algorithm and validity window. Every failure
// wraps domain.ErrUnauthorized.
func (s *Service) Verify(raw string) (*ports.TokenClaims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithStrictDecoding(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}

	id, err := strconv.ParseInt(claims.NameID, 10, 64)
	if err != nil || id <= 0 {
		return nil, fmt.Errorf("%w: bad nameid claim", domain.ErrUnauthorized)
	}

	out := &ports.TokenClaims{
		ID:       claims.ID,
		UserID:   id,
		Username: claims.UniqueName,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		out.ExpiresAt = claims.ExpiresAt.Time
	}
	return out, nil
}
