package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/datingapp/dating-api/internal/core/domain"
	"github.com/datingapp/dating-api/internal/core/ports"
)

// AuthService implements registration, login and logout.
type AuthService struct {
	repo     ports.UserRepository
	tokens   ports.TokenIssuer
	denylist ports.TokenDenylist
	log      zerolog.Logger
	now      func() time.Time
	// dummy is verified against when the username is unknown so both failure
	// paths cost one key derivation.
	dummy domain.Credential
}

func NewAuthService(repo ports.UserRepository, tokens ports.TokenIssuer, denylist ports.TokenDenylist, log zerolog.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		tokens:   tokens,
		denylist: denylist,
		log:      log,
		now:      time.Now,
		dummy:    dummyCredential(),
	}
}

// NormalizeUsername is applied to every username before it reaches the store.
func NormalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func (s *AuthService) Register(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
	username := NormalizeUsername(in.Username)
	if username == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: username and password are required", domain.ErrValidation)
	}

	exists, err := s.repo.Exists(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("register: check username: %w", err)
	}
	if exists {
		return nil, domain.ErrUserExists
	}

	cred, err := HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	now := s.now().UTC()
	user := &domain.User{
		Username:     username,
		PasswordHash: cred.Hash,
		PasswordSalt: cred.Salt,
		Gender:       in.Gender,
		KnownAs:      in.KnownAs,
		DateOfBirth:  in.DateOfBirth.UTC(),
		City:         in.City,
		Country:      in.Country,
		Created:      now,
		LastActive:   now,
		Photos:       []domain.Photo{},
	}

	// The store's unique constraint is the real guard; Exists only gives the
	// common case a cheap answer.
	created, err := s.repo.Create(ctx, user)
	if err != nil {
		if errors.Is(err, domain.ErrUserExists) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("register: create user: %w", err)
	}

	s.log.Info().Int64("user_id", created.ID).Str("username", created.Username).Msg("user registered")
	return created, nil
}

// Login verifies credentials and issues a session token. Unknown users and
// wrong passwords both yield domain.ErrUnauthorized.
func (s *AuthService) Login(ctx context.Context, username, password string) (*ports.LoginResult, error) {
	username = NormalizeUsername(username)
	if username == "" || password == "" {
		return nil, domain.ErrUnauthorized
	}

	user, err := s.repo.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			VerifyPassword(password, s.dummy)
			return nil, domain.ErrUnauthorized
		}
		return nil, fmt.Errorf("login: find user: %w", err)
	}

	if !VerifyPassword(password, domain.Credential{Hash: user.PasswordHash, Salt: user.PasswordSalt}) {
		return nil, domain.ErrUnauthorized
	}

	token, _, err := s.tokens.Issue(user)
	if err != nil {
		return nil, fmt.Errorf("login: issue token: %w", err)
	}

	now := s.now().UTC()
	if err := s.repo.TouchLastActive(ctx, user.ID, now); err != nil {
		s.log.Warn().Err(err).Int64("user_id", user.ID).Msg("failed to update last active")
	} else {
		user.LastActive = now
	}

	return &ports.LoginResult{Token: token, User: user}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *ports.TokenClaims) error {
	if claims == nil || claims.ID == "" {
		return domain.ErrUnauthorized
	}
	if err := s.denylist.Revoke(ctx, claims.ID, claims.ExpiresAt); err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	s.log.Info().Int64("user_id", claims.UserID).Msg("token revoked")
	return nil
}
