package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/datingapp/dating-api/internal/core/ports"
)

// Context keys set by Auth.
const (
	ClaimsKey   = "claims"
	UserIDKey   = "user_id"
	UsernameKey = "username"
)

func unauthorized() error {
	return echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
}

// Auth verifies the bearer token and injects its claims into the context.
// Every rejection is the same 401 regardless of cause. When the denylist
// cannot be reached the token is accepted and a warning is logged.
func Auth(verifier ports.TokenVerifier, denylist ports.TokenDenylist, log zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			scheme, raw, ok := strings.Cut(c.Request().Header.Get(echo.HeaderAuthorization), " ")
			if !ok || !strings.EqualFold(scheme, "bearer") || strings.TrimSpace(raw) == "" {
				return unauthorized()
			}

			claims, err := verifier.Verify(strings.TrimSpace(raw))
			if err != nil {
				log.Debug().Err(err).Str("path", c.Path()).Msg("token rejected")
				return unauthorized()
			}

			if denylist != nil && claims.ID != "" {
				revoked, err := denylist.IsRevoked(c.Request().Context(), claims.ID)
				switch {
				case err != nil:
					log.Warn().Err(err).Msg("token denylist unavailable")
				case revoked:
					return unauthorized()
				}
			}

			c.Set(ClaimsKey, claims)
			c.Set(UserIDKey, claims.UserID)
			c.Set(UsernameKey, claims.Username)
			return next(c)
		}
	}
}

// ClaimsFrom returns the claims stored by Auth.
func ClaimsFrom(c echo.Context) (*ports.TokenClaims, bool) {
	claims, ok := c.Get(ClaimsKey).(*ports.TokenClaims)
	return claims, ok && claims != nil
}
