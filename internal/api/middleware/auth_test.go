package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/datingapp/dating-api/internal/core/domain"
	"github.com/datingapp/dating-api/internal/core/ports"
)

type stubVerifier struct {
	verifyFn func(token string) (*ports.TokenClaims, error)
}

func (s *stubVerifier) Verify(token string) (*ports.TokenClaims, error) {
	return s.verifyFn(token)
}

type stubDenylist struct {
	revoked map[string]bool
	err     error
}

func (d *stubDenylist) Revoke(context.Context, string, time.Time) error { return nil }

func (d *stubDenylist) IsRevoked(_ context.Context, jti string) (bool, error) {
	return d.revoked[jti], d.err
}

func acceptToken(want string) *stubVerifier {
	return &stubVerifier{verifyFn: func(token string) (*ports.TokenClaims, error) {
		if token != want {
			return nil, domain.ErrUnauthorized
		}
		return &ports.TokenClaims{ID: "jti-1", UserID: 42, Username: "alice"}, nil
	}}
}

func runAuth(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, error, bool) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	err := mw(func(c echo.Context) error {
		called = true
		if c.Get(UserIDKey) != int64(42) || c.Get(UsernameKey) != "alice" {
			t.Fatalf("claims not injected: %v %v", c.Get(UserIDKey), c.Get(UsernameKey))
		}
		if _, ok := ClaimsFrom(c); !ok {
			t.Fatalf("ClaimsFrom returned nothing")
		}
		return c.NoContent(http.StatusOK)
	})(c)
	return rec, err, called
}

func assertUnauthorized(t *testing.T, err error, called bool) {
	t.Helper()
	if called {
		t.Fatalf("next should not be called")
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusUnauthorized || he.Message != "unauthorized" {
		t.Fatalf("expected uniform 401, got %v", err)
	}
}

func TestAuth_ValidToken(t *testing.T) {
	mw := Auth(acceptToken("good"), &stubDenylist{}, zerolog.Nop())
	rec, err, called := runAuth(t, mw, "Bearer good")
	if err != nil || !called || rec.Code != http.StatusOK {
		t.Fatalf("expected pass-through, err=%v called=%v code=%d", err, called, rec.Code)
	}
}

func TestAuth_SchemeIsCaseInsensitive(t *testing.T) {
	mw := Auth(acceptToken("good"), nil, zerolog.Nop())
	if _, err, called := runAuth(t, mw, "bearer good"); err != nil || !called {
		t.Fatalf("expected pass-through, err=%v", err)
	}
}

func TestAuth_Rejections(t *testing.T) {
	mw := Auth(acceptToken("good"), &stubDenylist{}, zerolog.Nop())
	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic good",
		"empty token":    "Bearer ",
		"bad token":      "Bearer tampered",
	} {
		t.Run(name, func(t *testing.T) {
			_, err, called := runAuth(t, mw, header)
			assertUnauthorized(t, err, called)
		})
	}
}

func TestAuth_RevokedToken(t *testing.T) {
	mw := Auth(acceptToken("good"), &stubDenylist{revoked: map[string]bool{"jti-1": true}}, zerolog.Nop())
	_, err, called := runAuth(t, mw, "Bearer good")
	assertUnauthorized(t, err, called)
}

func TestAuth_DenylistOutageFailsOpen(t *testing.T) {
	mw := Auth(acceptToken("good"), &stubDenylist{err: errors.New("redis down")}, zerolog.Nop())
	if _, err, called := runAuth(t, mw, "Bearer good"); err != nil || !called {
		t.Fatalf("expected pass-through on denylist error, err=%v", err)
	}
}
