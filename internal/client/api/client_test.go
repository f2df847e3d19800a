package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signedToken(t *testing.T, nameID string) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, jwt.MapClaims{
		"nameid":      nameID,
		"unique_name": "alice",
		"exp":         time.Now().Add(time.Hour).Unix(),
	})
	s, err := tok.SignedString([]byte("some-secret-the-client-never-sees"))
	require.NoError(t, err)
	return s
}

func TestUserIDFromToken(t *testing.T) {
	id, err := UserIDFromToken(signedToken(t, "42"))
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	_, err = UserIDFromToken(signedToken(t, "abc"))
	assert.Error(t, err)

	_, err = UserIDFromToken("not-a-token")
	assert.Error(t, err)
}

func TestClient_Login(t *testing.T) {
	token := signedToken(t, "7")
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/auth/login", r.URL.Path)
		assert.Empty(t, r.Header.Get("Cookie"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "alice", body["username"])

		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"token": token,
			"user":  map[string]any{"id": 7, "username": "alice", "photoUrl": ""},
		})
	}))
	defer srv.Close()

	sess, err := New(srv.URL+"/", nil).Login(context.Background(), "alice", "secret123")
	require.NoError(t, err)
	assert.Equal(t, token, sess.Token)
	assert.Equal(t, int64(7), sess.UserID)
	assert.Equal(t, "alice", sess.User.Username)
}

func TestClient_LoginUnauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"unauthorized"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Login(context.Background(), "alice", "wrong")
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "unauthorized", apiErr.Message)
}

func TestClient_RegisterConflict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error":"Username already exists."}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL, nil).Register(context.Background(), RegisterRequest{Username: "alice"})
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Username already exists.", apiErr.Message)
}

func TestClient_GetUserSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/users/3", r.URL.Path)
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"id":3,"username":"bob","photos":[{"id":1,"url":"u","isMain":true}]}`))
	}))
	defer srv.Close()

	u, err := New(srv.URL, nil).GetUser(context.Background(), "tok", 3)
	require.NoError(t, err)
	assert.Equal(t, "bob", u.Username)
	require.Len(t, u.Photos, 1)
	assert.True(t, u.Photos[0].IsMain)
}
