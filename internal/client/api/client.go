// Package api is a thin HTTP client for the dating API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const defaultTimeout = 30 * time.Second

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

// IsUnauthorized reports whether err is a 401 from the API.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

type RegisterRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	Gender      string `json:"gender"`
	KnownAs     string `json:"knownAs"`
	DateOfBirth string `json:"dateOfBirth"`
	City        string `json:"city"`
	Country     string `json:"country"`
}

type Photo struct {
	ID          int64     `json:"id"`
	URL         string    `json:"url"`
	Description string    `json:"description"`
	DateAdded   time.Time `json:"dateAdded"`
	IsMain      bool      `json:"isMain"`
}

type User struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	Gender       string    `json:"gender"`
	Age          int       `json:"age"`
	KnownAs      string    `json:"knownAs"`
	Created      time.Time `json:"created"`
	LastActive   time.Time `json:"lastActive"`
	City         string    `json:"city"`
	Country      string    `json:"country"`
	PhotoURL     string    `json:"photoUrl"`
	Introduction string    `json:"introduction,omitempty"`
	LookingFor   string    `json:"lookingFor,omitempty"`
	Interests    string    `json:"interests,omitempty"`
	Photos       []Photo   `json:"photos,omitempty"`
}

// Session is the result of a successful login.
type Session struct {
	Token  string
	UserID int64
	User   User
}

// Client talks to one API base URL. It never sends cookies.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a Client. A nil httpClient gets a default one without a
// cookie jar.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

func (c *Client) BaseURL() string { return c.baseURL }

// HTTPClient is the client shared with the uploader.
func (c *Client) HTTPClient() *http.Client { return c.http }

// Register creates an account and returns the created user.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", "", req, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*Session, error) {
	var resp struct {
		Token string `json:"token"`
		User  User   `json:"user"`
	}
	body := map[string]string{"username": username, "password": password}
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	id, err := UserIDFromToken(resp.Token)
	if err != nil {
		return nil, err
	}
	return &Session{Token: resp.Token, UserID: id, User: resp.User}, nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", token, nil, nil)
}

func (c *Client) GetUser(ctx context.Context, token string, id int64) (*User, error) {
	var u User
	if err := c.do(ctx, http.MethodGet, "/api/users/"+strconv.FormatInt(id, 10), token, nil, &u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if err := CheckResponse(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// CheckResponse turns a non-2xx response into an *APIError, reading the
// {"error": "..."} body when there is one.
func CheckResponse(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	apiErr := &APIError{Status: resp.StatusCode}
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if json.Unmarshal(raw, &payload) == nil {
		apiErr.Message = payload.Error
		if apiErr.Message == "" {
			apiErr.Message = payload.Message
		}
	}
	return apiErr
}

// UserIDFromToken reads the nameid claim without checking the signature.
// The server is the only party that can verify it.
func UserIDFromToken(token string) (int64, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return 0, fmt.Errorf("decode token: %w", err)
	}
	raw, ok := claims["nameid"].(string)
	if !ok {
		return 0, errors.New("decode token: missing nameid")
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("decode token: nameid %q: %w", raw, err)
	}
	return id, nil
}
