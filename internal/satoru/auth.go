package satoru

import (
	"context"
	"net/http"

	"github.com/antoniojosev/crm-satoru/internal/domain"
)

// TokenPair is the access/refresh token pair issued by the core API.
type TokenPair struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// LoginResult is the payload of a successful authentication.
type LoginResult struct {
	User         domain.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
}

// LoginRequest carries the credentials for an authentication attempt.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterRequest carries the fields for creating a new admin account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Role      string `json:"role,omitempty"`
}

// Login authenticates against the core API. No session is involved yet, so
// no bearer token is attached and a 401 is surfaced as-is.
func (c *Client) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	var result LoginResult
	err := c.send(ctx, "auth.login", "", c.jsonRequest(http.MethodPost, "/auth/login", req), &result)
	if err != nil {
		return nil, err
	}
	return &result, nil
}

// Register creates a new account on the platform.
func (c *Client) Register(ctx context.Context, sessionID string, req RegisterRequest) (*domain.User, error) {
	var user domain.User
	err := c.send(ctx, "auth.register", sessionID, c.jsonRequest(http.MethodPost, "/auth/register", req), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Me fetches the profile bound to the session's access token.
func (c *Client) Me(ctx context.Context, sessionID string) (*domain.User, error) {
	var user domain.User
	err := c.send(ctx, "auth.me", sessionID, c.jsonRequest(http.MethodGet, "/users/me", nil), &user)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// Logout invalidates the session's refresh token upstream. Callers treat
// failures as non-fatal; the dashboard session is cleared regardless.
func (c *Client) Logout(ctx context.Context, sessionID string) error {
	_, refreshToken, err := c.vault.Credentials(ctx, sessionID)
	if err != nil {
		return err
	}
	body := map[string]string{"refreshToken": refreshToken}
	return c.send(ctx, "auth.logout", sessionID, c.jsonRequest(http.MethodPost, "/auth/logout", body), nil)
}
