package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
)

// cookieClaims binds a session ID to a signed cookie.
type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// CookieCodec signs and verifies the session cookie. The cookie only carries
// the session ID; everything sensitive stays server-side.
type CookieCodec struct {
	name   string
	secret []byte
	ttl    time.Duration
	secure bool
}

// NewCookieCodec creates a cookie codec. secure controls the cookie's Secure
// attribute and should be true outside local development.
func NewCookieCodec(name, secret string, ttl time.Duration, secure bool) *CookieCodec {
	return &CookieCodec{
		name:   name,
		secret: []byte(secret),
		ttl:    ttl,
		secure: secure,
	}
}

// Issue writes a signed session cookie to the response.
func (c *CookieCodec) Issue(w http.ResponseWriter, sessionID string) error {
	now := time.Now()
	claims := cookieClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(c.secret)
	if err != nil {
		return fmt.Errorf("sign session cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    token,
		Path:     "/",
		MaxAge:   int(c.ttl.Seconds()),
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// Read extracts and verifies the session ID from the request cookie.
func (c *CookieCodec) Read(r *http.Request) (string, error) {
	cookie, err := r.Cookie(c.name)
	if err != nil {
		return "", apperrors.Unauthorized("no session")
	}

	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(cookie.Value, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return c.secret, nil
	})
	if err != nil || !token.Valid || claims.SessionID == "" {
		return "", apperrors.Unauthorized("invalid session")
	}
	return claims.SessionID, nil
}

// Clear expires the session cookie in the browser.
func (c *CookieCodec) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     c.name,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
