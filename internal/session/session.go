package session

import (
	"context"
	"time"

	"github.com/antoniojosev/crm-satoru/internal/domain"
)

// Record is everything the dashboard keeps server-side for one admin
// session. Tokens never leave this record; the browser only holds an opaque
// signed cookie pointing at it. Deleting the record revokes user, access
// token and refresh token in one step.
type Record struct {
	ID           string      `json:"id"`
	User         domain.User `json:"user"`
	AccessToken  string      `json:"accessToken"`
	RefreshToken string      `json:"refreshToken"`
	CreatedAt    time.Time   `json:"createdAt"`
	UpdatedAt    time.Time   `json:"updatedAt"`
}

// Store persists session records. Get returns a not-found application error
// for unknown or expired sessions.
type Store interface {
	Save(ctx context.Context, record *Record) error
	Get(ctx context.Context, id string) (*Record, error)
	Delete(ctx context.Context, id string) error
}
