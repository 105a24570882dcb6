package session

import (
	"context"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"

	"github.com/antoniojosev/crm-satoru/internal/domain"
	"github.com/antoniojosev/crm-satoru/internal/satoru"
	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
)

// invalidCredentials is shown for bad credentials and for valid credentials
// belonging to a non-admin account. The two cases are indistinguishable on
// purpose.
const invalidCredentials = "Credenciales inválidas"

// Manager owns the dashboard session lifecycle: authenticating against the
// core API, gating sessions to admin roles and tearing sessions down.
type Manager struct {
	store  Store
	client *satoru.Client
	logger *slog.Logger
}

// NewManager creates a session manager.
func NewManager(store Store, client *satoru.Client, logger *slog.Logger) *Manager {
	return &Manager{store: store, client: client, logger: logger}
}

// Login authenticates the credentials and opens a dashboard session. A
// non-admin account is rejected before anything is persisted, so investor
// tokens never reach the session store.
func (m *Manager) Login(ctx context.Context, email, password string) (*Record, error) {
	result, err := m.client.Login(ctx, satoru.LoginRequest{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	if !result.User.Role.IsAdmin() {
		m.logger.WarnContext(ctx, "login rejected for non-admin account",
			slog.String("email", email),
			slog.String("role", string(result.User.Role)),
		)
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	record := &Record{
		ID:           uuid.NewString(),
		User:         result.User,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
		CreatedAt:    time.Now().UTC(),
	}
	if err := m.store.Save(ctx, record); err != nil {
		return nil, apperrors.Internal(err)
	}
	return record, nil
}

// Logout tells the core API to revoke the refresh token and always deletes
// the session, even when the upstream call fails. Being logged out locally
// must never depend on the platform being reachable.
func (m *Manager) Logout(ctx context.Context, sessionID string) error {
	if err := m.client.Logout(ctx, sessionID); err != nil {
		m.logger.WarnContext(ctx, "upstream logout failed, clearing session anyway",
			slog.String("error", err.Error()),
		)
	}
	return m.store.Delete(ctx, sessionID)
}

// CheckAuth validates the session against the core API and returns the
// fresh profile. Without a stored session it fails immediately, no network
// call. A failed validation or a profile that lost its admin role tears the
// session down.
func (m *Manager) CheckAuth(ctx context.Context, sessionID string) (*domain.User, error) {
	record, err := m.store.Get(ctx, sessionID)
	if err != nil {
		return nil, apperrors.Unauthorized("no session")
	}

	user, err := m.client.Me(ctx, sessionID)
	if err != nil {
		_ = m.store.Delete(ctx, sessionID)
		return nil, err
	}

	if !user.Role.IsAdmin() {
		_ = m.store.Delete(ctx, sessionID)
		return nil, apperrors.Unauthorized(invalidCredentials)
	}

	record.User = *user
	if err := m.store.Save(ctx, record); err != nil {
		return nil, apperrors.Internal(err)
	}
	return user, nil
}

// Get returns the stored session record without touching the core API.
func (m *Manager) Get(ctx context.Context, sessionID string) (*Record, error) {
	return m.store.Get(ctx, sessionID)
}

// Register creates a new account through the core API after enforcing the
// platform password policy locally.
func (m *Manager) Register(ctx context.Context, sessionID string, req satoru.RegisterRequest) (*domain.User, error) {
	if err := ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	return m.client.Register(ctx, sessionID, req)
}

const specialChars = `!@#$%^&*()_+-=[]{};':"\|,.<>/?~` + "`"

// ValidatePassword enforces the platform password policy: at least eight
// characters with an uppercase letter, a lowercase letter, a digit and a
// special character.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return apperrors.InvalidInput("la contraseña debe tener al menos 8 caracteres")
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case strings.ContainsRune(specialChars, r):
			hasSpecial = true
		}
	}

	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return apperrors.InvalidInput("la contraseña debe incluir mayúsculas, minúsculas, números y caracteres especiales")
	}
	return nil
}
