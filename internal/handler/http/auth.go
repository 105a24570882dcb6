package http

import (
	"log/slog"
	"net/http"

	"github.com/antoniojosev/crm-satoru/internal/event"
	"github.com/antoniojosev/crm-satoru/internal/satoru"
	"github.com/antoniojosev/crm-satoru/internal/session"
	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
	"github.com/antoniojosev/crm-satoru/pkg/httputil"
	"github.com/antoniojosev/crm-satoru/pkg/validator"
)

// AuthHandler handles session endpoints: login, logout, session check and
// account registration.
type AuthHandler struct {
	manager *session.Manager
	codec   *session.CookieCodec
	events  *event.Publisher
	logger  *slog.Logger
}

// NewAuthHandler creates an auth HTTP handler.
func NewAuthHandler(manager *session.Manager, codec *session.CookieCodec, events *event.Publisher, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{manager: manager, codec: codec, events: events, logger: logger}
}

// LoginRequest is the JSON request body for POST /api/v1/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// RegisterRequest is the JSON request body for POST /api/v1/auth/register.
type RegisterRequest struct {
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8"`
	FirstName string `json:"firstName" validate:"required,min=1,max=100"`
	LastName  string `json:"lastName" validate:"required,min=1,max=100"`
	Role      string `json:"role" validate:"omitempty,oneof=ADMIN INVESTOR"`
}

// Login handles POST /api/v1/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req LoginRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	record, err := h.manager.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	if err := h.codec.Issue(w, record.ID); err != nil {
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	h.events.SessionOpened(r.Context(), record.User)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: record.User})
}

// Logout handles POST /api/v1/auth/logout. The session cookie is always
// cleared, even when the upstream revocation fails.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	record := SessionFromContext(r.Context())

	if err := h.manager.Logout(r.Context(), record.ID); err != nil {
		h.codec.Clear(w)
		httputil.WriteError(w, r, apperrors.Internal(err), h.logger)
		return
	}

	h.codec.Clear(w)
	h.events.SessionClosed(r.Context(), record.User.ID)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{}})
}

// Session handles GET /api/v1/auth/session. Without a cookie it answers 401
// immediately; with one it revalidates the session against the core API and
// returns the fresh profile. A session that cannot be validated is torn
// down, cookie included.
func (h *AuthHandler) Session(w http.ResponseWriter, r *http.Request) {
	sessionID, err := h.codec.Read(r)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	user, err := h.manager.CheckAuth(r.Context(), sessionID)
	if err != nil {
		h.codec.Clear(w)
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: user})
}

// Register handles POST /api/v1/auth/register. Only an authenticated admin
// can create accounts.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req RegisterRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	record := SessionFromContext(r.Context())
	user, err := h.manager.Register(r.Context(), record.ID, satoru.RegisterRequest{
		Email:     req.Email,
		Password:  req.Password,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Role:      req.Role,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: user})
}
