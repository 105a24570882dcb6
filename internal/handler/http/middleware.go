package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/antoniojosev/crm-satoru/internal/session"
	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
	"github.com/antoniojosev/crm-satoru/pkg/httputil"
	"github.com/antoniojosev/crm-satoru/pkg/logger"
)

type contextKey string

const sessionKey contextKey = "admin_session"

// SessionFromContext returns the session record attached by RequireSession.
func SessionFromContext(ctx context.Context) *session.Record {
	record, _ := ctx.Value(sessionKey).(*session.Record)
	return record
}

// RequireSession verifies the signed session cookie, loads the session
// record and attaches it to the request context. Requests without a valid
// live session get a 401 and never reach the handler.
func RequireSession(codec *session.CookieCodec, store session.Store, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sessionID, err := codec.Read(r)
			if err != nil {
				httputil.WriteError(w, r, err, log)
				return
			}

			record, err := store.Get(r.Context(), sessionID)
			if err != nil {
				codec.Clear(w)
				httputil.WriteError(w, r, apperrors.Unauthorized("invalid session"), log)
				return
			}

			ctx := context.WithValue(r.Context(), sessionKey, record)
			ctx = logger.WithAdminID(ctx, record.User.ID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireSuperAdmin restricts a route to super admins. It assumes
// RequireSession already ran.
func RequireSuperAdmin(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			record := SessionFromContext(r.Context())
			if record == nil {
				httputil.WriteError(w, r, apperrors.Unauthorized("no session"), log)
				return
			}
			if !record.User.CanDeleteProjects() {
				httputil.WriteError(w, r, apperrors.Forbidden("requiere rol SUPER_ADMIN"), log)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ContentTypeJSON sets the response content type for API routes.
func ContentTypeJSON(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}
