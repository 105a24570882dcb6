package http

import (
	"log/slog"
	"net/http"

	"github.com/antoniojosev/crm-satoru/internal/cache"
	"github.com/antoniojosev/crm-satoru/pkg/httputil"
)

// DashboardHandler handles HTTP requests for the dashboard home statistics.
type DashboardHandler struct {
	cache  *cache.DashboardCache
	logger *slog.Logger
}

// NewDashboardHandler creates a dashboard HTTP handler.
func NewDashboardHandler(c *cache.DashboardCache, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{cache: c, logger: logger}
}

// Stats handles GET /api/v1/dashboard/stats. Passing ?refresh=true bypasses
// the short-lived cache.
func (h *DashboardHandler) Stats(w http.ResponseWriter, r *http.Request) {
	record := SessionFromContext(r.Context())

	var err error
	var stats any
	if r.URL.Query().Get("refresh") == "true" {
		stats, err = h.cache.Refresh(r.Context(), record.ID)
	} else {
		stats, err = h.cache.Stats(r.Context(), record.ID)
	}
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: stats})
}
