package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/antoniojosev/crm-satoru/internal/cache"
	"github.com/antoniojosev/crm-satoru/internal/domain"
	"github.com/antoniojosev/crm-satoru/internal/event"
	"github.com/antoniojosev/crm-satoru/internal/satoru"
	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
	"github.com/antoniojosev/crm-satoru/pkg/httputil"
	"github.com/antoniojosev/crm-satoru/pkg/validator"
)

// InvestorHandler handles HTTP requests for investor endpoints.
type InvestorHandler struct {
	cache  *cache.InvestorCache
	events *event.Publisher
	logger *slog.Logger
}

// NewInvestorHandler creates an investor HTTP handler.
func NewInvestorHandler(c *cache.InvestorCache, events *event.Publisher, logger *slog.Logger) *InvestorHandler {
	return &InvestorHandler{cache: c, events: events, logger: logger}
}

// KycDecisionRequest is the JSON request body for PATCH
// /api/v1/investors/{id}/kyc.
type KycDecisionRequest struct {
	KycStatus     string `json:"kycStatus" validate:"required,oneof=APPROVED REJECTED"`
	ReviewComment string `json:"reviewComment" validate:"max=1000"`
}

// InvestorView decorates an investor with the reviewable flag so the
// dashboard knows whether to offer approve/reject actions.
type InvestorView struct {
	domain.Investor
	Reviewable bool `json:"reviewable"`
}

func newInvestorView(inv domain.Investor) InvestorView {
	return InvestorView{Investor: inv, Reviewable: inv.Reviewable()}
}

func newInvestorViews(investors []domain.Investor) []InvestorView {
	out := make([]InvestorView, len(investors))
	for i, inv := range investors {
		out[i] = newInvestorView(inv)
	}
	return out
}

// List handles GET /api/v1/investors with optional ?kycStatus= and ?search=
// filters. The filters also travel upstream, but the cached list is matched
// in memory so the response honors them regardless of what the core API
// applied.
func (h *InvestorHandler) List(w http.ResponseWriter, r *http.Request) {
	kycStatus := domain.KycStatus(r.URL.Query().Get("kycStatus"))
	if kycStatus != "" && !kycStatus.Valid() {
		httputil.WriteError(w, r, apperrors.InvalidInput(fmt.Sprintf("estado KYC desconocido: %s", kycStatus)), h.logger)
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	record := SessionFromContext(r.Context())
	investors, err := h.cache.FetchAll(r.Context(), record.ID, satoru.InvestorFilter{
		KycStatus: kycStatus,
		Search:    search,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if kycStatus != "" || search != "" {
		investors = h.cache.Filter(kycStatus, search)
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newInvestorViews(investors)})
}

// Get handles GET /api/v1/investors/{id}.
func (h *InvestorHandler) Get(w http.ResponseWriter, r *http.Request) {
	record := SessionFromContext(r.Context())
	investor, err := h.cache.FetchOne(r.Context(), record.ID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newInvestorView(*investor)})
}

// UpdateKyc handles PATCH /api/v1/investors/{id}/kyc. Decisions are final:
// an already-decided submission answers 409.
func (h *InvestorHandler) UpdateKyc(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req KycDecisionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	record := SessionFromContext(r.Context())
	investor, err := h.cache.UpdateKyc(r.Context(), record.ID, chi.URLParam(r, "id"), satoru.KycDecisionRequest{
		Status:  domain.KycStatus(req.KycStatus),
		KycData: satoru.KycReviewData{ReviewComment: req.ReviewComment},
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.events.KycReviewed(r.Context(), record.User.ID, *investor)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newInvestorView(*investor)})
}
