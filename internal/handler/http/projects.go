package http

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/antoniojosev/crm-satoru/internal/cache"
	"github.com/antoniojosev/crm-satoru/internal/domain"
	"github.com/antoniojosev/crm-satoru/internal/event"
	"github.com/antoniojosev/crm-satoru/internal/satoru"
	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
	"github.com/antoniojosev/crm-satoru/pkg/httputil"
	"github.com/antoniojosev/crm-satoru/pkg/validator"
)

// maxUploadSize bounds a project image upload request.
const maxUploadSize = 20 << 20

// ProjectHandler handles HTTP requests for project endpoints.
type ProjectHandler struct {
	cache  *cache.ProjectCache
	events *event.Publisher
	logger *slog.Logger
}

// NewProjectHandler creates a project HTTP handler.
func NewProjectHandler(c *cache.ProjectCache, events *event.Publisher, logger *slog.Logger) *ProjectHandler {
	return &ProjectHandler{cache: c, events: events, logger: logger}
}

// --- Request DTOs ---

// CreateProjectRequest is the JSON request body for creating a project.
type CreateProjectRequest struct {
	Name              string         `json:"name" validate:"required,min=1,max=255"`
	Description       string         `json:"description" validate:"required"`
	Location          string         `json:"location" validate:"required,max=255"`
	TokenPrice        float64        `json:"tokenPrice" validate:"required,gt=0"`
	TotalTokens       int64          `json:"totalTokens" validate:"required,gt=0"`
	MinInvestment     float64        `json:"minInvestment" validate:"required,gt=0"`
	MaxInvestment     *float64       `json:"maxInvestment" validate:"omitempty,gt=0"`
	ExpectedReturn    float64        `json:"expectedReturn" validate:"required,gt=0"`
	ExpectedReturnMax *float64       `json:"expectedReturnMax" validate:"omitempty,gt=0"`
	ProjectValue      float64        `json:"projectValue" validate:"required,gt=0"`
	StartDate         *time.Time     `json:"startDate"`
	EndDate           *time.Time     `json:"endDate"`
	Metadata          map[string]any `json:"metadata"`
}

// UpdateProjectRequest is the JSON request body for a partial project update.
type UpdateProjectRequest struct {
	Name              *string        `json:"name" validate:"omitempty,min=1,max=255"`
	Description       *string        `json:"description"`
	Location          *string        `json:"location" validate:"omitempty,max=255"`
	TokenPrice        *float64       `json:"tokenPrice" validate:"omitempty,gt=0"`
	TotalTokens       *int64         `json:"totalTokens" validate:"omitempty,gt=0"`
	MinInvestment     *float64       `json:"minInvestment" validate:"omitempty,gt=0"`
	MaxInvestment     *float64       `json:"maxInvestment" validate:"omitempty,gt=0"`
	ExpectedReturn    *float64       `json:"expectedReturn" validate:"omitempty,gt=0"`
	ExpectedReturnMax *float64       `json:"expectedReturnMax" validate:"omitempty,gt=0"`
	ProjectValue      *float64       `json:"projectValue" validate:"omitempty,gt=0"`
	StartDate         *time.Time     `json:"startDate"`
	EndDate           *time.Time     `json:"endDate"`
	Metadata          map[string]any `json:"metadata"`
}

// --- Views ---

// ProjectView decorates a project with the fields the dashboard needs to
// render actions without re-deriving lifecycle rules client-side.
type ProjectView struct {
	domain.Project
	AllowedTransitions []domain.ProjectStatus `json:"allowedTransitions"`
	RaisedAmount       float64                `json:"raisedAmount"`
	TargetAmount       float64                `json:"targetAmount"`
}

func newProjectView(p domain.Project) ProjectView {
	return ProjectView{
		Project:            p,
		AllowedTransitions: domain.LegalTransitions(p.Status),
		RaisedAmount:       p.RaisedAmount(),
		TargetAmount:       p.TargetAmount(),
	}
}

func newProjectViews(projects []domain.Project) []ProjectView {
	out := make([]ProjectView, len(projects))
	for i, p := range projects {
		out[i] = newProjectView(p)
	}
	return out
}

// --- Handlers ---

// List handles GET /api/v1/projects with optional ?status= and ?search=
// filters. Status narrows the upstream fetch; search is matched in memory
// over the refreshed list.
func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.ProjectStatus(r.URL.Query().Get("status"))
	if status != "" && !status.Valid() {
		httputil.WriteError(w, r, apperrors.InvalidInput(fmt.Sprintf("estado desconocido: %s", status)), h.logger)
		return
	}
	search := strings.TrimSpace(r.URL.Query().Get("search"))

	record := SessionFromContext(r.Context())
	projects, err := h.cache.FetchAll(r.Context(), record.ID, status)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if search != "" {
		projects = h.cache.Filter(search)
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newProjectViews(projects)})
}

// Get handles GET /api/v1/projects/{id}.
func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	record := SessionFromContext(r.Context())
	project, err := h.cache.FetchOne(r.Context(), record.ID, chi.URLParam(r, "id"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newProjectView(*project)})
}

// Create handles POST /api/v1/projects.
func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req CreateProjectRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	record := SessionFromContext(r.Context())
	project, err := h.cache.Create(r.Context(), record.ID, satoru.CreateProjectRequest{
		Name:              req.Name,
		Description:       req.Description,
		Location:          req.Location,
		TokenPrice:        req.TokenPrice,
		TotalTokens:       req.TotalTokens,
		MinInvestment:     req.MinInvestment,
		MaxInvestment:     req.MaxInvestment,
		ExpectedReturn:    req.ExpectedReturn,
		ExpectedReturnMax: req.ExpectedReturnMax,
		ProjectValue:      req.ProjectValue,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Metadata:          req.Metadata,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.events.ProjectCreated(r.Context(), record.User.ID, *project)
	httputil.WriteJSON(w, http.StatusCreated, httputil.Response{Data: newProjectView(*project)})
}

// Update handles PATCH /api/v1/projects/{id}.
func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req UpdateProjectRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	record := SessionFromContext(r.Context())
	project, err := h.cache.Update(r.Context(), record.ID, chi.URLParam(r, "id"), satoru.UpdateProjectRequest{
		Name:              req.Name,
		Description:       req.Description,
		Location:          req.Location,
		TokenPrice:        req.TokenPrice,
		TotalTokens:       req.TotalTokens,
		MinInvestment:     req.MinInvestment,
		MaxInvestment:     req.MaxInvestment,
		ExpectedReturn:    req.ExpectedReturn,
		ExpectedReturnMax: req.ExpectedReturnMax,
		ProjectValue:      req.ProjectValue,
		StartDate:         req.StartDate,
		EndDate:           req.EndDate,
		Metadata:          req.Metadata,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newProjectView(*project)})
}

// UpdateStatus handles PATCH /api/v1/projects/{id}/status/{status}. Illegal
// transitions are rejected with 400 before the core API is reached.
func (h *ProjectHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	to := domain.ProjectStatus(chi.URLParam(r, "status"))
	from, _ := h.cache.LastKnownStatus(id)

	record := SessionFromContext(r.Context())
	project, err := h.cache.UpdateStatus(r.Context(), record.ID, id, to)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.events.ProjectStatusChanged(r.Context(), record.User.ID, *project, from)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newProjectView(*project)})
}

// Delete handles DELETE /api/v1/projects/{id}. The route is mounted behind
// RequireSuperAdmin.
func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	record := SessionFromContext(r.Context())

	if err := h.cache.Delete(r.Context(), record.ID, id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	h.events.ProjectDeleted(r.Context(), record.User.ID, id)
	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: map[string]string{}})
}

// UploadImages handles POST /api/v1/projects/{id}/images as multipart form
// data under the "images" field.
func (h *ProjectHandler) UploadImages(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		httputil.WriteError(w, r, apperrors.InvalidInput("invalid multipart body"), h.logger)
		return
	}

	headers := r.MultipartForm.File["images"]
	if len(headers) == 0 {
		httputil.WriteError(w, r, apperrors.InvalidInput("no images provided"), h.logger)
		return
	}

	files := make([]satoru.ImageFile, 0, len(headers))
	for _, fh := range headers {
		f, err := fh.Open()
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("unreadable upload: "+fh.Filename), h.logger)
			return
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			httputil.WriteError(w, r, apperrors.InvalidInput("unreadable upload: "+fh.Filename), h.logger)
			return
		}
		files = append(files, satoru.ImageFile{
			Filename:    fh.Filename,
			ContentType: fh.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	record := SessionFromContext(r.Context())
	project, err := h.cache.UploadImages(r.Context(), record.ID, chi.URLParam(r, "id"), files)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newProjectView(*project)})
}

// DeleteImage handles DELETE /api/v1/projects/{id}/images/{filename}.
func (h *ProjectHandler) DeleteImage(w http.ResponseWriter, r *http.Request) {
	record := SessionFromContext(r.Context())
	project, err := h.cache.DeleteImage(r.Context(), record.ID, chi.URLParam(r, "id"), chi.URLParam(r, "filename"))
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: newProjectView(*project)})
}
