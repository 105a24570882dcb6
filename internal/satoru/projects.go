package satoru

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"time"

	"github.com/antoniojosev/crm-satoru/internal/domain"
)

// CreateProjectRequest carries the fields for creating a project.
type CreateProjectRequest struct {
	Name              string         `json:"name"`
	Description       string         `json:"description"`
	Location          string         `json:"location"`
	TokenPrice        float64        `json:"tokenPrice"`
	TotalTokens       int64          `json:"totalTokens"`
	MinInvestment     float64        `json:"minInvestment"`
	MaxInvestment     *float64       `json:"maxInvestment,omitempty"`
	ExpectedReturn    float64        `json:"expectedReturn"`
	ExpectedReturnMax *float64       `json:"expectedReturnMax,omitempty"`
	ProjectValue      float64        `json:"projectValue"`
	StartDate         *time.Time     `json:"startDate,omitempty"`
	EndDate           *time.Time     `json:"endDate,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// UpdateProjectRequest carries a partial project update. Only non-nil
// fields are sent.
type UpdateProjectRequest struct {
	Name              *string        `json:"name,omitempty"`
	Description       *string        `json:"description,omitempty"`
	Location          *string        `json:"location,omitempty"`
	TokenPrice        *float64       `json:"tokenPrice,omitempty"`
	TotalTokens       *int64         `json:"totalTokens,omitempty"`
	MinInvestment     *float64       `json:"minInvestment,omitempty"`
	MaxInvestment     *float64       `json:"maxInvestment,omitempty"`
	ExpectedReturn    *float64       `json:"expectedReturn,omitempty"`
	ExpectedReturnMax *float64       `json:"expectedReturnMax,omitempty"`
	ProjectValue      *float64       `json:"projectValue,omitempty"`
	StartDate         *time.Time     `json:"startDate,omitempty"`
	EndDate           *time.Time     `json:"endDate,omitempty"`
	Metadata          map[string]any `json:"metadata,omitempty"`
}

// ImageFile is an in-memory file to upload as a project image.
type ImageFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// ListProjects fetches all projects, optionally filtered by status.
func (c *Client) ListProjects(ctx context.Context, sessionID string, status domain.ProjectStatus) ([]domain.Project, error) {
	path := "/projects"
	if status != "" {
		path += "?status=" + url.QueryEscape(string(status))
	}
	var projects []domain.Project
	err := c.send(ctx, "projects.list", sessionID, c.jsonRequest(http.MethodGet, path, nil), &projects)
	if err != nil {
		return nil, err
	}
	return projects, nil
}

// GetProject fetches a single project by ID.
func (c *Client) GetProject(ctx context.Context, sessionID, id string) (*domain.Project, error) {
	var project domain.Project
	err := c.send(ctx, "projects.get", sessionID, c.jsonRequest(http.MethodGet, "/projects/"+url.PathEscape(id), nil), &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// CreateProject creates a project. New projects start in DRAFT.
func (c *Client) CreateProject(ctx context.Context, sessionID string, req CreateProjectRequest) (*domain.Project, error) {
	var project domain.Project
	err := c.send(ctx, "projects.create", sessionID, c.jsonRequest(http.MethodPost, "/projects", req), &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProject applies a partial update to a project.
func (c *Client) UpdateProject(ctx context.Context, sessionID, id string, req UpdateProjectRequest) (*domain.Project, error) {
	var project domain.Project
	err := c.send(ctx, "projects.update", sessionID, c.jsonRequest(http.MethodPatch, "/projects/"+url.PathEscape(id), req), &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// UpdateProjectStatus moves a project to a new lifecycle status. Legality
// of the transition is checked by the caller before this is invoked.
func (c *Client) UpdateProjectStatus(ctx context.Context, sessionID, id string, status domain.ProjectStatus) (*domain.Project, error) {
	path := fmt.Sprintf("/projects/%s/status/%s", url.PathEscape(id), url.PathEscape(string(status)))
	var project domain.Project
	err := c.send(ctx, "projects.update_status", sessionID, c.jsonRequest(http.MethodPatch, path, nil), &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject permanently removes a project.
func (c *Client) DeleteProject(ctx context.Context, sessionID, id string) error {
	return c.send(ctx, "projects.delete", sessionID, c.jsonRequest(http.MethodDelete, "/projects/"+url.PathEscape(id), nil), nil)
}

// UploadProjectImages uploads one or more images for a project. The
// multipart body is rebuilt from the in-memory files on a refresh replay.
func (c *Client) UploadProjectImages(ctx context.Context, sessionID, id string, files []ImageFile) (*domain.Project, error) {
	build := func(ctx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		for _, f := range files {
			part, err := mw.CreateFormFile("images", f.Filename)
			if err != nil {
				return nil, fmt.Errorf("create multipart field: %w", err)
			}
			if _, err := part.Write(f.Data); err != nil {
				return nil, fmt.Errorf("write multipart field: %w", err)
			}
		}
		if err := mw.Close(); err != nil {
			return nil, fmt.Errorf("close multipart writer: %w", err)
		}

		path := fmt.Sprintf("%s/projects/%s/images/upload", c.baseURL, url.PathEscape(id))
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, path, &buf)
		if err != nil {
			return nil, fmt.Errorf("create upload request: %w", err)
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		return req, nil
	}

	var project domain.Project
	if err := c.send(ctx, "projects.upload_images", sessionID, build, &project); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProjectImage removes a single image from a project by filename.
func (c *Client) DeleteProjectImage(ctx context.Context, sessionID, id, filename string) (*domain.Project, error) {
	path := fmt.Sprintf("/projects/%s/images/%s", url.PathEscape(id), url.PathEscape(filename))
	var project domain.Project
	err := c.send(ctx, "projects.delete_image", sessionID, c.jsonRequest(http.MethodDelete, path, nil), &project)
	if err != nil {
		return nil, err
	}
	return &project, nil
}
