package cache

import (
	"context"
	"fmt"
	"strings"

	"github.com/antoniojosev/crm-satoru/internal/domain"
	"github.com/antoniojosev/crm-satoru/internal/satoru"
	apperrors "github.com/antoniojosev/crm-satoru/pkg/errors"
)

func projectKey(p domain.Project) string { return p.ID }

// ProjectCache serves project reads from memory and keeps the cached list
// reconciled after every mutation, so the dashboard never refetches the
// whole list to reflect a change it just made.
type ProjectCache struct {
	state  state[domain.Project]
	client *satoru.Client
}

// NewProjectCache creates a project cache over the core API client.
func NewProjectCache(client *satoru.Client) *ProjectCache {
	return &ProjectCache{client: client}
}

// Snapshot returns a copy of the cached projects.
func (c *ProjectCache) Snapshot() Snapshot[domain.Project] {
	return c.state.snapshot()
}

// FetchAll loads projects from the core API, replacing the cached list
// wholesale. An optional status narrows the fetch.
func (c *ProjectCache) FetchAll(ctx context.Context, sessionID string, status domain.ProjectStatus) ([]domain.Project, error) {
	projects, err := c.client.ListProjects(ctx, sessionID, status)
	if err != nil {
		err = userFacing(err, "Error al cargar proyectos")
		c.state.setError(apperrors.Message(err, "Error al cargar proyectos"))
		return nil, err
	}
	c.state.replaceAll(projects)
	return projects, nil
}

// FetchOne loads a single project and makes it the focused item.
func (c *ProjectCache) FetchOne(ctx context.Context, sessionID, id string) (*domain.Project, error) {
	project, err := c.client.GetProject(ctx, sessionID, id)
	if err != nil {
		err = userFacing(err, "Proyecto no encontrado")
		c.state.setError(apperrors.Message(err, "Proyecto no encontrado"))
		return nil, err
	}
	c.state.setCurrent(project)
	return project, nil
}

// ClearCurrent drops the focused project, typically on leaving a detail view.
func (c *ProjectCache) ClearCurrent() {
	c.state.setCurrent(nil)
}

// Filter narrows the cached list in memory with a case-insensitive match over
// project name and location. It never touches the network.
func (c *ProjectCache) Filter(search string) []domain.Project {
	snap := c.state.snapshot()
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return snap.Items
	}

	out := make([]domain.Project, 0, len(snap.Items))
	for _, p := range snap.Items {
		if strings.Contains(strings.ToLower(p.Name), search) ||
			strings.Contains(strings.ToLower(p.Location), search) {
			out = append(out, p)
		}
	}
	return out
}

// LastKnownStatus reports the cached lifecycle status for a project without
// touching the network, checking the focused item before the listed ones.
func (c *ProjectCache) LastKnownStatus(id string) (domain.ProjectStatus, bool) {
	snap := c.state.snapshot()
	if snap.Current != nil && snap.Current.ID == id {
		return snap.Current.Status, true
	}
	for _, p := range snap.Items {
		if p.ID == id {
			return p.Status, true
		}
	}
	return "", false
}

// Create creates a project upstream and prepends it to the cached list.
func (c *ProjectCache) Create(ctx context.Context, sessionID string, req satoru.CreateProjectRequest) (*domain.Project, error) {
	project, err := c.client.CreateProject(ctx, sessionID, req)
	if err != nil {
		err = userFacing(err, "Error al crear proyecto")
		c.state.setError(apperrors.Message(err, "Error al crear proyecto"))
		return nil, err
	}
	c.state.apply(*project, OpCreate, projectKey)
	return project, nil
}

// Update applies a partial update upstream and replaces the cached entry.
func (c *ProjectCache) Update(ctx context.Context, sessionID, id string, req satoru.UpdateProjectRequest) (*domain.Project, error) {
	project, err := c.client.UpdateProject(ctx, sessionID, id, req)
	if err != nil {
		err = userFacing(err, "Error al actualizar proyecto")
		c.state.setError(apperrors.Message(err, "Error al actualizar proyecto"))
		return nil, err
	}
	c.state.apply(*project, OpUpdate, projectKey)
	return project, nil
}

// UpdateStatus moves a project through its lifecycle. Illegal transitions
// are rejected locally before the core API is called.
func (c *ProjectCache) UpdateStatus(ctx context.Context, sessionID, id string, to domain.ProjectStatus) (*domain.Project, error) {
	if !to.Valid() {
		return nil, apperrors.InvalidInput(fmt.Sprintf("estado desconocido: %s", to))
	}

	from, err := c.currentStatus(ctx, sessionID, id)
	if err != nil {
		err = userFacing(err, "Error al cambiar estado")
		c.state.setError(apperrors.Message(err, "Error al cambiar estado"))
		return nil, err
	}
	if !domain.CanTransition(from, to) {
		return nil, apperrors.InvalidInput(fmt.Sprintf("transición no permitida de %s a %s", from, to))
	}

	project, err := c.client.UpdateProjectStatus(ctx, sessionID, id, to)
	if err != nil {
		err = userFacing(err, "Error al cambiar estado")
		c.state.setError(apperrors.Message(err, "Error al cambiar estado"))
		return nil, err
	}
	c.state.apply(*project, OpUpdate, projectKey)
	return project, nil
}

// currentStatus answers from cache when the project is already loaded and
// falls back to the core API otherwise.
func (c *ProjectCache) currentStatus(ctx context.Context, sessionID, id string) (domain.ProjectStatus, error) {
	if status, ok := c.LastKnownStatus(id); ok {
		return status, nil
	}

	project, err := c.client.GetProject(ctx, sessionID, id)
	if err != nil {
		return "", err
	}
	return project.Status, nil
}

// Delete removes a project upstream and prunes it from the cached list.
func (c *ProjectCache) Delete(ctx context.Context, sessionID, id string) error {
	if err := c.client.DeleteProject(ctx, sessionID, id); err != nil {
		err = userFacing(err, "Error al eliminar proyecto")
		c.state.setError(apperrors.Message(err, "Error al eliminar proyecto"))
		return err
	}
	c.state.apply(domain.Project{ID: id}, OpDelete, projectKey)
	return nil
}

// UploadImages attaches images to a project and replaces the cached entry
// with the updated project returned upstream.
func (c *ProjectCache) UploadImages(ctx context.Context, sessionID, id string, files []satoru.ImageFile) (*domain.Project, error) {
	project, err := c.client.UploadProjectImages(ctx, sessionID, id, files)
	if err != nil {
		err = userFacing(err, "Error al actualizar proyecto")
		c.state.setError(apperrors.Message(err, "Error al actualizar proyecto"))
		return nil, err
	}
	c.state.apply(*project, OpUpdate, projectKey)
	return project, nil
}

// DeleteImage removes one image from a project.
func (c *ProjectCache) DeleteImage(ctx context.Context, sessionID, id, filename string) (*domain.Project, error) {
	project, err := c.client.DeleteProjectImage(ctx, sessionID, id, filename)
	if err != nil {
		err = userFacing(err, "Error al actualizar proyecto")
		c.state.setError(apperrors.Message(err, "Error al actualizar proyecto"))
		return nil, err
	}
	c.state.apply(*project, OpUpdate, projectKey)
	return project, nil
}
