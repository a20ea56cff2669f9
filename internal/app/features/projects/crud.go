// internal/app/features/projects/crud.go
package projects

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	apierrors "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/guard"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/params"
	projectstore "github.com/ag863k/Flowmatic-pm/internal/app/store/projects"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/limits"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/paging"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/txn"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/project/workspace/{workspaceId}/create.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.CreateProject)
	if !ok {
		return
	}
	var req projectRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	name := strings.TrimSpace(req.Name)
	if name == "" || len(name) > limits.MaxNameLength {
		apierrors.BadRequest(w, "Project name is required and must be at most 255 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Projects.Create(ctx, models.Project{
		Emoji:       strings.TrimSpace(req.Emoji),
		Name:        name,
		Description: req.Description,
		Workspace:   wsID,
		CreatedBy:   uid,
	})
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("create project: %w", err))
		return
	}

	apierrors.JSON(w, http.StatusCreated, map[string]any{
		"message": "Project created successfully",
		"project": p,
	})
}

// ServeAll handles GET /api/project/workspace/{workspaceId}/all?pageSize&pageNumber.
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	_, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.ViewOnly)
	if !ok {
		return
	}
	pg := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, total, err := h.Projects.ListInWorkspace(ctx, wsID, pg)
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("list projects: %w", err))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message":    "Project fetched successfully",
		"projects":   rows,
		"pagination": paging.NewInfo(pg, total),
	})
}

// ServeOne handles GET /api/project/{id}/workspace/{workspaceId}.
func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	_, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.ViewOnly)
	if !ok {
		return
	}
	pid, err := params.ObjectID(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Projects.GetInWorkspace(ctx, wsID, pid)
	if err != nil {
		apierrors.Write(w, r, h.Log, notFound(err, msgNotInWorkspace))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message": "Project fetched successfully",
		"project": p,
	})
}

// ServeAnalytics handles GET /api/project/{id}/workspace/{workspaceId}/analytics.
func (h *Handler) ServeAnalytics(w http.ResponseWriter, r *http.Request) {
	_, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.ViewOnly)
	if !ok {
		return
	}
	pid, err := params.ObjectID(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Projects.GetInWorkspace(ctx, wsID, pid); err != nil {
		apierrors.Write(w, r, h.Log, notFound(err, msgNotInThisWorkspace))
		return
	}
	a, err := h.Projects.TaskAnalytics(ctx, pid, time.Now().UTC())
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("project analytics: %w", err))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message":   "Project analytics retrieved successfully",
		"analytics": a,
	})
}

// HandleUpdate handles PUT /api/project/{id}/workspace/{workspaceId}/update.
// Empty fields keep their current value.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.EditProject)
	if !ok {
		return
	}
	pid, err := params.ObjectID(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	var req projectRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if len(strings.TrimSpace(req.Name)) > limits.MaxNameLength {
		apierrors.BadRequest(w, "Project name must be at most 255 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	p, err := h.Projects.UpdateInWorkspace(ctx, wsID, pid, projectstore.Update{
		Emoji:       strings.TrimSpace(req.Emoji),
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		apierrors.Write(w, r, h.Log, notFound(err, msgNotInWorkspace))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message": "Project updated successfully",
		"project": p,
	})
}

// HandleDelete handles DELETE /api/project/{id}/workspace/{workspaceId}/delete.
// The project and its tasks are removed together.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.DeleteProject)
	if !ok {
		return
	}
	pid, err := params.ObjectID(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	var removed int64
	err = txn.Run(ctx, h.DB, h.Log, func(ctx context.Context) error {
		n, err := h.Projects.DeleteWithTasks(ctx, wsID, pid)
		removed = n
		return err
	})
	if err != nil {
		apierrors.Write(w, r, h.Log, notFound(err, msgNotInWorkspace))
		return
	}

	h.Log.Info("project deleted",
		zap.String("project_id", pid.Hex()),
		zap.String("workspace_id", wsID.Hex()),
		zap.Int64("tasks_removed", removed))

	apierrors.JSON(w, http.StatusOK, map[string]string{
		"message": "Project deleted successfully",
	})
}

// notFound maps the store's not-found sentinel to a client-facing message.
func notFound(err error, msg string) error {
	if errors.Is(err, projectstore.ErrNotFound) {
		return apperr.NotFoundf("%s", msg)
	}
	return err
}
