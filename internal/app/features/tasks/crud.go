// internal/app/features/tasks/crud.go
package tasks

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apierrors "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/guard"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/params"
	projectstore "github.com/ag863k/Flowmatic-pm/internal/app/store/projects"
	taskstore "github.com/ag863k/Flowmatic-pm/internal/app/store/tasks"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/limits"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/paging"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/query"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	msgProjectNotInWorkspace = "Project not found or does not belong to this workspace"
	msgTaskNotInProject      = "Task not found or does not belong to this project"
	msgTaskNotInWorkspace    = "Task not found or does not belong to the specified workspace"
)

// HandleCreate handles POST /api/task/project/{projectId}/workspace/{workspaceId}/create.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	uid, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.CreateTask)
	if !ok {
		return
	}
	pid, err := params.ObjectID(r, "projectId")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	var req taskRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	title := strings.TrimSpace(req.Title.Value)
	if title == "" || len(title) > limits.MaxNameLength {
		apierrors.BadRequest(w, "Task title is required and must be at most 255 characters")
		return
	}
	assignee, err := req.assignee()
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	due, err := req.dueDate()
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.requireProject(ctx, wsID, pid); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if err := h.requireAssignable(ctx, wsID, assignee); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	t, err := h.Tasks.Create(ctx, models.Task{
		Title:       title,
		Description: req.Description.Value,
		Project:     pid,
		Workspace:   wsID,
		Status:      upper(req.Status.Value),
		Priority:    upper(req.Priority.Value),
		AssignedTo:  assignee,
		CreatedBy:   uid,
		DueDate:     due,
	})
	if err != nil {
		apierrors.Write(w, r, h.Log, validation(err))
		return
	}

	apierrors.JSON(w, http.StatusCreated, map[string]any{
		"message": "Task created successfully",
		"task":    t,
	})
}

// ServeAll handles GET /api/task/workspace/{workspaceId}/all.
//
// Filters: projectId, status, priority, assignedTo (comma-separated lists),
// keyword (title substring) and dueDate, plus pageSize/pageNumber.
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	_, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.ViewOnly)
	if !ok {
		return
	}
	f, err := parseFilter(r)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	pg := paging.Parse(r)

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	rows, total, err := h.Tasks.ListInWorkspace(ctx, wsID, f, pg)
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("list tasks: %w", err))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message":    "All tasks fetched successfully",
		"tasks":      rows,
		"pagination": paging.NewInfo(pg, total),
	})
}

func parseFilter(r *http.Request) (taskstore.Filter, error) {
	var f taskstore.Filter
	if s := query.Get(r, "projectId"); s != "" {
		if id, err := primitive.ObjectIDFromHex(s); err == nil {
			f.ProjectID = &id
		}
	}
	for _, s := range splitList(query.Get(r, "status")) {
		f.Status = append(f.Status, upper(s))
	}
	for _, p := range splitList(query.Get(r, "priority")) {
		f.Priority = append(f.Priority, upper(p))
	}
	for _, s := range splitList(query.Get(r, "assignedTo")) {
		if id, err := primitive.ObjectIDFromHex(s); err == nil {
			f.AssignedTo = append(f.AssignedTo, id)
		}
	}
	f.Keyword = query.Get(r, "keyword")
	if s := query.Get(r, "dueDate"); s != "" {
		d, err := parseDate(s)
		if err != nil {
			return taskstore.Filter{}, apperr.BadRequestf("Invalid dueDate")
		}
		f.DueDate = &d
	}
	return f, nil
}

// ServeOne handles GET /api/task/{id}/project/{projectId}/workspace/{workspaceId}.
func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
	_, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.ViewOnly)
	if !ok {
		return
	}
	pid, tid, ok := h.projectAndTask(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.requireProject(ctx, wsID, pid); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	t, err := h.Tasks.GetInProject(ctx, pid, tid)
	if errors.Is(err, taskstore.ErrNotFound) || (err == nil && t.Workspace != wsID) {
		apierrors.Write(w, r, h.Log, apperr.NotFoundf("Task not found."))
		return
	}
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("load task: %w", err))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message": "Task fetched successfully",
		"task":    t,
	})
}

// HandleUpdate handles PUT /api/task/{id}/project/{projectId}/workspace/{workspaceId}/update.
// Only fields present in the body change; assignedTo or dueDate set to null
// clear them.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.EditTask)
	if !ok {
		return
	}
	pid, tid, ok := h.projectAndTask(w, r)
	if !ok {
		return
	}
	var req taskRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	upd, err := req.update()
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if err := h.requireProject(ctx, wsID, pid); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if err := h.requireAssignable(ctx, wsID, upd.AssignedTo); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	t, err := h.Tasks.UpdateInProject(ctx, pid, tid, upd)
	if errors.Is(err, taskstore.ErrNotFound) {
		apierrors.Write(w, r, h.Log, apperr.NotFoundf(msgTaskNotInProject))
		return
	}
	if err != nil {
		apierrors.Write(w, r, h.Log, validation(err))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message": "Task updated successfully",
		"task":    t,
	})
}

func (req taskRequest) update() (taskstore.Update, error) {
	var upd taskstore.Update
	if req.Title.Set && !req.Title.Null {
		title := strings.TrimSpace(req.Title.Value)
		if title == "" || len(title) > limits.MaxNameLength {
			return upd, apperr.BadRequestf("Task title must be 1 to 255 characters")
		}
		upd.Title = &title
	}
	if req.Description.Set {
		d := req.Description.Value
		upd.Description = &d
	}
	if req.Status.Set && !req.Status.Null {
		s := upper(req.Status.Value)
		upd.Status = &s
	}
	if req.Priority.Set && !req.Priority.Null {
		p := upper(req.Priority.Value)
		upd.Priority = &p
	}

	assignee, err := req.assignee()
	if err != nil {
		return upd, err
	}
	upd.AssignedTo = assignee
	upd.ClearAssignee = req.AssignedTo.Set && assignee == nil

	due, err := req.dueDate()
	if err != nil {
		return upd, err
	}
	upd.DueDate = due
	upd.ClearDueDate = req.DueDate.Set && due == nil
	return upd, nil
}

// HandleDelete handles DELETE /api/task/{id}/workspace/{workspaceId}/delete.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	_, wsID, ok := guard.Workspace(w, r, h.Log, h.Membership, authz.DeleteTask)
	if !ok {
		return
	}
	tid, err := params.ObjectID(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	err = h.Tasks.DeleteInWorkspace(ctx, wsID, tid)
	if errors.Is(err, taskstore.ErrNotFound) {
		apierrors.Write(w, r, h.Log, apperr.NotFoundf(msgTaskNotInWorkspace))
		return
	}
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("delete task: %w", err))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]string{
		"message": "Task deleted successfully",
	})
}

func (h *Handler) projectAndTask(w http.ResponseWriter, r *http.Request) (pid, tid primitive.ObjectID, ok bool) {
	pid, err := params.ObjectID(r, "projectId")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return pid, tid, false
	}
	tid, err = params.ObjectID(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return pid, tid, false
	}
	return pid, tid, true
}

func (h *Handler) requireProject(ctx context.Context, wsID, pid primitive.ObjectID) error {
	_, err := h.Projects.GetInWorkspace(ctx, wsID, pid)
	if errors.Is(err, projectstore.ErrNotFound) {
		return apperr.NotFoundf(msgProjectNotInWorkspace)
	}
	if err != nil {
		return fmt.Errorf("load project: %w", err)
	}
	return nil
}

// requireAssignable rejects assignees who are not members of the workspace.
func (h *Handler) requireAssignable(ctx context.Context, wsID primitive.ObjectID, assignee *primitive.ObjectID) error {
	if assignee == nil {
		return nil
	}
	ok, err := h.Members.Exists(ctx, *assignee, wsID)
	if err != nil {
		return fmt.Errorf("lookup assignee: %w", err)
	}
	if !ok {
		return apperr.BadRequestf("Assigned user is not a member of this workspace.")
	}
	return nil
}

func validation(err error) error {
	if taskstore.IsValidationErr(err) {
		return apperr.Wrap(apperr.BadRequest, "Invalid task status or priority", err)
	}
	return err
}
