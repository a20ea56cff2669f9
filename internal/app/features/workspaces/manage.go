// internal/app/features/workspaces/manage.go
package workspaces

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	apierrors "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/params"
	rolestore "github.com/ag863k/Flowmatic-pm/internal/app/store/roles"
	workspacestore "github.com/ag863k/Flowmatic-pm/internal/app/store/workspaces"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/limits"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleChangeRole handles PUT /api/workspace/{id}/change/member/role.
func (h *Handler) HandleChangeRole(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "Unauthorized. Please log in.")
		return
	}
	wsID, err := params.ObjectID(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	var req changeRoleRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	memberID, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.MemberID))
	if err != nil {
		apierrors.BadRequest(w, "Invalid memberId")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := authz.RequireWorkspacePermission(ctx, h.Membership, uid, wsID, authz.ChangeMemberRole); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	roleName, err := h.resolveRoleName(ctx, req)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if err := h.Membership.ChangeMemberRole(ctx, wsID, memberID, roleName); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	h.Metrics.Membership("role_change")
	h.AuditLog.MemberRoleChanged(ctx, r, uid, memberID, wsID, roleName)

	apierrors.JSON(w, http.StatusOK, map[string]string{
		"message": "Member Role changed successfully",
		"role":    roleName,
	})
}

func (h *Handler) resolveRoleName(ctx context.Context, req changeRoleRequest) (string, error) {
	if name := strings.ToUpper(strings.TrimSpace(req.Role)); name != "" {
		return name, nil
	}
	id, err := primitive.ObjectIDFromHex(strings.TrimSpace(req.RoleID))
	if err != nil {
		return "", apperr.BadRequestf("A valid roleId or role is required")
	}
	role, err := h.Roles.GetByID(ctx, id)
	if errors.Is(err, rolestore.ErrNotFound) {
		return "", apperr.NotFoundf("Role not found")
	}
	if err != nil {
		return "", fmt.Errorf("lookup role: %w", err)
	}
	return role.Name, nil
}

// HandleUpdate handles PUT /api/workspace/update/{id}.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "Unauthorized. Please log in.")
		return
	}
	wsID, err := params.ObjectID(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	var req updateRequest
	if err := params.DecodeJSON(w, r, &req); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if len(strings.TrimSpace(req.Name)) > limits.MaxNameLength {
		apierrors.BadRequest(w, "Name must be at most 255 characters")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := authz.RequireWorkspacePermission(ctx, h.Membership, uid, wsID, authz.EditWorkspace); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	ws, err := h.Workspaces.Update(ctx, wsID, req.Name, req.Description)
	if errors.Is(err, workspacestore.ErrNotFound) {
		apierrors.Write(w, r, h.Log, apperr.NotFoundf("Workspace not found"))
		return
	}
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("update workspace: %w", err))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message":   "Workspace updated successfully",
		"workspace": ws,
	})
}

// HandleSwitch handles PUT /api/workspace/change/current/{id}. Only
// workspaces the user is a member of can become current.
func (h *Handler) HandleSwitch(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "Unauthorized. Please log in.")
		return
	}
	wsID, err := params.ObjectID(r, "id")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := h.Membership.GetMemberRole(ctx, uid, wsID); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if err := h.Users.SetCurrentWorkspace(ctx, uid, &wsID); err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("set current workspace: %w", err))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message":     "Current workspace changed successfully",
		"workspaceId": wsID,
	})
}
