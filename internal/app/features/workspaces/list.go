// internal/app/features/workspaces/list.go
package workspaces

import (
	"context"
	"fmt"
	"net/http"

	apierrors "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/params"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
)

// ServeAll handles GET /api/workspace/all: every workspace the user belongs
// to, sorted by name.
func (h *Handler) ServeAll(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "Unauthorized. Please log in.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	ids, err := h.Members.WorkspaceIDsForUser(ctx, uid)
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("list memberships: %w", err))
		return
	}
	list, err := h.Workspaces.FindByIDs(ctx, ids)
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("load workspaces: %w", err))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message":    "User workspaces fetched successfully",
		"workspaces": list,
	})
}

// ServeOne handles GET /api/workspace/{id}.
func (h *Handler) ServeOne(w http.ResponseWriter, r *http.Request) {
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

	if _, err := authz.RequireWorkspacePermission(ctx, h.Membership, uid, wsID, authz.ViewOnly); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	ws, err := h.Workspaces.GetByID(ctx, wsID)
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("load workspace: %w", err))
		return
	}
	members, err := h.Membership.ListMembers(ctx, wsID)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message":   "Workspace fetched successfully",
		"workspace": workspaceDetail{Workspace: ws, Members: members},
	})
}

// ServeMembers handles GET /api/workspace/{id}/members. The role catalog is
// included so clients can offer role changes.
func (h *Handler) ServeMembers(w http.ResponseWriter, r *http.Request) {
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

	if _, err := authz.RequireWorkspacePermission(ctx, h.Membership, uid, wsID, authz.ViewOnly); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	members, err := h.Membership.ListMembers(ctx, wsID)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	roles, err := h.Membership.Roles(ctx)
	if err != nil {
		apierrors.Write(w, r, h.Log, fmt.Errorf("list roles: %w", err))
		return
	}

	apierrors.JSON(w, http.StatusOK, map[string]any{
		"message": "Workspace members retrieved successfully",
		"members": members,
		"roles":   roles,
	})
}
