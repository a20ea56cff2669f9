// internal/app/features/members/remove.go
package members

import (
	"context"
	"net/http"

	apierrors "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/params"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
)

// HandleRemove handles DELETE /api/member/workspace/{workspaceId}/remove/{memberUserId}.
//
// The caller needs REMOVE_MEMBER in the workspace and may not remove
// themselves; the owner can never be removed.
func (h *Handler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "Unauthorized. Please log in.")
		return
	}
	wsID, err := params.ObjectID(r, "workspaceId")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	memberID, err := params.ObjectID(r, "memberUserId")
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := authz.RequireWorkspacePermission(ctx, h.Membership, uid, wsID, authz.RemoveMember); err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}
	if uid == memberID {
		apierrors.BadRequest(w, "You cannot remove yourself from the workspace")
		return
	}

	msg, err := h.Membership.RemoveMember(ctx, wsID, memberID)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	h.Metrics.Membership("remove")
	h.AuditLog.MemberRemoved(ctx, r, uid, memberID, wsID)

	apierrors.JSON(w, http.StatusOK, map[string]string{"message": msg})
}
