// internal/app/features/members/join.go
package members

import (
	"context"
	"net/http"
	"strings"

	apierrors "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type joinResponse struct {
	Message     string             `json:"message"`
	WorkspaceID primitive.ObjectID `json:"workspaceId"`
	Role        string             `json:"role"`
}

// HandleJoin handles POST /api/member/workspace/{inviteCode}/join.
func (h *Handler) HandleJoin(w http.ResponseWriter, r *http.Request) {
	_, uid, ok := authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "Unauthorized. Please log in.")
		return
	}
	code := strings.TrimSpace(chi.URLParam(r, "inviteCode"))
	if code == "" {
		apierrors.BadRequest(w, "Invite code is required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	wsID, role, err := h.Membership.JoinByInviteCode(ctx, uid, code)
	if err != nil {
		apierrors.Write(w, r, h.Log, err)
		return
	}

	h.Metrics.Membership("join")
	h.AuditLog.MemberJoined(ctx, r, uid, wsID, role)

	apierrors.JSON(w, http.StatusOK, joinResponse{
		Message:     "Successfully joined the workspace",
		WorkspaceID: wsID,
		Role:        role,
	})
}
