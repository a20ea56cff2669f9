// Package guard runs the signed-in and workspace permission checks shared by
// the project and task handlers.
package guard

import (
	"context"
	"net/http"

	apierrors "github.com/ag863k/Flowmatic-pm/internal/app/features/errors"
	"github.com/ag863k/Flowmatic-pm/internal/app/features/shared/params"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// WorkspaceParam is the URL parameter holding the workspace id.
const WorkspaceParam = "workspaceId"

// Workspace resolves the signed-in user and the {workspaceId} URL parameter
// and requires perm in that workspace. When ok is false the error response
// has already been written.
func Workspace(w http.ResponseWriter, r *http.Request, log *zap.Logger, rr authz.RoleResolver, perm string) (userID, workspaceID primitive.ObjectID, ok bool) {
	_, userID, ok = authz.UserCtx(r)
	if !ok {
		apierrors.Unauthorized(w, "Unauthorized. Please log in.")
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	workspaceID, err := params.ObjectID(r, WorkspaceParam)
	if err != nil {
		apierrors.Write(w, r, log, err)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	if _, err := authz.RequireWorkspacePermission(ctx, rr, userID, workspaceID, perm); err != nil {
		apierrors.Write(w, r, log, err)
		return primitive.NilObjectID, primitive.NilObjectID, false
	}
	return userID, workspaceID, true
}
