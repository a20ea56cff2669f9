// internal/app/system/authz/authz.go
package authz

import (
	"context"
	"net/http"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auth"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// RequirePermission fails with apperr.Forbidden unless role holds permission.
// Unknown roles hold nothing.
func RequirePermission(role, permission string) error {
	if HasPermission(role, permission) {
		return nil
	}
	return apperr.Forbiddenf("You do not have the necessary permissions to perform this action")
}

// RoleResolver looks up a user's role name in a workspace.
type RoleResolver interface {
	GetMemberRole(ctx context.Context, userID, workspaceID primitive.ObjectID) (string, error)
}

// RequireWorkspacePermission resolves the user's role in the workspace and
// checks permission against it. The role name is returned on success so
// handlers can use it in responses.
func RequireWorkspacePermission(ctx context.Context, rr RoleResolver, userID, workspaceID primitive.ObjectID, permission string) (string, error) {
	role, err := rr.GetMemberRole(ctx, userID, workspaceID)
	if err != nil {
		return "", err
	}
	if err := RequirePermission(role, permission); err != nil {
		return "", err
	}
	return role, nil
}

// UserCtx returns the signed-in user's name and ObjectID. ok is false when
// no user is present or the stored id is malformed, so callers can trust
// ok=true to mean a usable id.
func UserCtx(r *http.Request) (name string, userID primitive.ObjectID, ok bool) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		return "", primitive.NilObjectID, false
	}
	userID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		return "", primitive.NilObjectID, false
	}
	return user.Name, userID, true
}
