package authz_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/apperr"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/auth"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestRequirePermission_Matrix(t *testing.T) {
	admin := map[string]bool{
		authz.AddMember: true, authz.CreateProject: true, authz.EditProject: true,
		authz.DeleteProject: true, authz.CreateTask: true, authz.EditTask: true,
		authz.DeleteTask: true, authz.ManageWorkspaceSettings: true, authz.ViewOnly: true,
	}
	member := map[string]bool{
		authz.ViewOnly: true, authz.CreateTask: true, authz.EditTask: true,
	}

	for _, perm := range authz.AllPermissions {
		t.Run(perm, func(t *testing.T) {
			if err := authz.RequirePermission(authz.RoleOwner, perm); err != nil {
				t.Errorf("OWNER denied %s: %v", perm, err)
			}

			err := authz.RequirePermission(authz.RoleAdmin, perm)
			if admin[perm] && err != nil {
				t.Errorf("ADMIN denied %s", perm)
			}
			if !admin[perm] && !errors.Is(err, apperr.Forbidden) {
				t.Errorf("ADMIN allowed %s (err=%v)", perm, err)
			}

			err = authz.RequirePermission(authz.RoleMember, perm)
			if member[perm] && err != nil {
				t.Errorf("MEMBER denied %s", perm)
			}
			if !member[perm] && !errors.Is(err, apperr.Forbidden) {
				t.Errorf("MEMBER allowed %s (err=%v)", perm, err)
			}
		})
	}
}

func TestRequirePermission_UnknownRole(t *testing.T) {
	for _, role := range []string{"", "GUEST", "owner"} {
		if err := authz.RequirePermission(role, authz.ViewOnly); !errors.Is(err, apperr.Forbidden) {
			t.Errorf("role %q: expected Forbidden, got %v", role, err)
		}
	}
}

func TestRequirePermission_UnknownPermission(t *testing.T) {
	if err := authz.RequirePermission(authz.RoleOwner, "LAUNCH_ROCKETS"); !errors.Is(err, apperr.Forbidden) {
		t.Errorf("expected Forbidden, got %v", err)
	}
}

func TestPermissionsFor_ReturnsCopy(t *testing.T) {
	p := authz.PermissionsFor(authz.RoleMember)
	p[0] = "MUTATED"
	if authz.PermissionsFor(authz.RoleMember)[0] == "MUTATED" {
		t.Error("PermissionsFor leaked the catalog slice")
	}
	if authz.PermissionsFor("NOPE") != nil {
		t.Error("expected nil for unknown role")
	}
}

func TestOwnerHasEveryPermission(t *testing.T) {
	if len(authz.PermissionsFor(authz.RoleOwner)) != len(authz.AllPermissions) {
		t.Error("OWNER should hold every permission")
	}
}

type stubResolver struct {
	role string
	err  error
}

func (s stubResolver) GetMemberRole(context.Context, primitive.ObjectID, primitive.ObjectID) (string, error) {
	return s.role, s.err
}

func TestRequireWorkspacePermission(t *testing.T) {
	ctx := context.Background()
	uid, wid := primitive.NewObjectID(), primitive.NewObjectID()

	role, err := authz.RequireWorkspacePermission(ctx, stubResolver{role: authz.RoleAdmin}, uid, wid, authz.CreateProject)
	if err != nil || role != authz.RoleAdmin {
		t.Errorf("ADMIN CREATE_PROJECT: role=%q err=%v", role, err)
	}

	_, err = authz.RequireWorkspacePermission(ctx, stubResolver{role: authz.RoleMember}, uid, wid, authz.DeleteProject)
	if !errors.Is(err, apperr.Forbidden) {
		t.Errorf("MEMBER DELETE_PROJECT: expected Forbidden, got %v", err)
	}

	notMember := apperr.Unauthorizedf("You are not a member of this workspace")
	_, err = authz.RequireWorkspacePermission(ctx, stubResolver{err: notMember}, uid, wid, authz.ViewOnly)
	if !errors.Is(err, apperr.Unauthorized) {
		t.Errorf("expected resolver error to propagate, got %v", err)
	}
}

func TestUserCtx(t *testing.T) {
	req := httptest.NewRequest("GET", "/test", nil)
	if _, _, ok := authz.UserCtx(req); ok {
		t.Error("expected ok=false with no user")
	}

	id := primitive.NewObjectID()
	req = auth.WithTestUser(req, &auth.SessionUser{ID: id.Hex(), Name: "Ann"})
	name, got, ok := authz.UserCtx(req)
	if !ok || got != id || name != "Ann" {
		t.Errorf("UserCtx() = %q, %v, %v", name, got, ok)
	}

	bad := auth.WithTestUser(httptest.NewRequest("GET", "/", nil), &auth.SessionUser{ID: "zzz"})
	if _, _, ok := authz.UserCtx(bad); ok {
		t.Error("expected ok=false for malformed id")
	}
}
