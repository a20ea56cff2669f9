package members_test

import (
	"net/http"
	"testing"

	"github.com/ag863k/Flowmatic-pm/internal/app/features/members"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/metrics"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"github.com/ag863k/Flowmatic-pm/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*members.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	testutil.RequireTransactions(t, db)
	return members.NewHandler(db, nil, metrics.New("test"), zap.NewNop()), testutil.NewFixtures(t, db)
}

func joinRequest(code string, u models.User) *http.Request {
	req := testutil.NewAuthenticatedRequest("POST", "/api/member/workspace/"+code+"/join", nil, u)
	return testutil.WithChiURLParams(req, "inviteCode", code)
}

func removeRequest(ws models.Workspace, target, caller models.User) *http.Request {
	req := testutil.NewAuthenticatedRequest("DELETE", "/api/member/workspace/x/remove/y", nil, caller)
	return testutil.WithChiURLParams(req, "workspaceId", ws.ID.Hex(), "memberUserId", target.ID.Hex())
}

func TestHandleJoin(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	roles := fx.SeedRoles(ctx)
	_, ws := fx.WorkspaceWithOwner(ctx, roles, "Owner", "owner@example.com")
	joiner := fx.CreateUser(ctx, "Joiner", "joiner@example.com")

	rec := testutil.NewRecorder()
	h.HandleJoin(rec, joinRequest(ws.InviteCode, joiner))
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Message     string `json:"message"`
		WorkspaceID string `json:"workspaceId"`
		Role        string `json:"role"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Message != "Successfully joined the workspace" || resp.WorkspaceID != ws.ID.Hex() || resp.Role != authz.RoleMember {
		t.Errorf("unexpected response %+v", resp)
	}

	again := testutil.NewRecorder()
	h.HandleJoin(again, joinRequest(ws.InviteCode, joiner))
	again.AssertStatus(t, http.StatusBadRequest)
	again.AssertContains(t, "You are already a member of this workspace")

	unknown := testutil.NewRecorder()
	h.HandleJoin(unknown, joinRequest("nope", joiner))
	unknown.AssertStatus(t, http.StatusNotFound)
}

func TestHandleRemove(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	roles := fx.SeedRoles(ctx)
	owner, ws := fx.WorkspaceWithOwner(ctx, roles, "Owner", "owner@example.com")

	admin := fx.CreateUser(ctx, "Admin", "admin@example.com")
	fx.AddMember(ctx, admin.ID, ws.ID, roles[authz.RoleAdmin].ID)
	member := fx.CreateUser(ctx, "Member", "member@example.com")
	fx.AddMember(ctx, member.ID, ws.ID, roles[authz.RoleMember].ID)
	fx.SetCurrentWorkspace(ctx, member.ID, ws.ID)
	outsider := fx.CreateUser(ctx, "Out", "out@example.com")

	tests := []struct {
		name   string
		caller models.User
		target models.User
		status int
		body   string
	}{
		{"admin lacks REMOVE_MEMBER", admin, member, http.StatusForbidden, "necessary permissions"},
		{"non-member caller", outsider, member, http.StatusUnauthorized, "not a member"},
		{"owner removes self", owner, owner, http.StatusBadRequest, "You cannot remove yourself from the workspace"},
		{"target not a member", owner, outsider, http.StatusNotFound, "Member not found"},
		{"owner removes member", owner, member, http.StatusOK, "Member removed successfully"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			h.HandleRemove(rec, removeRequest(ws, tt.target, tt.caller))
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.body)
		})
	}

	n, err := fx.DB().Collection("members").CountDocuments(ctx, bson.M{"user_id": member.ID})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 0 {
		t.Errorf("membership rows for removed user = %d, want 0", n)
	}
	var u models.User
	if err := fx.DB().Collection("users").FindOne(ctx, bson.M{"_id": member.ID}).Decode(&u); err != nil {
		t.Fatalf("load user: %v", err)
	}
	if u.CurrentWorkspace != nil {
		t.Errorf("current workspace = %v, want nil", u.CurrentWorkspace)
	}
}

func TestHandleRemove_BadIDs(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	u := fx.CreateUser(ctx, "Ada", "ada@example.com")

	req := testutil.NewAuthenticatedRequest("DELETE", "/", nil, u)
	req = testutil.WithChiURLParams(req, "workspaceId", "not-an-id", "memberUserId", u.ID.Hex())
	rec := testutil.NewRecorder()
	h.HandleRemove(rec, req)

	rec.AssertStatus(t, http.StatusBadRequest)
	rec.AssertContains(t, "Invalid workspaceId")
}
