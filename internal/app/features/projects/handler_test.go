package projects_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/features/projects"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"github.com/ag863k/Flowmatic-pm/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

type env struct {
	h      *projects.Handler
	fx     *testutil.Fixtures
	owner  models.User
	member models.User
	ws     models.Workspace
}

func setup(t *testing.T) env {
	t.Helper()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	roles := fx.SeedRoles(ctx)
	owner, ws := fx.WorkspaceWithOwner(ctx, roles, "Owner", "owner@example.com")
	member := fx.CreateUser(ctx, "Member", "member@example.com")
	fx.AddMember(ctx, member.ID, ws.ID, roles[authz.RoleMember].ID)

	return env{h: projects.NewHandler(db, zap.NewNop()), fx: fx, owner: owner, member: member, ws: ws}
}

func (e env) req(method string, body any, u models.User, kv ...string) *http.Request {
	r := testutil.NewAuthenticatedRequest(method, "/", body, u)
	return testutil.WithChiURLParams(r, append([]string{"workspaceId", e.ws.ID.Hex()}, kv...)...)
}

func TestHandleCreate(t *testing.T) {
	e := setup(t)

	rec := testutil.NewRecorder()
	e.h.HandleCreate(rec, e.req("POST", map[string]string{"name": "Launch", "description": "Q3"}, e.owner))
	rec.AssertStatus(t, http.StatusCreated)

	var resp struct {
		Project models.Project `json:"project"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Project.Name != "Launch" || resp.Project.Emoji != models.DefaultProjectEmoji {
		t.Errorf("project = %+v", resp.Project)
	}
	if resp.Project.Workspace != e.ws.ID || resp.Project.CreatedBy != e.owner.ID {
		t.Error("project should belong to the workspace and creator")
	}

	missing := testutil.NewRecorder()
	e.h.HandleCreate(missing, e.req("POST", map[string]string{"name": "  "}, e.owner))
	missing.AssertStatus(t, http.StatusBadRequest)

	forbidden := testutil.NewRecorder()
	e.h.HandleCreate(forbidden, e.req("POST", map[string]string{"name": "Nope"}, e.member))
	forbidden.AssertStatus(t, http.StatusForbidden)
}

func TestServeAll_Paginates(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	for _, n := range []string{"A", "B", "C"} {
		e.fx.CreateProject(ctx, e.ws.ID, e.owner.ID, n)
	}

	r := e.req("GET", nil, e.member)
	q := r.URL.Query()
	q.Set("pageSize", "2")
	q.Set("pageNumber", "2")
	r.URL.RawQuery = q.Encode()

	rec := testutil.NewRecorder()
	e.h.ServeAll(rec, r)
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Projects []struct {
			Name      string `json:"name"`
			CreatedBy struct {
				Name string `json:"name"`
			} `json:"createdBy"`
		} `json:"projects"`
		Pagination struct {
			TotalCount int64 `json:"totalCount"`
			TotalPages int64 `json:"totalPages"`
			Skip       int64 `json:"skip"`
		} `json:"pagination"`
	}
	rec.DecodeJSON(t, &resp)
	if len(resp.Projects) != 1 {
		t.Fatalf("page 2 rows = %d, want 1", len(resp.Projects))
	}
	if resp.Projects[0].CreatedBy.Name != "Owner" {
		t.Errorf("creator = %q", resp.Projects[0].CreatedBy.Name)
	}
	if resp.Pagination.TotalCount != 3 || resp.Pagination.TotalPages != 2 || resp.Pagination.Skip != 2 {
		t.Errorf("pagination = %+v", resp.Pagination)
	}
}

func TestServeOne_WrongWorkspace(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	elsewhere := e.fx.CreateWorkspace(ctx, "Elsewhere", e.owner.ID)
	p := e.fx.CreateProject(ctx, elsewhere.ID, e.owner.ID, "Foreign")

	rec := testutil.NewRecorder()
	e.h.ServeOne(rec, e.req("GET", nil, e.owner, "id", p.ID.Hex()))
	rec.AssertStatus(t, http.StatusNotFound)
	rec.AssertContains(t, "Project not found or does not belong to the specified workspace")
}

func TestServeAnalytics(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fx.CreateProject(ctx, e.ws.ID, e.owner.ID, "Stats")
	past := time.Now().Add(-48 * time.Hour)
	future := time.Now().Add(48 * time.Hour)
	e.fx.CreateTask(ctx, p, "overdue", models.TaskTodo, &past)
	e.fx.CreateTask(ctx, p, "done late", models.TaskDone, &past)
	e.fx.CreateTask(ctx, p, "upcoming", models.TaskInProgress, &future)

	rec := testutil.NewRecorder()
	e.h.ServeAnalytics(rec, e.req("GET", nil, e.member, "id", p.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	var resp struct {
		Analytics struct {
			TotalTasks     int64 `json:"totalTasks"`
			OverdueTasks   int64 `json:"overdueTasks"`
			CompletedTasks int64 `json:"completedTasks"`
		} `json:"analytics"`
	}
	rec.DecodeJSON(t, &resp)
	if resp.Analytics.TotalTasks != 3 || resp.Analytics.OverdueTasks != 1 || resp.Analytics.CompletedTasks != 1 {
		t.Errorf("analytics = %+v, want 3/1/1", resp.Analytics)
	}
}

func TestHandleUpdate(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fx.CreateProject(ctx, e.ws.ID, e.owner.ID, "Before")

	rec := testutil.NewRecorder()
	e.h.HandleUpdate(rec, e.req("PUT", map[string]string{"name": "After", "emoji": "🚀"}, e.owner, "id", p.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, `"name":"After"`)
	rec.AssertContains(t, "🚀")

	forbidden := testutil.NewRecorder()
	e.h.HandleUpdate(forbidden, e.req("PUT", map[string]string{"name": "X"}, e.member, "id", p.ID.Hex()))
	forbidden.AssertStatus(t, http.StatusForbidden)
}

func TestHandleDelete_CascadesTasks(t *testing.T) {
	e := setup(t)
	testutil.RequireTransactions(t, e.fx.DB())
	ctx, cancel := testutil.TestContext()
	defer cancel()
	p := e.fx.CreateProject(ctx, e.ws.ID, e.owner.ID, "Doomed")
	keep := e.fx.CreateProject(ctx, e.ws.ID, e.owner.ID, "Kept")
	e.fx.CreateTask(ctx, p, "one", models.TaskTodo, nil)
	e.fx.CreateTask(ctx, p, "two", models.TaskTodo, nil)
	e.fx.CreateTask(ctx, keep, "three", models.TaskTodo, nil)

	rec := testutil.NewRecorder()
	e.h.HandleDelete(rec, e.req("DELETE", nil, e.owner, "id", p.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Project deleted successfully")

	tasks := e.fx.DB().Collection("tasks")
	if n, _ := tasks.CountDocuments(ctx, bson.M{"project": p.ID}); n != 0 {
		t.Errorf("tasks left in deleted project = %d", n)
	}
	if n, _ := tasks.CountDocuments(ctx, bson.M{"project": keep.ID}); n != 1 {
		t.Errorf("tasks in other project = %d, want 1", n)
	}

	again := testutil.NewRecorder()
	e.h.HandleDelete(again, e.req("DELETE", nil, e.owner, "id", p.ID.Hex()))
	again.AssertStatus(t, http.StatusNotFound)
}
