package tasks_test

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/features/tasks"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"github.com/ag863k/Flowmatic-pm/internal/testutil"
	"go.uber.org/zap"
)

type env struct {
	h      *tasks.Handler
	fx     *testutil.Fixtures
	owner  models.User
	member models.User
	ws     models.Workspace
	p      models.Project
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
	p := fx.CreateProject(ctx, ws.ID, owner.ID, "Roadmap")

	return env{h: tasks.NewHandler(db, zap.NewNop()), fx: fx, owner: owner, member: member, ws: ws, p: p}
}

func (e env) req(method string, body any, u models.User, kv ...string) *http.Request {
	r := testutil.NewAuthenticatedRequest(method, "/", body, u)
	return testutil.WithChiURLParams(r, append([]string{"workspaceId", e.ws.ID.Hex(), "projectId", e.p.ID.Hex()}, kv...)...)
}

type taskBody struct {
	Task struct {
		ID         string  `json:"_id"`
		TaskCode   string  `json:"taskCode"`
		Title      string  `json:"title"`
		Status     string  `json:"status"`
		Priority   string  `json:"priority"`
		AssignedTo *string `json:"assignedTo"`
		DueDate    *string `json:"dueDate"`
	} `json:"task"`
}

func TestHandleCreate(t *testing.T) {
	e := setup(t)

	rec := testutil.NewRecorder()
	e.h.HandleCreate(rec, e.req("POST", map[string]any{
		"title":      "Write docs",
		"priority":   "high",
		"assignedTo": e.member.ID.Hex(),
		"dueDate":    "2030-01-15",
	}, e.member))
	rec.AssertStatus(t, http.StatusCreated)

	var resp taskBody
	rec.DecodeJSON(t, &resp)
	if resp.Task.Status != models.TaskTodo || resp.Task.Priority != models.PriorityHigh {
		t.Errorf("status/priority = %s/%s", resp.Task.Status, resp.Task.Priority)
	}
	if resp.Task.TaskCode == "" {
		t.Error("task code should be generated")
	}
	if resp.Task.AssignedTo == nil || *resp.Task.AssignedTo != e.member.ID.Hex() {
		t.Errorf("assignedTo = %v", resp.Task.AssignedTo)
	}
}

func TestHandleCreate_Rejects(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	outsider := e.fx.CreateUser(ctx, "Out", "out@example.com")
	elsewhere := e.fx.CreateWorkspace(ctx, "Elsewhere", e.owner.ID)
	foreign := e.fx.CreateProject(ctx, elsewhere.ID, e.owner.ID, "Foreign")

	tests := []struct {
		name   string
		body   map[string]any
		extra  []string
		status int
		want   string
	}{
		{"missing title", map[string]any{"title": ""}, nil, http.StatusBadRequest, "title is required"},
		{"bad status", map[string]any{"title": "x", "status": "SOMEDAY"}, nil, http.StatusBadRequest, "Invalid task status or priority"},
		{"assignee outside workspace", map[string]any{"title": "x", "assignedTo": outsider.ID.Hex()}, nil, http.StatusBadRequest, "not a member of this workspace"},
		{"bad due date", map[string]any{"title": "x", "dueDate": "soon"}, nil, http.StatusBadRequest, "Invalid dueDate"},
		{"project in another workspace", map[string]any{"title": "x"}, []string{"projectId", foreign.ID.Hex()}, http.StatusNotFound, "Project not found or does not belong to this workspace"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testutil.NewRecorder()
			e.h.HandleCreate(rec, e.req("POST", tt.body, e.owner, tt.extra...))
			rec.AssertStatus(t, tt.status)
			rec.AssertContains(t, tt.want)
		})
	}
}

func TestServeAll_Filters(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	other := e.fx.CreateProject(ctx, e.ws.ID, e.owner.ID, "Other")
	e.fx.CreateTask(ctx, e.p, "Fix login bug", models.TaskTodo, nil)
	e.fx.CreateTask(ctx, e.p, "Ship release", models.TaskDone, nil)
	e.fx.CreateTask(ctx, other, "Login page copy", models.TaskInProgress, nil)

	tests := []struct {
		name  string
		query url.Values
		want  int64
	}{
		{"all", nil, 3},
		{"by project", url.Values{"projectId": {e.p.ID.Hex()}}, 2},
		{"by status list", url.Values{"status": {"todo,IN_PROGRESS"}}, 2},
		{"by keyword", url.Values{"keyword": {"LOGIN"}}, 2},
		{"keyword is literal", url.Values{"keyword": {".*"}}, 0},
		{"combined", url.Values{"keyword": {"login"}, "projectId": {other.ID.Hex()}}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := e.req("GET", nil, e.member)
			r.URL.RawQuery = tt.query.Encode()

			rec := testutil.NewRecorder()
			e.h.ServeAll(rec, r)
			rec.AssertStatus(t, http.StatusOK)

			var resp struct {
				Tasks []struct {
					Project struct {
						Name string `json:"name"`
					} `json:"project"`
				} `json:"tasks"`
				Pagination struct {
					TotalCount int64 `json:"totalCount"`
				} `json:"pagination"`
			}
			rec.DecodeJSON(t, &resp)
			if resp.Pagination.TotalCount != tt.want || int64(len(resp.Tasks)) != tt.want {
				t.Errorf("got %d rows / total %d, want %d", len(resp.Tasks), resp.Pagination.TotalCount, tt.want)
			}
			for _, row := range resp.Tasks {
				if row.Project.Name == "" {
					t.Error("project should be joined")
				}
			}
		})
	}
}

func TestServeOne(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	tk := e.fx.CreateTask(ctx, e.p, "Look me up", models.TaskTodo, nil)

	rec := testutil.NewRecorder()
	e.h.ServeOne(rec, e.req("GET", nil, e.member, "id", tk.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)
	rec.AssertContains(t, "Look me up")

	other := e.fx.CreateProject(ctx, e.ws.ID, e.owner.ID, "Other")
	wrong := testutil.NewRecorder()
	e.h.ServeOne(wrong, e.req("GET", nil, e.member, "id", tk.ID.Hex(), "projectId", other.ID.Hex()))
	wrong.AssertStatus(t, http.StatusNotFound)
}

func TestHandleUpdate(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	due := time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC)
	tk := e.fx.CreateTask(ctx, e.p, "Draft", models.TaskTodo, &due)

	rec := testutil.NewRecorder()
	e.h.HandleUpdate(rec, e.req("PUT", map[string]any{
		"status":  "in_review",
		"dueDate": nil,
	}, e.member, "id", tk.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	var resp taskBody
	rec.DecodeJSON(t, &resp)
	if resp.Task.Status != models.TaskInReview {
		t.Errorf("status = %q", resp.Task.Status)
	}
	if resp.Task.Title != "Draft" {
		t.Errorf("absent title should be kept, got %q", resp.Task.Title)
	}
	if resp.Task.DueDate != nil {
		t.Errorf("dueDate should be cleared, got %v", *resp.Task.DueDate)
	}

	other := e.fx.CreateProject(ctx, e.ws.ID, e.owner.ID, "Other")
	missing := testutil.NewRecorder()
	e.h.HandleUpdate(missing, e.req("PUT", map[string]any{"title": "x"}, e.member, "id", tk.ID.Hex(), "projectId", other.ID.Hex()))
	missing.AssertStatus(t, http.StatusNotFound)
	missing.AssertContains(t, "Task not found or does not belong to this project")
}

func TestHandleDelete(t *testing.T) {
	e := setup(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()
	tk := e.fx.CreateTask(ctx, e.p, "Remove me", models.TaskTodo, nil)

	forbidden := testutil.NewRecorder()
	e.h.HandleDelete(forbidden, e.req("DELETE", nil, e.member, "id", tk.ID.Hex()))
	forbidden.AssertStatus(t, http.StatusForbidden)

	rec := testutil.NewRecorder()
	e.h.HandleDelete(rec, e.req("DELETE", nil, e.owner, "id", tk.ID.Hex()))
	rec.AssertStatus(t, http.StatusOK)

	again := testutil.NewRecorder()
	e.h.HandleDelete(again, e.req("DELETE", nil, e.owner, "id", tk.ID.Hex()))
	again.AssertStatus(t, http.StatusNotFound)
}
