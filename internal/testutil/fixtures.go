package testutil

import (
	"context"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// WithChiURLParams adds chi URL parameters (key, value pairs) to the request
// context. Use this in handler tests that call handlers directly.
func WithChiURLParams(r *http.Request, kv ...string) *http.Request {
	rctx := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rctx.URLParams.Add(kv[i], kv[i+1])
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// SeedRoles upserts the catalog roles and returns them keyed by name.
func (f *Fixtures) SeedRoles(ctx context.Context) map[string]models.Role {
	f.t.Helper()

	out := make(map[string]models.Role, 3)
	for _, name := range authz.RoleNames() {
		now := time.Now().UTC()
		var r models.Role
		err := f.db.Collection("roles").FindOneAndUpdate(ctx,
			bson.M{"name": name},
			bson.M{"$setOnInsert": bson.M{
				"name":        name,
				"permissions": authz.PermissionsFor(name),
				"created_at":  now,
				"updated_at":  now,
			}},
			options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
		).Decode(&r)
		if err != nil {
			f.t.Fatalf("failed to seed role %s: %v", name, err)
		}
		out[name] = r
	}
	return out
}

// CreateUser inserts a user without any account or membership.
func (f *Fixtures) CreateUser(ctx context.Context, name, email string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	u := models.User{
		ID:        primitive.NewObjectID(),
		Name:      name,
		Email:     email,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return u
}

// CreateWorkspace inserts a workspace owned by owner.
func (f *Fixtures) CreateWorkspace(ctx context.Context, name string, owner primitive.ObjectID) models.Workspace {
	f.t.Helper()

	now := time.Now().UTC()
	ws := models.Workspace{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		Description: "Test workspace",
		Owner:       owner,
		InviteCode:  strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("workspaces").InsertOne(ctx, ws); err != nil {
		f.t.Fatalf("failed to create test workspace: %v", err)
	}
	return ws
}

// AddMember inserts a membership row with the given role id.
func (f *Fixtures) AddMember(ctx context.Context, userID, workspaceID, roleID primitive.ObjectID) models.Member {
	f.t.Helper()

	m := models.Member{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        roleID,
		JoinedAt:    time.Now().UTC(),
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("failed to add test member: %v", err)
	}
	return m
}

// SetCurrentWorkspace points the user's current workspace at wsID.
func (f *Fixtures) SetCurrentWorkspace(ctx context.Context, userID, wsID primitive.ObjectID) {
	f.t.Helper()
	_, err := f.db.Collection("users").UpdateByID(ctx, userID, bson.M{"$set": bson.M{"current_workspace": wsID}})
	if err != nil {
		f.t.Fatalf("failed to set current workspace: %v", err)
	}
}

// WorkspaceWithOwner creates a user, a workspace they own and the OWNER
// membership. Roles must be seeded first.
func (f *Fixtures) WorkspaceWithOwner(ctx context.Context, roles map[string]models.Role, ownerName, ownerEmail string) (models.User, models.Workspace) {
	f.t.Helper()

	u := f.CreateUser(ctx, ownerName, ownerEmail)
	ws := f.CreateWorkspace(ctx, ownerName+"'s Workspace", u.ID)
	f.AddMember(ctx, u.ID, ws.ID, roles[authz.RoleOwner].ID)
	f.SetCurrentWorkspace(ctx, u.ID, ws.ID)
	cw := ws.ID
	u.CurrentWorkspace = &cw
	return u, ws
}

// CreateProject inserts a project in wsID.
func (f *Fixtures) CreateProject(ctx context.Context, wsID, createdBy primitive.ObjectID, name string) models.Project {
	f.t.Helper()

	now := time.Now().UTC()
	p := models.Project{
		ID:        primitive.NewObjectID(),
		Emoji:     models.DefaultProjectEmoji,
		Name:      name,
		Workspace: wsID,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("projects").InsertOne(ctx, p); err != nil {
		f.t.Fatalf("failed to create test project: %v", err)
	}
	return p
}

// CreateTask inserts a task in project p with the given status and due date.
func (f *Fixtures) CreateTask(ctx context.Context, p models.Project, title, status string, due *time.Time) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	tk := models.Task{
		ID:        primitive.NewObjectID(),
		TaskCode:  "task-" + strings.ReplaceAll(uuid.NewString(), "-", "")[:8],
		Title:     title,
		Project:   p.ID,
		Workspace: p.Workspace,
		Status:    status,
		Priority:  models.PriorityMedium,
		CreatedBy: p.CreatedBy,
		DueDate:   due,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, tk); err != nil {
		f.t.Fatalf("failed to create test task: %v", err)
	}
	return tk
}
