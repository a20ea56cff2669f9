package indexes_test

import (
	"context"
	"testing"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/indexes"
	"github.com/ag863k/Flowmatic-pm/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

func indexNames(t *testing.T, ctx context.Context, db *mongo.Database, coll string) map[string]bool {
	t.Helper()
	cur, err := db.Collection(coll).Indexes().List(ctx)
	if err != nil {
		t.Fatalf("List indexes failed: %v", err)
	}
	defer cur.Close(ctx)

	names := make(map[string]bool)
	for cur.Next(ctx) {
		var idx bson.M
		if err := cur.Decode(&idx); err != nil {
			continue
		}
		if name, ok := idx["name"].(string); ok {
			names[name] = true
		}
	}
	return names
}

func TestEnsureAll_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	// SetupTestDB already ran EnsureAll once.
	if err := indexes.EnsureAll(ctx, db); err != nil {
		t.Fatalf("second EnsureAll failed: %v", err)
	}
}

func TestEnsureAll_CreatesUniqueIndexes(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	expected := map[string][]string{
		"users":        {"uniq_users_email"},
		"accounts":     {"uniq_accounts_provider_providerid", "idx_accounts_user_provider"},
		"workspaces":   {"uniq_workspaces_invitecode"},
		"roles":        {"uniq_roles_name"},
		"members":      {"uniq_members_user_workspace", "idx_members_workspace_joined"},
		"tasks":        {"uniq_tasks_taskcode"},
		"oauth_states": {"uniq_oauth_state", "idx_oauth_ttl"},
	}

	for coll, want := range expected {
		names := indexNames(t, ctx, db, coll)
		for _, n := range want {
			if !names[n] {
				t.Errorf("expected index %q on %s", n, coll)
			}
		}
	}
}

func TestEnsureAll_RejectsDuplicateEmail(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	users := db.Collection("users")
	if _, err := users.InsertOne(ctx, bson.M{"email": "dup@example.com"}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if _, err := users.InsertOne(ctx, bson.M{"email": "dup@example.com"}); !mongo.IsDuplicateKeyError(err) {
		t.Errorf("expected duplicate key error, got %v", err)
	}
	// Case is significant.
	if _, err := users.InsertOne(ctx, bson.M{"email": "Dup@example.com"}); err != nil {
		t.Errorf("expected distinct-case email to insert, got %v", err)
	}
}
