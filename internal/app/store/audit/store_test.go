package audit_test

import (
	"testing"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/store/audit"
	"github.com/ag863k/Flowmatic-pm/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_LogAndQuery(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := audit.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	userID := primitive.NewObjectID()
	wsID := primitive.NewObjectID()

	if err := store.Log(ctx, audit.Event{
		Category:  audit.CategoryAuth,
		EventType: audit.EventLoginSuccess,
		UserID:    &userID,
		IP:        "192.168.1.1",
		Success:   true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}
	if err := store.Log(ctx, audit.Event{
		Category:    audit.CategoryMembership,
		EventType:   audit.EventMemberJoined,
		UserID:      &userID,
		WorkspaceID: &wsID,
		Success:     true,
	}); err != nil {
		t.Fatalf("Log failed: %v", err)
	}

	events, err := store.Query(ctx, audit.QueryFilter{UserID: &userID})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].EventType != audit.EventMemberJoined {
		t.Errorf("expected newest first, got %s", events[0].EventType)
	}
	if events[1].CreatedAt.IsZero() {
		t.Error("expected CreatedAt to be set")
	}

	n, err := store.Count(ctx, audit.QueryFilter{WorkspaceID: &wsID})
	if err != nil || n != 1 {
		t.Errorf("Count(workspace) = %d, %v", n, err)
	}

	future := time.Now().Add(time.Hour)
	n, _ = store.Count(ctx, audit.QueryFilter{Since: &future})
	if n != 0 {
		t.Errorf("Count(since future) = %d, want 0", n)
	}
}
