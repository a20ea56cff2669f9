package oauthstate_test

import (
	"testing"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/store/oauthstate"
	"github.com/ag863k/Flowmatic-pm/internal/testutil"
)

func TestStore_SaveAndConsume(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if err := store.Save(ctx, "state-1", "/workspace", time.Now().Add(10*time.Minute)); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	ret, valid, err := store.Consume(ctx, "state-1")
	if err != nil {
		t.Fatalf("Consume failed: %v", err)
	}
	if !valid || ret != "/workspace" {
		t.Errorf("Consume = %q, %v", ret, valid)
	}

	// One-time use.
	_, valid, err = store.Consume(ctx, "state-1")
	if err != nil || valid {
		t.Errorf("second Consume = %v, %v; want invalid", valid, err)
	}
}

func TestStore_Consume_Expired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_ = store.Save(ctx, "old", "", time.Now().Add(-time.Minute))

	_, valid, err := store.Consume(ctx, "old")
	if err != nil || valid {
		t.Errorf("Consume(expired) = %v, %v; want invalid", valid, err)
	}
}

func TestStore_Consume_Unknown(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_, valid, err := store.Consume(ctx, "never-saved")
	if err != nil || valid {
		t.Errorf("Consume(unknown) = %v, %v", valid, err)
	}
}

func TestStore_CleanupExpired(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := oauthstate.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	_ = store.Save(ctx, "expired-1", "", time.Now().Add(-time.Hour))
	_ = store.Save(ctx, "expired-2", "", time.Now().Add(-time.Minute))
	_ = store.Save(ctx, "fresh", "", time.Now().Add(time.Hour))

	n, err := store.CleanupExpired(ctx)
	if err != nil {
		t.Fatalf("CleanupExpired failed: %v", err)
	}
	if n != 2 {
		t.Errorf("deleted = %d, want 2", n)
	}
	if _, valid, _ := store.Consume(ctx, "fresh"); !valid {
		t.Error("fresh state should survive cleanup")
	}
}
