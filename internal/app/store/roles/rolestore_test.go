package rolestore_test

import (
	"sync"
	"testing"

	rolestore "github.com/ag863k/Flowmatic-pm/internal/app/store/roles"
	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestEnsureSeeded_Empty(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	n, err := store.EnsureSeeded(ctx)
	if err != nil {
		t.Fatalf("EnsureSeeded failed: %v", err)
	}
	if n != 3 {
		t.Errorf("inserted = %d, want 3", n)
	}

	for _, name := range authz.RoleNames() {
		r, err := store.GetByName(ctx, name)
		if err != nil {
			t.Fatalf("GetByName(%s): %v", name, err)
		}
		if len(r.Permissions) != len(authz.PermissionsFor(name)) {
			t.Errorf("%s permissions = %v", name, r.Permissions)
		}
	}
}

func TestEnsureSeeded_Idempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.EnsureSeeded(ctx); err != nil {
		t.Fatalf("first EnsureSeeded failed: %v", err)
	}
	owner, _ := store.GetByName(ctx, authz.RoleOwner)

	n, err := store.EnsureSeeded(ctx)
	if err != nil {
		t.Fatalf("second EnsureSeeded failed: %v", err)
	}
	if n != 0 {
		t.Errorf("second run inserted %d roles", n)
	}

	// Ids are stable so member role references stay valid.
	again, _ := store.GetByName(ctx, authz.RoleOwner)
	if again.ID != owner.ID {
		t.Errorf("OWNER id changed: %v -> %v", owner.ID, again.ID)
	}

	count, _ := db.Collection("roles").CountDocuments(ctx, bson.M{})
	if count != 3 {
		t.Errorf("roles count = %d, want 3", count)
	}
}

func TestEnsureSeeded_Concurrent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.EnsureSeeded(ctx); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent EnsureSeeded: %v", err)
	}

	for _, name := range authz.RoleNames() {
		n, _ := db.Collection("roles").CountDocuments(ctx, bson.M{"name": name})
		if n != 1 {
			t.Errorf("role %s count = %d, want 1", name, n)
		}
	}
}

func TestGetByID_NotFound(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := rolestore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.GetByID(ctx, primitive.NewObjectID()); err != rolestore.ErrNotFound {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
