package accountstore_test

import (
	"testing"

	accountstore "github.com/ag863k/Flowmatic-pm/internal/app/store/accounts"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"github.com/ag863k/Flowmatic-pm/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestStore_CreateAndGet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	created, err := store.Create(ctx, uid, "email", "a@example.com")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.Provider != models.ProviderEmail {
		t.Errorf("Provider = %q, want %q", created.Provider, models.ProviderEmail)
	}

	found, err := store.GetByProvider(ctx, models.ProviderEmail, "a@example.com")
	if err != nil {
		t.Fatalf("GetByProvider failed: %v", err)
	}
	if found.UserID != uid {
		t.Errorf("UserID = %v, want %v", found.UserID, uid)
	}

	if _, err := store.GetByProvider(ctx, models.ProviderGoogle, "a@example.com"); err != accountstore.ErrNotFound {
		t.Errorf("other provider: err = %v, want ErrNotFound", err)
	}
}

func TestStore_Create_Duplicate(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	if _, err := store.Create(ctx, primitive.NewObjectID(), models.ProviderGoogle, "sub-1"); err != nil {
		t.Fatalf("first Create failed: %v", err)
	}
	_, err := store.Create(ctx, primitive.NewObjectID(), models.ProviderGoogle, "sub-1")
	if err != accountstore.ErrDuplicate {
		t.Errorf("err = %v, want ErrDuplicate", err)
	}
}

func TestStore_ExistsForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	store := accountstore.New(db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	uid := primitive.NewObjectID()
	_, _ = store.Create(ctx, uid, models.ProviderEmail, "a@example.com")

	ok, err := store.ExistsForUser(ctx, uid, models.ProviderEmail)
	if err != nil || !ok {
		t.Errorf("EMAIL: ok=%v err=%v", ok, err)
	}
	ok, err = store.ExistsForUser(ctx, uid, models.ProviderGoogle)
	if err != nil || ok {
		t.Errorf("GOOGLE: ok=%v err=%v", ok, err)
	}

	list, err := store.ListByUser(ctx, uid)
	if err != nil || len(list) != 1 {
		t.Errorf("ListByUser: %d accounts, err=%v", len(list), err)
	}
}
