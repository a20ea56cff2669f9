// internal/app/store/accounts/accountstore.go
package accountstore

import (
	"context"
	"errors"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/normalize"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound = errors.New("account not found")
	// ErrDuplicate means the (provider, provider_id) pair is already linked.
	ErrDuplicate = errors.New("account already exists for this provider identity")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("accounts")}
}

// Create links a login method to a user.
func (s *Store) Create(ctx context.Context, userID primitive.ObjectID, provider, providerID string) (models.Account, error) {
	a := models.Account{
		ID:         primitive.NewObjectID(),
		UserID:     userID,
		Provider:   normalize.Provider(provider),
		ProviderID: providerID,
		CreatedAt:  time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, a); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Account{}, ErrDuplicate
		}
		return models.Account{}, err
	}
	return a, nil
}

// GetByProvider finds the account for a provider identity.
func (s *Store) GetByProvider(ctx context.Context, provider, providerID string) (*models.Account, error) {
	var a models.Account
	err := s.c.FindOne(ctx, bson.M{
		"provider":    normalize.Provider(provider),
		"provider_id": providerID,
	}).Decode(&a)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// ExistsForUser reports whether userID has an account with provider.
func (s *Store) ExistsForUser(ctx context.Context, userID primitive.ObjectID, provider string) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{
		"user_id":  userID,
		"provider": normalize.Provider(provider),
	})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// ListByUser returns every account linked to userID.
func (s *Store) ListByUser(ctx context.Context, userID primitive.ObjectID) ([]models.Account, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Account
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
