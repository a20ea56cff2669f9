package userstore

import (
	"context"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/timeouts"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fetcher loads the user named by an access token on each request. It
// implements auth.UserLoader and rejects deactivated users.
type Fetcher struct {
	store *Store
}

// NewFetcher creates a Fetcher over the given database.
func NewFetcher(db *mongo.Database) *Fetcher {
	return &Fetcher{store: New(db)}
}

// GetByID returns the active user with id, or an error.
func (f *Fetcher) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.store.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !u.IsActive {
		return nil, ErrNotFound
	}
	return u, nil
}
