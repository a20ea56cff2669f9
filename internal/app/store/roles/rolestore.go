// internal/app/store/roles/rolestore.go
package rolestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/authz"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("role not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("roles")}
}

// EnsureSeeded inserts every catalog role that is missing. Existing roles are
// left untouched, so running it again (or from several processes at once) is
// safe. It returns how many roles were inserted.
func (s *Store) EnsureSeeded(ctx context.Context) (int, error) {
	inserted := 0
	for _, name := range authz.RoleNames() {
		ok, err := s.upsertRole(ctx, name)
		if err != nil {
			return inserted, fmt.Errorf("seed role %s: %w", name, err)
		}
		if ok {
			inserted++
		}
	}
	return inserted, nil
}

func (s *Store) upsertRole(ctx context.Context, name string) (bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"name": name}
	update := bson.M{"$setOnInsert": bson.M{
		"name":        name,
		"permissions": authz.PermissionsFor(name),
		"created_at":  now,
		"updated_at":  now,
	}}
	opts := options.Update().SetUpsert(true)

	res, err := s.c.UpdateOne(ctx, filter, update, opts)
	if err != nil && wafflemongo.IsDup(err) {
		// Another seeder inserted the same name between our match and insert.
		// The retry matches the existing row and is a no-op.
		res, err = s.c.UpdateOne(ctx, filter, update, opts)
	}
	if err != nil {
		return false, err
	}
	return res.UpsertedCount > 0, nil
}

// GetByName loads a role by its name.
func (s *Store) GetByName(ctx context.Context, name string) (models.Role, error) {
	var r models.Role
	if err := s.c.FindOne(ctx, bson.M{"name": name}).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Role{}, ErrNotFound
		}
		return models.Role{}, err
	}
	return r, nil
}

// GetByID loads a role by its ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Role, error) {
	var r models.Role
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&r); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Role{}, ErrNotFound
		}
		return models.Role{}, err
	}
	return r, nil
}

// List returns every stored role.
func (s *Store) List(ctx context.Context) ([]models.Role, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Role
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
