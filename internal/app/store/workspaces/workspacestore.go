// internal/app/store/workspaces/workspacestore.go
package workspacestore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/app/system/normalize"
	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var (
	ErrDuplicateInviteCode = errors.New("a workspace with this invite code already exists")
	ErrNotFound            = errors.New("workspace not found")
)

// inviteRetries bounds regeneration after an invite-code collision.
const inviteRetries = 3

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("workspaces")}
}

// NewInviteCode returns a fresh 8-character code derived from a random UUID.
func NewInviteCode() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
}

var newInviteCode = NewInviteCode

// Create inserts a new workspace. An empty InviteCode is generated; on a
// collision with a generated code a new one is drawn. Inside a transaction
// the collision has already aborted it server-side, so Create returns
// ErrDuplicateInviteCode at once and the caller reruns the transaction.
func (s *Store) Create(ctx context.Context, ws models.Workspace) (models.Workspace, error) {
	now := time.Now().UTC()
	ws.ID = primitive.NewObjectID()
	ws.Name = normalize.Name(ws.Name)
	ws.NameCI = text.Fold(ws.Name)
	ws.Description = normalize.Text(ws.Description)
	ws.CreatedAt = now
	ws.UpdatedAt = now

	generated := ws.InviteCode == ""
	inTxn := mongo.SessionFromContext(ctx) != nil
	for attempt := 0; ; attempt++ {
		if generated {
			ws.InviteCode = newInviteCode()
		}
		_, err := s.c.InsertOne(ctx, ws)
		if err == nil {
			return ws, nil
		}
		if !wafflemongo.IsDup(err) {
			return models.Workspace{}, err
		}
		if !generated || inTxn || attempt+1 >= inviteRetries {
			return models.Workspace{}, ErrDuplicateInviteCode
		}
	}
}

// GetByID retrieves a workspace by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// GetByInviteCode retrieves the workspace with the given invite code.
func (s *Store) GetByInviteCode(ctx context.Context, code string) (models.Workspace, error) {
	var ws models.Workspace
	err := s.c.FindOne(ctx, bson.M{"invite_code": normalize.InviteCode(code)}).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}

// Exists reports whether a workspace with id exists.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByIDs returns the workspaces with the given ids, sorted by name.
func (s *Store) FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]models.Workspace, error) {
	if len(ids) == 0 {
		return []models.Workspace{}, nil
	}
	opts := options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []models.Workspace{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update sets the name and description when non-empty and returns the
// updated workspace.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, name, description string) (models.Workspace, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if n := normalize.Name(name); n != "" {
		set["name"] = n
		set["name_ci"] = text.Fold(n)
	}
	if d := normalize.Text(description); d != "" {
		set["description"] = d
	}

	var ws models.Workspace
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&ws)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Workspace{}, ErrNotFound
		}
		return models.Workspace{}, err
	}
	return ws, nil
}
