package userstore

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
	// ErrDuplicateEmail is returned when a user with the same email exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	ErrNotFound       = errors.New("user not found")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by exact email (surrounding whitespace ignored).
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. Name and email are normalized, the id and
// timestamps assigned and IsActive set.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.Name = normalize.Name(u.Name)
	u.Email = normalize.Email(u.Email)
	u.IsActive = true

	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// SetCurrentWorkspace points the user at wsID. A nil wsID clears the field.
func (s *Store) SetCurrentWorkspace(ctx context.Context, id primitive.ObjectID, wsID *primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if wsID == nil {
		update["$unset"] = bson.M{"current_workspace": ""}
	} else {
		update["$set"].(bson.M)["current_workspace"] = *wsID
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful sign-in.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login": time.Now().UTC()}})
	return err
}

// UpdateProfile sets the display name and picture when non-empty.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, name, picture string) error {
	set := bson.M{"updated_at": time.Now().UTC()}
	if n := normalize.Name(name); n != "" {
		set["name"] = n
	}
	if picture != "" {
		set["profile_picture"] = picture
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	return err
}
