// internal/app/store/memberships/membershipstore.go
package membershipstore

// Terminology: User Identifiers
//   - UserID / userID / user_id: the users._id of the member
//   - MemberUserID: the users._id of a member acted on by someone else

import (
	"context"
	"errors"
	"time"

	"github.com/ag863k/Flowmatic-pm/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	ErrDuplicateMembership = errors.New("user is already a member of this workspace")
	ErrNotFound            = errors.New("membership not found")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("members")}
}

// Add creates a membership. ErrDuplicateMembership is returned when the
// (user, workspace) pair already exists.
func (s *Store) Add(ctx context.Context, userID, workspaceID, roleID primitive.ObjectID) (models.Member, error) {
	m := models.Member{
		ID:          primitive.NewObjectID(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		Role:        roleID,
		JoinedAt:    time.Now().UTC(),
	}
	if _, err := s.c.InsertOne(ctx, m); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateMembership
		}
		return models.Member{}, err
	}
	return m, nil
}

// Get loads the membership of userID in workspaceID.
func (s *Store) Get(ctx context.Context, userID, workspaceID primitive.ObjectID) (models.Member, error) {
	var m models.Member
	err := s.c.FindOne(ctx, bson.M{"user_id": userID, "workspace_id": workspaceID}).Decode(&m)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Member{}, ErrNotFound
		}
		return models.Member{}, err
	}
	return m, nil
}

// Exists reports whether userID is a member of workspaceID.
func (s *Store) Exists(ctx context.Context, userID, workspaceID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx,
		bson.M{"user_id": userID, "workspace_id": workspaceID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FirstForUser returns the earliest-joined membership of userID, skipping the
// workspace in exclude (pass NilObjectID to skip none).
func (s *Store) FirstForUser(ctx context.Context, userID, exclude primitive.ObjectID) (models.Member, error) {
	filter := bson.M{"user_id": userID}
	if exclude != primitive.NilObjectID {
		filter["workspace_id"] = bson.M{"$ne": exclude}
	}
	opts := options.FindOne().SetSort(bson.D{{Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}})

	var m models.Member
	if err := s.c.FindOne(ctx, filter, opts).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Member{}, ErrNotFound
		}
		return models.Member{}, err
	}
	return m, nil
}

// Remove deletes the membership of userID in workspaceID.
func (s *Store) Remove(ctx context.Context, userID, workspaceID primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"user_id": userID, "workspace_id": workspaceID})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetRole changes the role reference of a membership.
func (s *Store) SetRole(ctx context.Context, userID, workspaceID, roleID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"user_id": userID, "workspace_id": workspaceID},
		bson.M{"$set": bson.M{"role": roleID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// WorkspaceIDsForUser lists the workspaces userID belongs to.
func (s *Store) WorkspaceIDsForUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	cur, err := s.c.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetProjection(bson.M{"workspace_id": 1}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var ids []primitive.ObjectID
	for cur.Next(ctx) {
		var row struct {
			WorkspaceID primitive.ObjectID `bson:"workspace_id"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		ids = append(ids, row.WorkspaceID)
	}
	return ids, cur.Err()
}

// MemberUser is the public subset of a user shown in member listings.
type MemberUser struct {
	ID             primitive.ObjectID `bson:"_id" json:"_id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	ProfilePicture *string            `bson:"profile_picture,omitempty" json:"profilePicture"`
}

// MemberRole is the role subset shown in member listings.
type MemberRole struct {
	ID   primitive.ObjectID `bson:"_id" json:"_id"`
	Name string             `bson:"name" json:"name"`
}

// MemberRow is one joined member listing entry. User or Role is nil when the
// referenced document no longer exists.
type MemberRow struct {
	ID          primitive.ObjectID `bson:"_id" json:"_id"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspaceId"`
	JoinedAt    time.Time          `bson:"joined_at" json:"joinedAt"`
	User        *MemberUser        `bson:"user" json:"userId"`
	Role        *MemberRole        `bson:"role" json:"role"`
}

// ListWithUsers returns the workspace's members joined with their user and
// role documents, oldest first.
func (s *Store) ListWithUsers(ctx context.Context, workspaceID primitive.ObjectID) ([]MemberRow, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"workspace_id": workspaceID}}},
		{{Key: "$sort", Value: bson.D{{Key: "joined_at", Value: 1}, {Key: "_id", Value: 1}}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "users",
			"localField":   "user_id",
			"foreignField": "_id",
			"as":           "user",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"name": 1, "email": 1, "profile_picture": 1}},
			},
		}}},
		{{Key: "$lookup", Value: bson.M{
			"from":         "roles",
			"localField":   "role",
			"foreignField": "_id",
			"as":           "role",
			"pipeline": bson.A{
				bson.M{"$project": bson.M{"name": 1}},
			},
		}}},
		{{Key: "$set", Value: bson.M{
			"user": bson.M{"$arrayElemAt": bson.A{"$user", 0}},
			"role": bson.M{"$arrayElemAt": bson.A{"$role", 0}},
		}}},
	}

	cur, err := s.c.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := []MemberRow{}
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountByRole counts the workspace's members holding roleID.
func (s *Store) CountByRole(ctx context.Context, workspaceID, roleID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"workspace_id": workspaceID, "role": roleID})
}
