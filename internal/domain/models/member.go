package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Member is the authoritative join between users and workspaces.
// Exactly one document per (user_id, workspace_id); Role references roles._id.
type Member struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"userId"`
	WorkspaceID primitive.ObjectID `bson:"workspace_id" json:"workspaceId"`
	Role        primitive.ObjectID `bson:"role" json:"role"`
	JoinedAt    time.Time          `bson:"joined_at" json:"joinedAt"`
}
