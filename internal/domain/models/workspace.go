package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Workspace is the tenant container that owns projects, tasks and members.
// Anyone holding the invite code can join it as a MEMBER.
type Workspace struct {
	ID primitive.ObjectID `bson:"_id,omitempty" json:"_id"`

	Name        string `bson:"name" json:"name"`
	NameCI      string `bson:"name_ci" json:"-"` // folded for sorting
	Description string `bson:"description,omitempty" json:"description"`

	// Owner is the creating user. It is a business reference only; deleting
	// the user does not cascade.
	Owner primitive.ObjectID `bson:"owner" json:"owner"`

	// InviteCode is unique across all workspaces.
	InviteCode string `bson:"invite_code" json:"inviteCode"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}
