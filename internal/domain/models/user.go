// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is a person who can sign in to Flowmatic.
//
// NOTE:
//   - Login methods live in the accounts collection, not on the user.
//   - Workspace participation lives in the members collection; CurrentWorkspace
//     is only the workspace the user last worked in.
type User struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	Name             string              `bson:"name" json:"name"`
	Email            string              `bson:"email" json:"email"` // unique, case preserved
	PasswordHash     *string             `bson:"password_hash,omitempty" json:"-"`
	ProfilePicture   *string             `bson:"profile_picture,omitempty" json:"profilePicture"`
	CurrentWorkspace *primitive.ObjectID `bson:"current_workspace,omitempty" json:"currentWorkspace"`
	IsActive         bool                `bson:"is_active" json:"isActive"`
	LastLogin        *time.Time          `bson:"last_login,omitempty" json:"lastLogin,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"createdAt"`
	UpdatedAt time.Time `bson:"updated_at" json:"updatedAt"`
}

// HasPassword reports whether the user can sign in with a password.
func (u User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}
