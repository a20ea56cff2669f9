package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Account links a user to one login method. Exactly one document per
// (provider, provider_id); a user may hold one account per provider.
type Account struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	UserID     primitive.ObjectID `bson:"user_id" json:"userId"`
	Provider   string             `bson:"provider" json:"provider"`
	ProviderID string             `bson:"provider_id" json:"providerId"` // email for EMAIL accounts
	CreatedAt  time.Time          `bson:"created_at" json:"createdAt"`
}
