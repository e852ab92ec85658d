package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ResetCode is a one-time password issued by the forgotten-password flow.
// Only the bcrypt hash of the code is stored.
type ResetCode struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	LookupKey string             `bson:"lookupKey"`
	CodeHash  []byte             `bson:"codeHash"`
	ExpiresAt time.Time          `bson:"expiresAt"`
	Used      bool               `bson:"used"`
	Attempts  int                `bson:"attempts"`
	CreatedAt time.Time          `bson:"createdAt"`
}

// Expired reports whether the code is past its expiry at now.
func (r ResetCode) Expired(now time.Time) bool {
	return !now.Before(r.ExpiresAt)
}
