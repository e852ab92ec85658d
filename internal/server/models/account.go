package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type AccountStatus string

const (
	StatusPending AccountStatus = "pending"
	StatusActive  AccountStatus = "active"
	StatusReject  AccountStatus = "reject"
)

// Valid reports whether s is one of the known statuses.
func (s AccountStatus) Valid() bool {
	switch s {
	case StatusPending, StatusActive, StatusReject:
		return true
	}
	return false
}

var transitions = map[AccountStatus][]AccountStatus{
	StatusPending: {StatusActive, StatusReject},
	StatusActive:  {StatusReject},
	StatusReject:  {StatusActive},
}

// CanTransition reports whether an admin may move an account from s to next.
// Setting the current status again is allowed and changes nothing.
func (s AccountStatus) CanTransition(next AccountStatus) bool {
	if s.Valid() && s == next {
		return true
	}
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Profile holds the plain, non-identifying profile fields.
type Profile struct {
	Phone      string `bson:"phone,omitempty" json:"phone,omitempty"`
	Position   string `bson:"position,omitempty" json:"position,omitempty"`
	Department string `bson:"department,omitempty" json:"department,omitempty"`
	Company    string `bson:"company,omitempty" json:"company,omitempty"`
	Location   string `bson:"location,omitempty" json:"location,omitempty"`
	JoinDate   string `bson:"joinDate,omitempty" json:"joinDate,omitempty"`
	Bio        string `bson:"bio,omitempty" json:"bio,omitempty"`
	LinkedIn   string `bson:"linkedin,omitempty" json:"linkedin,omitempty"`
	Twitter    string `bson:"twitter,omitempty" json:"twitter,omitempty"`
}

// Account is an admin record.
//
// LookupKey is the only searchable identity field. Name and email are
// stored under the storage key; the password is the two-layer envelope.
type Account struct {
	ID                primitive.ObjectID `bson:"_id,omitempty"`
	LookupKey         string             `bson:"lookupKey"`
	EncryptedName     string             `bson:"encryptedName"`
	EncryptedEmail    string             `bson:"encryptedEmail"`
	EncryptedPassword string             `bson:"encryptedPassword"`
	Status            AccountStatus      `bson:"status"`
	ImageURL          string             `bson:"imageUrl"`
	ImagePublicID     string             `bson:"imagePublicId,omitempty"`
	Profile           `bson:",inline"`
	CreatedAt         time.Time `bson:"createdAt"`
	UpdatedAt         time.Time `bson:"updatedAt,omitempty"`
}
