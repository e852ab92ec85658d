// Package accounts stores admin accounts. Identity fields are opaque
// ciphertext here; the only searchable handle is the lookup key.
package accounts

import (
	"context"

	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Image is a CDN reference attached to an account.
type Image struct {
	URL      string
	PublicID string
}

// ProfileUpdate is the set of values written by a profile update. Image is
// left untouched when nil.
type ProfileUpdate struct {
	EncryptedName  string
	EncryptedEmail string
	Profile        models.Profile
	Image          *Image
}

// Repository is the account store.
//
// Find methods return common.ErrNotFound when nothing matches. Conditional
// writes on (lookup key, active) return common.ErrPreconditionFailed when
// the account is gone or no longer active.
type Repository interface {
	Insert(ctx context.Context, acc *models.Account) error
	FindByLookupKey(ctx context.Context, key cryptox.LookupKey) (models.Account, error)
	FindActive(ctx context.Context, key cryptox.LookupKey) (models.Account, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Account, error)
	// UpdateProfile returns the account as it was before the update.
	UpdateProfile(ctx context.Context, key cryptox.LookupKey, upd ProfileUpdate) (models.Account, error)
	SetPassword(ctx context.Context, key cryptox.LookupKey, envelope string) error
	// SetStatus moves the account from status from to to. It matches on id,
	// lookup key and from; it returns common.ErrNotFound when the (id, key)
	// pair does not exist and common.ErrPreconditionFailed when the account
	// is no longer in status from.
	SetStatus(ctx context.Context, id primitive.ObjectID, key cryptox.LookupKey, from, to models.AccountStatus) error
	ListExcept(ctx context.Context, id primitive.ObjectID) ([]models.Account, error)
	// Delete returns the removed account.
	Delete(ctx context.Context, id primitive.ObjectID) (models.Account, error)
}
