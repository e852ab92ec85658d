// Package resetcodes stores one-time password reset codes.
package resetcodes

import (
	"context"

	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Repository interface {
	Insert(ctx context.Context, code *models.ResetCode) error
	// LatestUnused returns the newest unused code for key, or
	// common.ErrNotFound.
	LatestUnused(ctx context.Context, key cryptox.LookupKey) (models.ResetCode, error)
	// ReserveAttempt counts one attempt against an unused code that has had
	// fewer than max attempts, and returns the new count. The check and the
	// increment are a single step. It returns common.ErrTooManyAttempts when
	// no such code exists.
	ReserveAttempt(ctx context.Context, id primitive.ObjectID, max int) (int, error)
	MarkUsed(ctx context.Context, id primitive.ObjectID) error
}
