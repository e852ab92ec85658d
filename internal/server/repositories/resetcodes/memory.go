package resetcodes

import (
	"context"
	"sync"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type MemoryRepository struct {
	mu    sync.Mutex
	codes []models.ResetCode
	now   func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{now: time.Now}
}

func (r *MemoryRepository) Insert(_ context.Context, code *models.ResetCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if code.ID.IsZero() {
		code.ID = primitive.NewObjectID()
	}
	if code.CreatedAt.IsZero() {
		code.CreatedAt = r.now().UTC()
	}
	r.codes = append(r.codes, *code)
	return nil
}

func (r *MemoryRepository) LatestUnused(_ context.Context, key cryptox.LookupKey) (models.ResetCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var (
		latest models.ResetCode
		found  bool
	)
	for _, c := range r.codes {
		if c.LookupKey != key.String() || c.Used {
			continue
		}
		if !found || !c.CreatedAt.Before(latest.CreatedAt) {
			latest, found = c, true
		}
	}
	if !found {
		return models.ResetCode{}, common.ErrNotFound
	}
	return latest, nil
}

func (r *MemoryRepository) ReserveAttempt(_ context.Context, id primitive.ObjectID, max int) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.codes {
		c := &r.codes[i]
		if c.ID == id && !c.Used && c.Attempts < max {
			c.Attempts++
			return c.Attempts, nil
		}
	}
	return 0, common.ErrTooManyAttempts
}

func (r *MemoryRepository) MarkUsed(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.codes {
		if r.codes[i].ID == id && !r.codes[i].Used {
			r.codes[i].Used = true
			return nil
		}
	}
	return common.ErrNotFound
}
