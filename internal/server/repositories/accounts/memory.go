package accounts

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MemoryRepository keeps accounts in process memory. It honours the same
// uniqueness and precondition rules as the Mongo store.
type MemoryRepository struct {
	mu   sync.RWMutex
	byID map[primitive.ObjectID]models.Account
	now  func() time.Time
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		byID: make(map[primitive.ObjectID]models.Account),
		now:  time.Now,
	}
}

func (r *MemoryRepository) Insert(_ context.Context, acc *models.Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, a := range r.byID {
		if a.LookupKey == acc.LookupKey {
			return common.ErrAlreadyExists
		}
	}
	if acc.ID.IsZero() {
		acc.ID = primitive.NewObjectID()
	}
	if acc.CreatedAt.IsZero() {
		acc.CreatedAt = r.now().UTC()
	}
	r.byID[acc.ID] = *acc
	return nil
}

func (r *MemoryRepository) find(match func(models.Account) bool) (models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, a := range r.byID {
		if match(a) {
			return a, nil
		}
	}
	return models.Account{}, common.ErrNotFound
}

func (r *MemoryRepository) FindByLookupKey(_ context.Context, key cryptox.LookupKey) (models.Account, error) {
	return r.find(func(a models.Account) bool { return a.LookupKey == key.String() })
}

func (r *MemoryRepository) FindActive(_ context.Context, key cryptox.LookupKey) (models.Account, error) {
	return r.find(func(a models.Account) bool {
		return a.LookupKey == key.String() && a.Status == models.StatusActive
	})
}

func (r *MemoryRepository) FindByID(_ context.Context, id primitive.ObjectID) (models.Account, error) {
	return r.find(func(a models.Account) bool { return a.ID == id })
}

// updateActive applies fn to the active account with key under the write
// lock and returns the previous value.
func (r *MemoryRepository) updateActive(key cryptox.LookupKey, fn func(*models.Account)) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, a := range r.byID {
		if a.LookupKey != key.String() || a.Status != models.StatusActive {
			continue
		}
		before := a
		fn(&a)
		a.UpdatedAt = r.now().UTC()
		r.byID[id] = a
		return before, nil
	}
	return models.Account{}, common.ErrPreconditionFailed
}

func (r *MemoryRepository) UpdateProfile(_ context.Context, key cryptox.LookupKey, upd ProfileUpdate) (models.Account, error) {
	return r.updateActive(key, func(a *models.Account) {
		a.EncryptedName = upd.EncryptedName
		a.EncryptedEmail = upd.EncryptedEmail
		a.Profile = upd.Profile
		if upd.Image != nil {
			a.ImageURL = upd.Image.URL
			a.ImagePublicID = upd.Image.PublicID
		}
	})
}

func (r *MemoryRepository) SetPassword(_ context.Context, key cryptox.LookupKey, envelope string) error {
	_, err := r.updateActive(key, func(a *models.Account) { a.EncryptedPassword = envelope })
	return err
}

func (r *MemoryRepository) SetStatus(_ context.Context, id primitive.ObjectID, key cryptox.LookupKey, from, to models.AccountStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok || a.LookupKey != key.String() {
		return common.ErrNotFound
	}
	if a.Status != from {
		return common.ErrPreconditionFailed
	}
	a.Status = to
	a.UpdatedAt = r.now().UTC()
	r.byID[id] = a
	return nil
}

func (r *MemoryRepository) ListExcept(_ context.Context, id primitive.ObjectID) ([]models.Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := []models.Account{}
	for _, a := range r.byID {
		if a.ID != id {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *MemoryRepository) Delete(_ context.Context, id primitive.ObjectID) (models.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.byID[id]
	if !ok {
		return models.Account{}, common.ErrNotFound
	}
	delete(r.byID, id)
	return a, nil
}
