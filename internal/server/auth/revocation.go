package auth

import (
	"context"
	"crypto/sha256"
	"sync"
	"time"
)

// Revocations remembers logged-out tokens until they would have expired.
// Tokens are keyed by their SHA-256 so the raw value is not retained.
type Revocations struct {
	mu      sync.RWMutex
	entries map[[sha256.Size]byte]time.Time
	now     func() time.Time
}

func NewRevocations() *Revocations {
	return &Revocations{
		entries: make(map[[sha256.Size]byte]time.Time),
		now:     time.Now,
	}
}

// Revoke records token as unusable until expiresAt.
func (r *Revocations) Revoke(token string, expiresAt time.Time) {
	if token == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[sha256.Sum256([]byte(token))] = expiresAt
}

// Revoked reports whether token was revoked and has not yet expired.
func (r *Revocations) Revoked(token string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	exp, ok := r.entries[sha256.Sum256([]byte(token))]
	return ok && r.now().Before(exp)
}

// Purge drops entries whose expiry has passed and returns how many it removed.
func (r *Revocations) Purge() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	n := 0
	for k, exp := range r.entries {
		if !now.Before(exp) {
			delete(r.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of tracked tokens.
func (r *Revocations) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Run purges expired entries every interval until ctx is done.
func (r *Revocations) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Purge()
		case <-ctx.Done():
			return
		}
	}
}
