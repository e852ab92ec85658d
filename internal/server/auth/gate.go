package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sazinconstruction/adminkeeper/internal/common"
	"github.com/sazinconstruction/adminkeeper/internal/cryptox"
	"github.com/sazinconstruction/adminkeeper/internal/logging"
	"github.com/sazinconstruction/adminkeeper/internal/server/models"
)

// ActiveAccounts finds the active account with a given lookup key. It
// returns common.ErrNotFound when there is none.
type ActiveAccounts interface {
	FindActive(ctx context.Context, key cryptox.LookupKey) (models.Account, error)
}

// Principal is what a resolved request knows about its caller. It never
// carries the password in any form.
type Principal struct {
	AccountID string
	Username  string
	Email     string
	LookupKey cryptox.LookupKey
	Status    models.AccountStatus
	ImageURL  string
}

// Resolution is a successful gate pass. When Reissued is set the caller
// must deliver Token to the client.
type Resolution struct {
	Principal Principal
	Token     string
	ExpiresAt time.Time
	Reissued  bool
}

// Gate ties a verified session to an active account.
type Gate struct {
	sessions *Sessions
	accounts ActiveAccounts
	revoked  *Revocations
	log      logging.Logger
}

func NewGate(sessions *Sessions, accounts ActiveAccounts, revoked *Revocations, log logging.Logger) *Gate {
	return &Gate{
		sessions: sessions,
		accounts: accounts,
		revoked:  revoked,
		log:      log.With("module", "gate"),
	}
}

// Resolve verifies token against the raw identity header and loads the
// caller's account.
func (g *Gate) Resolve(ctx context.Context, token, identityHeader string) (Resolution, error) {
	asserted, err := ParseIdentity(identityHeader)
	if err != nil || token == "" {
		g.log.Warn(ctx, "missing token or identity")
		return Resolution{}, fmt.Errorf("%w: missing token or identity", common.ErrTokenInvalid)
	}

	if g.revoked != nil && g.revoked.Revoked(token) {
		g.log.Warn(ctx, "revoked token presented")
		return Resolution{}, fmt.Errorf("%w: revoked", common.ErrTokenInvalid)
	}

	v := g.sessions.Verify(token, asserted)
	if v.Outcome == Rejected {
		g.log.Warn(ctx, "session rejected", "reason", v.Err)
		return Resolution{}, v.Err
	}

	key := cryptox.Digest(v.Identity.Email)
	acc, err := g.accounts.FindActive(ctx, key)
	if errors.Is(err, common.ErrNotFound) {
		g.log.Warn(ctx, "no active account for session", "lookup_key", key)
		return Resolution{}, common.ErrAccountNotActive
	}
	if err != nil {
		return Resolution{}, err
	}
	if acc.ID.Hex() != v.Identity.UID {
		g.log.Warn(ctx, "session subject does not own account", "lookup_key", key)
		return Resolution{}, common.ErrTokenMismatch
	}

	if v.Outcome == Reissued {
		g.log.Info(ctx, "expired session rotated", "lookup_key", key)
	}

	return Resolution{
		Principal: Principal{
			AccountID: acc.ID.Hex(),
			Username:  v.Identity.Username,
			Email:     v.Identity.Email,
			LookupKey: key,
			Status:    acc.Status,
			ImageURL:  acc.ImageURL,
		},
		Token:     v.Token,
		ExpiresAt: v.ExpiresAt,
		Reissued:  v.Outcome == Reissued,
	}, nil
}

// Revoke puts token on the revocation list. Under token rotation an expired
// token can still be exchanged, so it stays listed for one extra lifetime.
func (g *Gate) Revoke(token string, expiresAt time.Time) {
	if g.revoked == nil || token == "" {
		return
	}
	g.revoked.Revoke(token, expiresAt.Add(g.sessions.TTL()))
}

type ctxKey struct{}

// WithPrincipal stores p in ctx.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// PrincipalFrom returns the principal stored by WithPrincipal.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ctxKey{}).(Principal)
	return p, ok
}
