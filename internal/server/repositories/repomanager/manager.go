package repomanager

import (
	"context"

	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/accounts"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/resetcodes"
)

// RepositoryManager vends the repositories of one backing store.
// Connect must succeed before Accounts or ResetCodes is called.
type RepositoryManager interface {
	Connect(ctx context.Context) error
	EnsureIndexes(ctx context.Context) error
	Accounts() accounts.Repository
	ResetCodes() resetcodes.Repository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
