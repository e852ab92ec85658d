package repomanager

import (
	"context"

	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/accounts"
	"github.com/sazinconstruction/adminkeeper/internal/server/repositories/resetcodes"
)

// MemoryManager serves in-memory repositories. Data lives as long as the
// manager does.
type MemoryManager struct {
	accounts   *accounts.MemoryRepository
	resetCodes *resetcodes.MemoryRepository
}

func NewMemoryManager() *MemoryManager {
	return &MemoryManager{
		accounts:   accounts.NewMemoryRepository(),
		resetCodes: resetcodes.NewMemoryRepository(),
	}
}

func (m *MemoryManager) Connect(context.Context) error       { return nil }
func (m *MemoryManager) EnsureIndexes(context.Context) error { return nil }
func (m *MemoryManager) Ping(context.Context) error          { return nil }
func (m *MemoryManager) Close(context.Context) error         { return nil }

func (m *MemoryManager) Accounts() accounts.Repository {
	return m.accounts
}

func (m *MemoryManager) ResetCodes() resetcodes.Repository {
	return m.resetCodes
}
