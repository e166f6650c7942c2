package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/snipbin/internal/dbx"
	"github.com/dmitrijs2005/snipbin/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/snipbin/internal/server/repositories/posts"
)

// MemoryRepositoryManager hands out the same process-local repositories
// whatever handle it is given. Pair it with dbx.LockTransactor.
type MemoryRepositoryManager struct {
	posts    *posts.MemoryRepository
	accounts *accounts.MemoryRepository
}

func NewMemoryRepositoryManager() *MemoryRepositoryManager {
	return &MemoryRepositoryManager{
		posts:    posts.NewMemoryRepository(),
		accounts: accounts.NewMemoryRepository(),
	}
}

func (m *MemoryRepositoryManager) Posts(dbx.DBTX) posts.Repository { return m.posts }

func (m *MemoryRepositoryManager) Accounts(dbx.DBTX) accounts.Repository { return m.accounts }

// RunMigrations is a no-op; there is no schema.
func (m *MemoryRepositoryManager) RunMigrations(context.Context, *sql.DB) error { return nil }
