// Package repomanager vends repositories bound to a DB handle, so services
// can run the same code against a plain connection or a transaction.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/snipbin/internal/dbx"
	"github.com/dmitrijs2005/snipbin/internal/server/repositories/accounts"
	"github.com/dmitrijs2005/snipbin/internal/server/repositories/posts"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Posts(db dbx.DBTX) posts.Repository
	Accounts(db dbx.DBTX) accounts.Repository
}
