// Package posts stores posts: a PostgreSQL repository and an in-memory one
// with the same unique-index behavior.
package posts

import (
	"context"

	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/dmitrijs2005/snipbin/internal/server/pagination"
)

// Repository is the post store.
//
// Insert fails with a *common.DuplicateKeyError (key "id") when the id is
// taken. Lookups, updates and deletes of a missing post return
// common.ErrorNotFound.
type Repository interface {
	Insert(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id string) (*models.Post, error)
	// GetForUpdate is GetByID that also locks the row for the surrounding
	// transaction.
	GetForUpdate(ctx context.Context, id string) (*models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id string) error

	pagination.Store
}
