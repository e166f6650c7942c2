package posts

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/dmitrijs2005/snipbin/internal/server/pagination"
)

// MemoryRepository keeps posts in a map. Posts are copied on the way in and
// out so callers never share state with the store.
type MemoryRepository struct {
	mu    sync.RWMutex
	posts map[string]*models.Post
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{posts: make(map[string]*models.Post)}
}

func clonePost(p *models.Post) *models.Post {
	c := *p
	if p.Name != nil {
		name := *p.Name
		c.Name = &name
	}
	if p.Language != nil {
		lang := *p.Language
		c.Language = &lang
	}
	return &c
}

func (r *MemoryRepository) Insert(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[post.ID]; ok {
		return &common.DuplicateKeyError{Key: "id", Value: post.ID}
	}
	r.posts[post.ID] = clonePost(post)
	return nil
}

func (r *MemoryRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.posts[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return clonePost(p), nil
}

// GetForUpdate relies on the caller's dbx.LockTransactor for exclusion.
func (r *MemoryRepository) GetForUpdate(ctx context.Context, id string) (*models.Post, error) {
	return r.GetByID(ctx, id)
}

func (r *MemoryRepository) Update(ctx context.Context, post *models.Post) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur, ok := r.posts[post.ID]
	if !ok {
		return common.ErrorNotFound
	}
	next := clonePost(post)
	next.OwnerID = cur.OwnerID
	next.CreatedAt = cur.CreatedAt
	r.posts[post.ID] = next
	return nil
}

func (r *MemoryRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.posts[id]; !ok {
		return common.ErrorNotFound
	}
	delete(r.posts, id)
	return nil
}

func (r *MemoryRepository) snapshot() []*models.Post {
	r.mu.RLock()
	defer r.mu.RUnlock()

	all := make([]*models.Post, 0, len(r.posts))
	for _, p := range r.posts {
		all = append(all, p)
	}
	return all
}

func (r *MemoryRepository) Find(ctx context.Context, q pagination.Query) ([]*models.Post, error) {
	found := pagination.Apply(r.snapshot(), q)

	result := make([]*models.Post, len(found))
	for i, p := range found {
		result[i] = clonePost(p)
	}
	return result, nil
}

func (r *MemoryRepository) Count(ctx context.Context, f pagination.Filter) (int, error) {
	n := 0
	for _, p := range r.snapshot() {
		if f.Match(p) {
			n++
		}
	}
	return n, nil
}
