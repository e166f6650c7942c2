// Package pagination implements post listings: keyset pagination with
// opaque continuation tokens, and the offset/limit alternative.
package pagination

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
)

// Query is what the engine asks the store for. Stores must return the posts
// matching Filter, strictly after After on Order[0] (when After is set),
// sorted by Order, skipping Offset and returning at most Limit.
type Query struct {
	Filter Filter
	Order  []SortField
	After  Cursor
	Offset int
	Limit  int
}

// Store is the read side of the post store.
type Store interface {
	Find(ctx context.Context, q Query) ([]*models.Post, error)
	Count(ctx context.Context, f Filter) (int, error)
}

// Params describe one keyset page request. A zero PageSize means the maximum.
type Params struct {
	Filter   Filter
	Sort     Sort
	Token    string
	PageSize int
}

// Page is one keyset page. NextToken is nil when the page is empty; a
// client has enumerated everything once it receives an empty page.
type Page struct {
	Items     []*models.Post
	NextToken *string
}

// OffsetParams describe one offset page request. A zero Limit means the maximum.
type OffsetParams struct {
	Filter Filter
	Skip   int
	Limit  int
}

// OffsetPage is one offset page with the total match count.
type OffsetPage struct {
	Items      []*models.Post
	TotalCount int
	HasMore    bool
}

// Engine runs listings against a Store.
type Engine struct {
	store       Store
	maxPageSize int
}

func NewEngine(store Store, maxPageSize int) *Engine {
	return &Engine{store: store, maxPageSize: maxPageSize}
}

func (e *Engine) pageSize(n int, field string) (int, error) {
	switch {
	case n == 0:
		return e.maxPageSize, nil
	case n < 0:
		return 0, common.NewFieldError(field, common.ErrInvalidPageSize)
	case n > e.maxPageSize:
		return 0, common.NewFieldError(field, fmt.Errorf("%w: at most %d", common.ErrPageSizeTooLarge, e.maxPageSize))
	}
	return n, nil
}

// Paginate returns the page of posts that follows p.Token in p.Sort order.
//
// Items of the page are strictly after the token's value on the primary key
// and ordered by (primary, id asc). Listings by name only include named
// posts. The next token is the primary value of the last item.
func (e *Engine) Paginate(ctx context.Context, p Params) (*Page, error) {
	size, err := e.pageSize(p.PageSize, "count")
	if err != nil {
		return nil, err
	}

	sort := p.Sort
	if sort.Key == "" {
		sort = DefaultSort
	}

	q := Query{Filter: p.Filter, Order: sort.Order(), Limit: size}
	if sort.Key == KeyName {
		q.Filter.NamedOnly = true
	}
	if p.Token != "" {
		cursor, err := ParseCursor(sort.Key, p.Token)
		if err != nil {
			return nil, common.NewFieldError("token", err)
		}
		q.After = cursor
	}

	items, err := e.store.Find(ctx, q)
	if err != nil {
		return nil, err
	}

	page := &Page{Items: items}
	if len(items) > 0 {
		if c := CursorOf(sort.Key, items[len(items)-1]); c != nil {
			token := c.Token()
			page.NextToken = &token
		}
	}
	return page, nil
}

// PaginateOffset returns posts Skip..Skip+Limit in OffsetOrder.
func (e *Engine) PaginateOffset(ctx context.Context, p OffsetParams) (*OffsetPage, error) {
	limit, err := e.pageSize(p.Limit, "limit")
	if err != nil {
		return nil, err
	}
	if p.Skip < 0 {
		return nil, common.NewFieldError("skip", fmt.Errorf("%w: must not be negative", common.ErrValidation))
	}

	total, err := e.store.Count(ctx, p.Filter)
	if err != nil {
		return nil, err
	}

	items, err := e.store.Find(ctx, Query{Filter: p.Filter, Order: OffsetOrder, Offset: p.Skip, Limit: limit})
	if err != nil {
		return nil, err
	}

	return &OffsetPage{
		Items:      items,
		TotalCount: total,
		HasMore:    total-p.Skip-limit > 0,
	}, nil
}
