package pagination

import (
	"slices"
	"strings"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/server/models"
)

// compareCursors orders two values of the same key. A nil value sorts
// before everything, matching NULLS FIRST.
func compareCursors(a, b Cursor) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}

	switch av := a.(type) {
	case TimestampCursor:
		bv, _ := b.(TimestampCursor)
		return time.Time(av).Compare(time.Time(bv))
	case StringCursor:
		bv, _ := b.(StringCursor)
		return strings.Compare(string(av), string(bv))
	}
	return 0
}

// Compare orders a and b by order: negative when a comes first.
// Strings compare bytewise, like the C collation the SQL store uses.
func Compare(a, b *models.Post, order []SortField) int {
	for _, f := range order {
		c := compareCursors(CursorOf(f.Key, a), CursorOf(f.Key, b))
		if f.Dir == Desc {
			c = -c
		}
		if c != 0 {
			return c
		}
	}
	return 0
}

// After reports whether p lies strictly after cursor on field: greater for
// ascending order, smaller for descending.
func After(p *models.Post, field SortField, cursor Cursor) bool {
	v := CursorOf(field.Key, p)
	if v == nil {
		return false
	}
	c := compareCursors(v, cursor)
	if field.Dir == Desc {
		return c < 0
	}
	return c > 0
}

// Apply evaluates q over an in-memory set of posts. The input slice is not
// modified.
func Apply(posts []*models.Post, q Query) []*models.Post {
	out := make([]*models.Post, 0, len(posts))
	for _, p := range posts {
		if !q.Filter.Match(p) {
			continue
		}
		if q.After != nil && len(q.Order) > 0 && !After(p, q.Order[0], q.After) {
			continue
		}
		out = append(out, p)
	}

	slices.SortStableFunc(out, func(a, b *models.Post) int { return Compare(a, b, q.Order) })

	if q.Offset > 0 {
		if q.Offset >= len(out) {
			return out[:0]
		}
		out = out[q.Offset:]
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}
