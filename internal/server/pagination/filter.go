package pagination

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/google/uuid"
)

// Comparator is a timestamp filter operator.
type Comparator string

const (
	Lt  Comparator = "lt"
	Lte Comparator = "lte"
	Eq  Comparator = "eq"
	Gte Comparator = "gte"
	Gt  Comparator = "gt"
)

// SQL returns the SQL operator for c.
func (c Comparator) SQL() string {
	switch c {
	case Lt:
		return "<"
	case Lte:
		return "<="
	case Gte:
		return ">="
	case Gt:
		return ">"
	default:
		return "="
	}
}

// TimeFilter restricts a timestamp attribute, e.g. createdAt=gte:2024-01-01T00:00:00Z.
type TimeFilter struct {
	Cmp Comparator
	At  time.Time
}

// ParseTimeFilter parses "cmp:timestamp".
func ParseTimeFilter(s string) (*TimeFilter, error) {
	cmp, ts, ok := strings.Cut(s, ":")
	if !ok {
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidComparator, s)
	}

	switch Comparator(cmp) {
	case Lt, Lte, Eq, Gte, Gt:
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidComparator, cmp)
	}

	at, err := ParseTimestamp(ts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	return &TimeFilter{Cmp: Comparator(cmp), At: at}, nil
}

// Match reports whether t satisfies the filter.
func (f *TimeFilter) Match(t time.Time) bool {
	switch f.Cmp {
	case Lt:
		return t.Before(f.At)
	case Lte:
		return !t.After(f.At)
	case Gte:
		return !t.Before(f.At)
	case Gt:
		return t.After(f.At)
	default:
		return t.Equal(f.At)
	}
}

// Filter selects the posts a listing enumerates.
type Filter struct {
	OwnerID   *uuid.UUID
	Language  *string
	CreatedAt *TimeFilter
	UpdatedAt *TimeFilter
	// NamedOnly drops posts without a name. Set when listing by name.
	NamedOnly bool
}

// Match reports whether p passes every set condition.
func (f Filter) Match(p *models.Post) bool {
	if f.OwnerID != nil && p.OwnerID != *f.OwnerID {
		return false
	}
	if f.Language != nil && (p.Language == nil || *p.Language != *f.Language) {
		return false
	}
	if f.CreatedAt != nil && !f.CreatedAt.Match(p.CreatedAt) {
		return false
	}
	if f.UpdatedAt != nil && !f.UpdatedAt.Match(p.UpdatedAt) {
		return false
	}
	if f.NamedOnly && p.Name == nil {
		return false
	}
	return true
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// ParseTimestamp accepts RFC 3339 and, for convenience, a zone-less
// date-time or a bare date, both read as UTC.
func ParseTimestamp(s string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp %q", s)
}
