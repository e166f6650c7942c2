package pagination

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/snipbin/internal/common"
)

// SortKey is a post attribute listings can be ordered by.
type SortKey string

const (
	KeyID        SortKey = "id"
	KeyName      SortKey = "name"
	KeyCreatedAt SortKey = "createdAt"
	KeyUpdatedAt SortKey = "updatedAt"
)

func (k SortKey) valid() bool {
	switch k {
	case KeyID, KeyName, KeyCreatedAt, KeyUpdatedAt:
		return true
	}
	return false
}

// IsTime reports whether values of k are timestamps.
func (k SortKey) IsTime() bool {
	return k == KeyCreatedAt || k == KeyUpdatedAt
}

// Direction is asc or desc.
type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

// SortField is one key of an ordering.
type SortField struct {
	Key SortKey
	Dir Direction
}

// Sort is the caller-chosen primary ordering of a keyset listing.
type Sort SortField

// DefaultSort is used when the caller does not pick one.
var DefaultSort = Sort{Key: KeyID, Dir: Asc}

// ParseSort parses "key:direction". An empty string means DefaultSort.
func ParseSort(s string) (Sort, error) {
	if s == "" {
		return DefaultSort, nil
	}

	key, dir, ok := strings.Cut(s, ":")
	if !ok {
		return Sort{}, fmt.Errorf("%w: %q", common.ErrInvalidSortKey, s)
	}
	if !SortKey(key).valid() {
		return Sort{}, fmt.Errorf("%w: %q", common.ErrInvalidSortKey, key)
	}
	if Direction(dir) != Asc && Direction(dir) != Desc {
		return Sort{}, fmt.Errorf("%w: direction %q", common.ErrInvalidSortKey, dir)
	}

	return Sort{Key: SortKey(key), Dir: Direction(dir)}, nil
}

func (s Sort) String() string { return string(s.Key) + ":" + string(s.Dir) }

// Order is the full ordering: the primary field, then id ascending as the
// tie-breaker whenever the primary key is not id itself.
func (s Sort) Order() []SortField {
	order := []SortField{SortField(s)}
	if s.Key != KeyID {
		order = append(order, SortField{Key: KeyID, Dir: Asc})
	}
	return order
}

// OffsetOrder is the fixed ordering of offset listings: most recently
// touched first.
var OffsetOrder = []SortField{
	{Key: KeyUpdatedAt, Dir: Desc},
	{Key: KeyCreatedAt, Dir: Desc},
	{Key: KeyID, Dir: Asc},
}
