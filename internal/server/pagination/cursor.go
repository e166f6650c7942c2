package pagination

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/dmitrijs2005/snipbin/internal/shortid"
)

// Cursor is a decoded continuation token: the primary sort value of the last
// item of the previous page. It is either a StringCursor (id, name) or a
// TimestampCursor (createdAt, updatedAt).
type Cursor interface {
	// Token is the wire form handed back to clients.
	Token() string
	isCursor()
}

type StringCursor string

func (c StringCursor) Token() string { return string(c) }
func (StringCursor) isCursor()       {}

type TimestampCursor time.Time

func (c TimestampCursor) Token() string { return time.Time(c).UTC().Format(time.RFC3339Nano) }
func (TimestampCursor) isCursor()       {}

// ParseCursor decodes token for a listing ordered by key. A token minted
// for another key is rejected with common.ErrInvalidToken.
func ParseCursor(key SortKey, token string) (Cursor, error) {
	switch key {
	case KeyCreatedAt, KeyUpdatedAt:
		t, err := ParseTimestamp(token)
		if err != nil {
			return nil, fmt.Errorf("%w: must be an ISO 8601 timestamp", common.ErrInvalidToken)
		}
		return TimestampCursor(t), nil
	case KeyID:
		if !shortid.Valid(token) {
			return nil, fmt.Errorf("%w: not a post id", common.ErrInvalidToken)
		}
		return StringCursor(token), nil
	case KeyName:
		if strings.TrimSpace(token) == "" {
			return nil, fmt.Errorf("%w: must be a non-empty string", common.ErrInvalidToken)
		}
		return StringCursor(token), nil
	default:
		return nil, fmt.Errorf("%w: %q", common.ErrInvalidSortKey, key)
	}
}

// CursorOf returns p's value for key. It is nil only for an unnamed post
// and key name.
func CursorOf(key SortKey, p *models.Post) Cursor {
	switch key {
	case KeyName:
		if p.Name == nil {
			return nil
		}
		return StringCursor(*p.Name)
	case KeyCreatedAt:
		return TimestampCursor(p.CreatedAt)
	case KeyUpdatedAt:
		return TimestampCursor(p.UpdatedAt)
	default:
		return StringCursor(p.ID)
	}
}

// Value returns the cursor as a driver-friendly value.
func Value(c Cursor) any {
	switch v := c.(type) {
	case TimestampCursor:
		return time.Time(v).UTC()
	case StringCursor:
		return string(v)
	default:
		return nil
	}
}
