package models

import (
	"time"

	"github.com/google/uuid"
)

// Post is a snippet of text shared under a short id.
type Post struct {
	ID        string
	OwnerID   uuid.UUID
	Content   string
	Name      *string
	Language  *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewPost is what a caller supplies to create a post; id, owner and
// timestamps are assigned by the service.
type NewPost struct {
	Content  string
	Name     *string
	Language *string
}

// PostPatch is a partial update. Content cannot be cleared, only replaced.
type PostPatch struct {
	Content  *string
	Name     Optional[string]
	Language Optional[string]
}

// Empty reports whether the patch changes nothing.
func (p PostPatch) Empty() bool {
	return p.Content == nil && !p.Name.Set && !p.Language.Set
}

// Apply writes the patch onto post in place.
func (p PostPatch) Apply(post *Post) {
	if p.Content != nil {
		post.Content = *p.Content
	}
	if p.Name.Set {
		post.Name = p.Name.Value
	}
	if p.Language.Set {
		post.Language = p.Language.Value
	}
}
