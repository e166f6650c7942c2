package httpapi

import (
	"time"

	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/google/uuid"
)

type postResponse struct {
	ID        string    `json:"id"`
	OwnerID   uuid.UUID `json:"ownerId"`
	Name      *string   `json:"name"`
	Language  *string   `json:"language"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toPostResponse(p *models.Post) postResponse {
	return postResponse{
		ID:        p.ID,
		OwnerID:   p.OwnerID,
		Name:      p.Name,
		Language:  p.Language,
		Content:   p.Content,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
}

func toPostResponses(posts []*models.Post) []postResponse {
	out := make([]postResponse, len(posts))
	for i, p := range posts {
		out[i] = toPostResponse(p)
	}
	return out
}

// keysetResponse is one keyset page. Token is null on an empty page.
type keysetResponse struct {
	Data  []postResponse `json:"data"`
	Token *string        `json:"token"`
}

type offsetResponse struct {
	Data       []postResponse `json:"data"`
	HasMore    bool           `json:"hasMore"`
	TotalCount int            `json:"totalCount"`
}

type createPostRequest struct {
	Content  *string `json:"content"`
	Name     *string `json:"name"`
	Language *string `json:"language"`
}

type updatePostRequest struct {
	Content  models.Optional[string] `json:"content"`
	Name     models.Optional[string] `json:"name"`
	Language models.Optional[string] `json:"language"`
}

type accountResponse struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toAccountResponse(a *models.Account) accountResponse {
	return accountResponse{
		ID:        a.ID,
		Email:     a.Email,
		Name:      a.Name,
		Verified:  a.Verified,
		CreatedAt: a.CreatedAt,
		UpdatedAt: a.UpdatedAt,
	}
}

type registerRequest struct {
	Email    string  `json:"email"`
	Name     *string `json:"name"`
	Password string  `json:"password"`
}

type updateAccountRequest struct {
	Email    *string                 `json:"email"`
	Name     models.Optional[string] `json:"name"`
	Password *string                 `json:"password"`
}

// loginRequest identifies the account by email or by name.
type loginRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	accountResponse
	AccessToken string `json:"accessToken"`
}

type resetPasswordRequest struct {
	Password string `json:"password"`
}
