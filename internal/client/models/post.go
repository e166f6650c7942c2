// Package models defines the API payloads the snipbin CLI sends and receives.
package models

import "time"

// Post is a paste as returned by the server.
type Post struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      *string   `json:"name"`
	Language  *string   `json:"language"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewPost is the body of a create request. Nil fields are left out.
type NewPost struct {
	Content  string  `json:"content"`
	Name     *string `json:"name,omitempty"`
	Language *string `json:"language,omitempty"`
}

// Page is one keyset page. Token is nil once the listing is exhausted.
type Page struct {
	Data  []*Post `json:"data"`
	Token *string `json:"token"`
}

// Account is the public view of a user.
type Account struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      *string   `json:"name"`
	Verified  bool      `json:"verified"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// LoginResult is an account together with the credential issued for it.
type LoginResult struct {
	Account
	AccessToken string `json:"accessToken"`
}
