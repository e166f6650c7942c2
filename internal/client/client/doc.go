// Package client contains the client-side building blocks of the snipbin CLI.
//
// # Overview
//
//  1. HTTPClient, a thin wrapper over the JSON API: Login, GetPost,
//     CreatePost, ListPosts and ListAllPosts, which follows continuation
//     tokens until the server answers with an empty page.
//  2. Local session bootstrap (InitDatabase, RunMigrations) that opens an
//     SQLite file and applies the embedded goose migrations.
//
// # Error Handling
//
// Non-2xx responses are returned as *APIError. 401 and 404 match
// ErrUnauthorized and ErrNotFound with errors.Is; transport failures match
// ErrUnavailable.
package client
