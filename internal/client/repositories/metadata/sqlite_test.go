package metadata

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

func setupDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE metadata (key TEXT PRIMARY KEY, value BLOB NOT NULL);`)
	require.NoError(t, err)
	return db
}

func TestSetGetDelete(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	v, err := r.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.Nil(t, v)

	require.NoError(t, r.Set(ctx, KeyAccessToken, []byte("old")))
	require.NoError(t, r.Set(ctx, KeyAccessToken, []byte("new")))

	v, err = r.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.Equal(t, []byte("new"), v)

	require.NoError(t, r.Delete(ctx, KeyAccessToken))
	require.NoError(t, r.Delete(ctx, KeyAccessToken))

	v, err = r.Get(ctx, KeyAccessToken)
	require.NoError(t, err)
	assert.Nil(t, v)
}

func TestListAndClear(t *testing.T) {
	r := NewSQLiteRepository(setupDB(t))
	ctx := context.Background()

	require.NoError(t, r.Set(ctx, KeyAccessToken, []byte("tok")))
	require.NoError(t, r.Set(ctx, KeyServerURL, []byte("http://x")))

	m, err := r.List(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{
		KeyAccessToken: []byte("tok"),
		KeyServerURL:   []byte("http://x"),
	}, m)

	require.NoError(t, r.Clear(ctx))
	m, err = r.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, m)
}

func TestErrorsAreWrapped(t *testing.T) {
	db := setupDB(t)
	r := NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, db.Close())

	_, err := r.Get(ctx, "k")
	assert.ErrorContains(t, err, `metadata get "k"`)
	assert.ErrorContains(t, r.Set(ctx, "k", []byte("v")), `metadata set "k"`)
	assert.ErrorContains(t, r.Delete(ctx, "k"), `metadata delete "k"`)
	assert.ErrorContains(t, r.Clear(ctx), "metadata clear")
	_, err = r.List(ctx)
	assert.ErrorContains(t, err, "metadata list")
}
