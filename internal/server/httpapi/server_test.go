package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/dbx"
	"github.com/dmitrijs2005/snipbin/internal/logging"
	"github.com/dmitrijs2005/snipbin/internal/server/auth"
	"github.com/dmitrijs2005/snipbin/internal/server/config"
	"github.com/dmitrijs2005/snipbin/internal/server/mail"
	"github.com/dmitrijs2005/snipbin/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/snipbin/internal/server/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingSender struct {
	mu   sync.Mutex
	sent []mail.Message
}

func (r *recordingSender) Send(_ context.Context, msg mail.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, msg)
	return nil
}

// lastCode returns the code at the end of the last mailed link.
func (r *recordingSender) lastCode(t *testing.T) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	require.NotEmpty(t, r.sent)
	link := r.sent[len(r.sent)-1].Link
	return link[strings.LastIndex(link, "/")+1:]
}

type plainHasher struct{}

func (plainHasher) Hash(pw string) ([]byte, error) { return []byte("plain:" + pw), nil }

func (plainHasher) Compare(hash []byte, pw string) error {
	if string(hash) != "plain:"+pw {
		return assert.AnError
	}
	return nil
}

type testEnv struct {
	t      *testing.T
	srv    *httptest.Server
	clock  *clock
	sender *recordingSender
	codec  *auth.Codec
}

func newTestEnv(t *testing.T, mutate func(cfg *config.Config)) *testEnv {
	t.Helper()

	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Storage = config.StorageMemory
	cfg.MaxPageSize = 3
	cfg.CookieSecure = false
	if mutate != nil {
		mutate(cfg)
	}

	env := &testEnv{t: t, clock: &clock{now: t0}, sender: &recordingSender{}}

	tx := dbx.NewLockTransactor()
	rm := repomanager.NewMemoryRepositoryManager()

	codec, err := auth.NewCodec(cfg, auth.StaticKey([]byte(cfg.SecretKey)), env.clock.Now)
	require.NoError(t, err)
	env.codec = codec

	log := logging.Discard()
	ps := services.NewPostService(tx, rm, cfg, log, services.WithPostClock(env.clock.Now))
	as, err := services.NewAccountService(tx, rm, codec, env.sender, cfg, log,
		services.WithAccountClock(env.clock.Now),
		services.WithPasswordHasher(plainHasher{}))
	require.NoError(t, err)
	v := auth.NewValidator(codec, rm.Accounts(tx.Conn()), cfg)

	env.srv = httptest.NewServer(NewServer(cfg, log, ps, as, v, codec.Lifetime()).Handler())
	t.Cleanup(env.srv.Close)
	return env
}

// do sends a JSON request and decodes a JSON response into out when given.
func (e *testEnv) do(method, path, token string, body any, out any) *http.Response {
	e.t.Helper()

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(e.t, err)
		rd = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, rd)
	require.NoError(e.t, err)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := e.srv.Client().Do(req)
	require.NoError(e.t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(e.t, err)
	if out != nil && len(raw) > 0 {
		require.NoError(e.t, json.Unmarshal(raw, out), "body: %s", raw)
	}
	return resp
}

type account struct {
	ID          string  `json:"id"`
	Email       string  `json:"email"`
	Name        *string `json:"name"`
	Verified    bool    `json:"verified"`
	AccessToken string  `json:"accessToken"`
}

type post struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Name      *string   `json:"name"`
	Language  *string   `json:"language"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type apiError struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

// signup registers, logs in and verifies an account and returns its id and
// access token.
func (e *testEnv) signup(email, name string) (string, string) {
	e.t.Helper()

	var a account
	resp := e.do(http.MethodPost, "/users", "", map[string]any{"email": email, "name": name, "password": "secret"}, &a)
	require.Equal(e.t, http.StatusCreated, resp.StatusCode)

	resp = e.do(http.MethodPost, "/users/login", "", map[string]any{"name": name, "password": "secret"}, &a)
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
	require.NotEmpty(e.t, a.AccessToken)

	resp = e.do(http.MethodPost, "/users/verify", a.AccessToken, nil, nil)
	require.Equal(e.t, http.StatusNoContent, resp.StatusCode)
	resp = e.do(http.MethodPost, "/users/verify/"+e.sender.lastCode(e.t), a.AccessToken, nil, &a)
	require.Equal(e.t, http.StatusOK, resp.StatusCode)
	require.True(e.t, a.Verified)

	return a.ID, a.AccessToken
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t, nil)
	var body map[string]string
	resp := env.do(http.MethodGet, "/healthz", "", nil, &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestPostLifecycle(t *testing.T) {
	env := newTestEnv(t, nil)
	aliceID, alice := env.signup("alice@example.com", "alice")
	_, bob := env.signup("bob@example.com", "bob")

	var p post
	resp := env.do(http.MethodPost, "/posts", alice, map[string]any{"content": "fmt.Println(1)", "language": "go"}, &p)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Len(t, p.ID, 8)
	assert.Equal(t, aliceID, p.OwnerID)
	assert.Nil(t, p.Name)
	assert.True(t, p.CreatedAt.Equal(t0))

	var got post
	resp = env.do(http.MethodGet, "/posts/"+p.ID, "", nil, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, p, got)

	var e apiError
	resp = env.do(http.MethodPatch, "/posts/"+p.ID, bob, map[string]any{"content": "mine now"}, &e)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(http.MethodPatch, "/posts/"+p.ID, alice, map[string]any{"content": nil}, &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "content", e.Field)

	env.clock.Advance(time.Minute)
	resp = env.do(http.MethodPatch, "/posts/"+p.ID, alice, map[string]any{"name": "hello", "language": nil}, &got)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, got.Name)
	assert.Equal(t, "hello", *got.Name)
	assert.Nil(t, got.Language)
	assert.Equal(t, "fmt.Println(1)", got.Content)
	assert.True(t, got.UpdatedAt.Equal(t0.Add(time.Minute)))

	resp = env.do(http.MethodDelete, "/posts/"+p.ID, bob, nil, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = env.do(http.MethodDelete, "/posts/"+p.ID, alice, nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(http.MethodGet, "/posts/"+p.ID, "", nil, &e)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestCreatePost_RequiresVerifiedAccount(t *testing.T) {
	env := newTestEnv(t, nil)

	var a account
	env.do(http.MethodPost, "/users", "", map[string]any{"email": "c@example.com", "password": "secret"}, nil)
	resp := env.do(http.MethodPost, "/users/login", "", map[string]any{"email": "c@example.com", "password": "secret"}, &a)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var e apiError
	resp = env.do(http.MethodPost, "/posts", a.AccessToken, map[string]any{"content": "x"}, &e)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(http.MethodPost, "/posts", a.AccessToken, map[string]any{"name": "no content"}, &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "content", e.Field)
}

func TestUnauthorizedResponsesAreUniform(t *testing.T) {
	env := newTestEnv(t, nil)
	id, token := env.signup("alice@example.com", "alice")

	expired, err := env.codec.Encode(id)
	require.NoError(t, err)
	env.clock.Advance(time.Hour)
	_, token = env.signup("bob@example.com", "bob")

	// a well-formed credential for an account that does not exist
	ghost, err := env.codec.Encode("0b6f8c57-5b0f-4d7e-9d43-2f5a7f1d0e11")
	require.NoError(t, err)

	cases := map[string]string{
		"missing":   "",
		"garbage":   "not-a-jwt",
		"expired":   expired,
		"unknown":   ghost,
		"signature": token[:strings.LastIndex(token, ".")+1] + "AAAA",
	}
	for name, cred := range cases {
		t.Run(name, func(t *testing.T) {
			var e apiError
			resp := env.do(http.MethodPost, "/posts", cred, map[string]any{"content": "x"}, &e)
			assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
			assert.Equal(t, "unauthorized", e.Error)
		})
	}
}

func TestPasswordResetInvalidatesOlderCredentials(t *testing.T) {
	env := newTestEnv(t, nil)
	_, oldToken := env.signup("alice@example.com", "alice")

	env.clock.Advance(time.Minute)
	resp := env.do(http.MethodPost, "/users/password-reset", oldToken, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	code := env.sender.lastCode(t)

	resp = env.do(http.MethodPost, "/users/password-reset/"+code, oldToken, map[string]any{"password": "fresh-secret"}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "access_token=;")

	var e apiError
	resp = env.do(http.MethodGet, "/users/me", oldToken, nil, &e)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// lenient routes only decode the credential
	resp = env.do(http.MethodPatch, "/posts/nothere", oldToken, map[string]any{"content": "x"}, &e)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	var a account
	resp = env.do(http.MethodPost, "/users/login", "", map[string]any{"email": "alice@example.com", "password": "fresh-secret"}, &a)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp = env.do(http.MethodGet, "/users/me", a.AccessToken, nil, &a)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@example.com", a.Email)
}

func TestStrictCredentialsOnMutations(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.StrictCredentials = true })
	_, token := env.signup("alice@example.com", "alice")

	env.clock.Advance(time.Minute)
	resp := env.do(http.MethodPost, "/users/password-reset", token, nil, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp = env.do(http.MethodPost, "/users/password-reset/"+env.sender.lastCode(t), token, map[string]any{"password": "fresh-secret"}, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	var e apiError
	resp = env.do(http.MethodDelete, "/posts/nothere", token, nil, &e)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestVerificationCodeErrors(t *testing.T) {
	env := newTestEnv(t, nil)

	var a account
	env.do(http.MethodPost, "/users", "", map[string]any{"email": "v@example.com", "password": "secret"}, nil)
	env.do(http.MethodPost, "/users/login", "", map[string]any{"email": "v@example.com", "password": "secret"}, &a)
	token := a.AccessToken

	var e apiError
	resp := env.do(http.MethodPost, "/users/verify/0b6f8c57-5b0f-4d7e-9d43-2f5a7f1d0e11", token, nil, &e)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	env.do(http.MethodPost, "/users/verify", token, nil, nil)
	resp = env.do(http.MethodPost, "/users/verify/0b6f8c57-5b0f-4d7e-9d43-2f5a7f1d0e11", token, nil, &e)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(http.MethodPost, "/users/verify/not-a-uuid", token, nil, &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "code", e.Field)

	code := env.sender.lastCode(t)
	env.clock.Advance(24*time.Hour + time.Minute)
	fresh, err := env.codec.Encode(a.ID)
	require.NoError(t, err)
	resp = env.do(http.MethodPost, "/users/verify/"+code, fresh, nil, &e)
	assert.Equal(t, http.StatusGone, resp.StatusCode)
}

func TestUsers(t *testing.T) {
	env := newTestEnv(t, nil)
	aliceID, alice := env.signup("alice@example.com", "alice")
	bobID, _ := env.signup("bob@example.com", "bob")

	var e apiError
	resp := env.do(http.MethodPost, "/users", "", map[string]any{"email": "alice@example.com", "password": "secret"}, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Contains(t, e.Error, "email")

	resp = env.do(http.MethodPost, "/users", "", map[string]any{"email": "bad", "password": "secret"}, &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "email", e.Field)

	var a account
	resp = env.do(http.MethodGet, "/users/"+bobID, "", nil, &a)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "bob@example.com", a.Email)

	resp = env.do(http.MethodGet, "/users/nope", "", nil, &e)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = env.do(http.MethodPatch, "/users/"+bobID, alice, map[string]any{"name": "x"}, &e)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = env.do(http.MethodPatch, "/users/"+aliceID, alice, map[string]any{"name": "bob"}, &e)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = env.do(http.MethodPatch, "/users/"+aliceID, alice, map[string]any{"email": "alice@new.example.com", "name": nil}, &a)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "alice@new.example.com", a.Email)
	assert.Nil(t, a.Name)
	assert.False(t, a.Verified)

	resp = env.do(http.MethodPost, "/users/login", "", map[string]any{"email": "alice@new.example.com", "password": "wrong"}, &e)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = env.do(http.MethodPost, "/users/login", "", map[string]any{"password": "secret"}, &e)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCookieCredential(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.CredentialSource = config.CredentialSourceCookie })

	env.do(http.MethodPost, "/users", "", map[string]any{"email": "k@example.com", "password": "secret"}, nil)

	req, err := http.NewRequest(http.MethodPost, env.srv.URL+"/users/login", strings.NewReader(`{"email":"k@example.com","password":"secret"}`))
	require.NoError(t, err)
	resp, err := env.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cookie *http.Cookie
	for _, c := range resp.Cookies() {
		if c.Name == "access_token" {
			cookie = c
		}
	}
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 15*60, cookie.MaxAge)

	req, _ = http.NewRequest(http.MethodGet, env.srv.URL+"/users/me", nil)
	req.AddCookie(cookie)
	resp, err = env.srv.Client().Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	// header credentials are ignored in cookie mode
	var e apiError
	resp = env.do(http.MethodGet, "/users/me", cookie.Value, nil, &e)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp = env.do(http.MethodPost, "/users/logout", "", nil, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Set-Cookie"), "Max-Age=0")
}

func TestRawPost(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.signup("alice@example.com", "alice")

	var p post
	env.do(http.MethodPost, "/posts", token, map[string]any{"content": "line 1\nline 2"}, &p)

	resp, err := env.srv.Client().Get(env.srv.URL + "/posts/" + p.ID + "/raw")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	assert.Equal(t, "line 1\nline 2", string(body))
}

type keysetPage struct {
	Data  []post  `json:"data"`
	Token *string `json:"token"`
}

func seedPosts(t *testing.T, env *testEnv, token string, contents ...string) {
	t.Helper()
	for _, c := range contents {
		resp := env.do(http.MethodPost, "/posts", token, map[string]any{"content": c}, nil)
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		env.clock.Advance(time.Second)
	}
}

func TestListPosts_Keyset(t *testing.T) {
	env := newTestEnv(t, nil)
	_, token := env.signup("alice@example.com", "alice")
	seedPosts(t, env, token, "one", "two", "three", "four")

	var contents []string
	q := url.Values{"sort": {"createdAt:asc"}, "count": {"2"}}
	for i := 0; i < 3; i++ {
		var page keysetPage
		resp := env.do(http.MethodGet, "/posts?"+q.Encode(), "", nil, &page)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		if len(page.Data) == 0 {
			assert.Nil(t, page.Token)
			break
		}
		require.NotNil(t, page.Token)
		for _, p := range page.Data {
			contents = append(contents, p.Content)
		}
		q.Set("token", *page.Token)
	}
	assert.Equal(t, []string{"one", "two", "three", "four"}, contents)
}

func TestListPosts_InvalidParameters(t *testing.T) {
	env := newTestEnv(t, nil)

	cases := []struct {
		query string
		field string
	}{
		{"sort=size:asc", "sort"},
		{"sort=createdAt", "sort"},
		{"count=4", "count"},
		{"count=-1", "count"},
		{"count=many", "count"},
		{"sort=createdAt:asc&token=yesterday", "token"},
		{"createdAt=around:2024-01-01T00:00:00Z", "createdAt"},
		{"ownerId=alice", "ownerId"},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			var e apiError
			resp := env.do(http.MethodGet, "/posts?"+tc.query, "", nil, &e)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.field, e.Field)
		})
	}
}

func TestListPosts_Offset(t *testing.T) {
	env := newTestEnv(t, func(cfg *config.Config) { cfg.PaginationMode = config.PaginationOffset })
	_, token := env.signup("alice@example.com", "alice")
	seedPosts(t, env, token, "one", "two", "three", "four")

	var page struct {
		Data       []post `json:"data"`
		HasMore    bool   `json:"hasMore"`
		TotalCount int    `json:"totalCount"`
	}
	resp := env.do(http.MethodGet, "/posts?limit=3", "", nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Len(t, page.Data, 3)
	assert.True(t, page.HasMore)
	assert.Equal(t, 4, page.TotalCount)
	assert.Equal(t, "four", page.Data[0].Content)

	page.Data = nil
	resp = env.do(http.MethodGet, "/posts?skip=3&limit=3", "", nil, &page)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, page.Data, 1)
	assert.False(t, page.HasMore)
	assert.Equal(t, "one", page.Data[0].Content)
}
