package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/snipbin/internal/client/models"
	"github.com/dmitrijs2005/snipbin/internal/common"
)

// HTTPClient talks to the snipbin JSON API. It is not safe to change the
// token while requests are in flight.
type HTTPClient struct {
	baseURL string
	http    *http.Client
	token   string
}

// New returns a client for the API at baseURL. A nil hc means
// http.DefaultClient.
func New(baseURL string, hc *http.Client) *HTTPClient {
	if hc == nil {
		hc = http.DefaultClient
	}
	return &HTTPClient{baseURL: strings.TrimRight(baseURL, "/"), http: hc}
}

func (c *HTTPClient) SetToken(token string) { c.token = token }

func (c *HTTPClient) Token() string { return c.token }

// ListQuery selects a keyset page of GET /posts. Zero values are omitted.
type ListQuery struct {
	Sort     string
	Token    string
	Count    int
	OwnerID  string
	Language string
}

func (q ListQuery) values() url.Values {
	v := url.Values{}
	if q.Sort != "" {
		v.Set("sort", q.Sort)
	}
	if q.Token != "" {
		v.Set("token", q.Token)
	}
	if q.Count > 0 {
		v.Set("count", strconv.Itoa(q.Count))
	}
	if q.OwnerID != "" {
		v.Set("ownerId", q.OwnerID)
	}
	if q.Language != "" {
		v.Set("language", q.Language)
	}
	return v
}

// Login signs in by email when login contains '@' and by account name
// otherwise. The issued credential is kept for later requests.
func (c *HTTPClient) Login(ctx context.Context, login, password string) (*models.LoginResult, error) {
	body := map[string]string{"password": password}
	if strings.Contains(login, "@") {
		body["email"] = login
	} else {
		body["name"] = login
	}

	var res models.LoginResult
	if err := c.do(ctx, http.MethodPost, "/users/login", nil, body, &res); err != nil {
		return nil, err
	}
	c.token = res.AccessToken
	return &res, nil
}

func (c *HTTPClient) GetPost(ctx context.Context, id string) (*models.Post, error) {
	var p models.Post
	if err := c.do(ctx, http.MethodGet, "/posts/"+url.PathEscape(id), nil, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) CreatePost(ctx context.Context, in models.NewPost) (*models.Post, error) {
	if c.token == "" {
		return nil, ErrNotLoggedIn
	}
	var p models.Post
	if err := c.do(ctx, http.MethodPost, "/posts", nil, in, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ListPosts fetches one keyset page.
func (c *HTTPClient) ListPosts(ctx context.Context, q ListQuery) (*models.Page, error) {
	var page models.Page
	if err := c.do(ctx, http.MethodGet, "/posts", q.values(), nil, &page); err != nil {
		return nil, err
	}
	return &page, nil
}

// ListAllPosts follows continuation tokens from q until the server returns
// an empty page.
func (c *HTTPClient) ListAllPosts(ctx context.Context, q ListQuery) ([]*models.Post, error) {
	var all []*models.Post
	for {
		page, err := c.ListPosts(ctx, q)
		if err != nil {
			return nil, err
		}
		if len(page.Data) == 0 {
			return all, nil
		}
		all = append(all, page.Data...)
		if page.Token == nil {
			return all, nil
		}
		q.Token = *page.Token
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(common.AuthorizationHeaderName, common.BearerScheme+" "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		apiErr := &APIError{Status: resp.StatusCode}
		_ = json.NewDecoder(resp.Body).Decode(apiErr)
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
