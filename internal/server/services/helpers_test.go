package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/dmitrijs2005/snipbin/internal/dbx"
	"github.com/dmitrijs2005/snipbin/internal/server/config"
	"github.com/dmitrijs2005/snipbin/internal/server/mail"
	"github.com/dmitrijs2005/snipbin/internal/server/repositories/repomanager"
)

var t0 = time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

// clock is a settable time source.
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

func testConfig() *config.Config {
	cfg := &config.Config{}
	cfg.LoadDefaults()
	cfg.Storage = config.StorageMemory
	cfg.MaxPageSize = 3
	return cfg
}

func newMemoryBackend() (dbx.Transactor, *repomanager.MemoryRepositoryManager) {
	return dbx.NewLockTransactor(), repomanager.NewMemoryRepositoryManager()
}

// sequence returns ids from a fixed list, then panics.
func sequence(ids ...string) func() string {
	var mu sync.Mutex
	return func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}
}

type fakeContent struct {
	mu      sync.Mutex
	objects map[string]string
	err     error
}

func newFakeContent() *fakeContent { return &fakeContent{objects: map[string]string{}} }

func (f *fakeContent) Put(ctx context.Context, id, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.objects[id] = content
	return nil
}

func (f *fakeContent) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	delete(f.objects, id)
	return nil
}

func (f *fakeContent) PresignGet(ctx context.Context, id string) (string, error) {
	return "http://s3.local/posts/" + id, nil
}

// plainHasher stores passwords with a prefix so tests stay fast.
type plainHasher struct{}

func (plainHasher) Hash(pw string) ([]byte, error) { return []byte("plain:" + pw), nil }

func (plainHasher) Compare(hash []byte, pw string) error {
	if string(hash) != "plain:"+pw {
		return errors.New("mismatch")
	}
	return nil
}

type fakeIssuer struct{ err error }

func (f fakeIssuer) Encode(subject string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "token-for-" + subject, nil
}

type recordingSender struct {
	sent []mail.Message
	err  error
}

func (r *recordingSender) Send(ctx context.Context, msg mail.Message) error {
	if r.err != nil {
		return r.err
	}
	r.sent = append(r.sent, msg)
	return nil
}
