// Package services contains server-side business logic: posts (creation
// under collision-safe short ids, ownership-checked updates, listings) and
// accounts (registration, login, verification and password reset).
package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/dbx"
	"github.com/dmitrijs2005/snipbin/internal/logging"
	"github.com/dmitrijs2005/snipbin/internal/server/config"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/dmitrijs2005/snipbin/internal/server/pagination"
	"github.com/dmitrijs2005/snipbin/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/snipbin/internal/shortid"
	"github.com/google/uuid"
)

// ContentStore mirrors raw post content outside the database.
type ContentStore interface {
	Put(ctx context.Context, postID, content string) error
	Delete(ctx context.Context, postID string) error
	PresignGet(ctx context.Context, postID string) (string, error)
}

// PostService implements post creation, lookup, listing, update and
// deletion on top of the post repository.
type PostService struct {
	tx              dbx.Transactor
	repomanager     repomanager.RepositoryManager
	engine          *pagination.Engine
	content         ContentStore
	newID           func() string
	requireVerified bool
	now             func() time.Time
	log             logging.Logger
}

// PostOption customizes a PostService.
type PostOption func(*PostService)

// WithContentStore enables the raw-content mirror.
func WithContentStore(cs ContentStore) PostOption {
	return func(s *PostService) { s.content = cs }
}

// WithIDSource replaces the id generator.
func WithIDSource(next func() string) PostOption {
	return func(s *PostService) { s.newID = next }
}

// WithPostClock replaces time.Now.
func WithPostClock(now func() time.Time) PostOption {
	return func(s *PostService) { s.now = now }
}

func NewPostService(tx dbx.Transactor, m repomanager.RepositoryManager, cfg *config.Config, log logging.Logger, opts ...PostOption) *PostService {
	s := &PostService{
		tx:              tx,
		repomanager:     m,
		engine:          pagination.NewEngine(m.Posts(tx.Conn()), cfg.MaxPageSize),
		newID:           shortid.NewGenerator(nil).Func(cfg.ShortIDLength),
		requireVerified: cfg.RequireVerifiedToPost,
		now:             time.Now,
		log:             log.With("module", "posts"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// timestamp is the current time as stored: UTC, microsecond precision.
func (s *PostService) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Microsecond)
}

func (s *PostService) Get(ctx context.Context, id string) (*models.Post, error) {
	return s.repomanager.Posts(s.tx.Conn()).GetByID(ctx, id)
}

// List returns one keyset page.
func (s *PostService) List(ctx context.Context, p pagination.Params) (*pagination.Page, error) {
	return s.engine.Paginate(ctx, p)
}

// ListOffset returns one offset page.
func (s *PostService) ListOffset(ctx context.Context, p pagination.OffsetParams) (*pagination.OffsetPage, error) {
	return s.engine.PaginateOffset(ctx, p)
}

// Create stores a new post owned by owner under a fresh short id. The
// account must be verified unless the server allows otherwise.
func (s *PostService) Create(ctx context.Context, owner *models.Account, in models.NewPost) (*models.Post, error) {
	if s.requireVerified && !owner.Verified {
		return nil, common.ErrNotVerified
	}
	if err := validatePostFields(&in.Content, in.Name, in.Language); err != nil {
		return nil, err
	}

	now := s.timestamp()
	repo := s.repomanager.Posts(s.tx.Conn())

	post, err := shortid.InsertUnique(ctx, s.newID,
		func(id string) *models.Post {
			return &models.Post{
				ID:        id,
				OwnerID:   owner.ID,
				Content:   in.Content,
				Name:      in.Name,
				Language:  in.Language,
				CreatedAt: now,
				UpdatedAt: now,
			}
		},
		repo.Insert,
	)
	if err != nil {
		return nil, fmt.Errorf("error creating post: %w", err)
	}

	s.mirror(ctx, post)
	return post, nil
}

// Update applies patch to the post if userID owns it. An empty patch
// returns the post unchanged.
func (s *PostService) Update(ctx context.Context, userID uuid.UUID, id string, patch models.PostPatch) (*models.Post, error) {
	if err := validatePostFields(patch.Content, patch.Name.Value, patch.Language.Value); err != nil {
		return nil, err
	}

	var post *models.Post
	err := s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Posts(tx)

		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.OwnerID != userID {
			return common.ErrForbidden
		}
		if patch.Empty() {
			post = p
			return nil
		}

		patch.Apply(p)
		p.UpdatedAt = s.timestamp()
		if p.UpdatedAt.Before(p.CreatedAt) {
			p.UpdatedAt = p.CreatedAt
		}
		if err := repo.Update(ctx, p); err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		return nil, err
	}

	if patch.Content != nil {
		s.mirror(ctx, post)
	}
	return post, nil
}

// Delete removes the post if userID owns it.
func (s *PostService) Delete(ctx context.Context, userID uuid.UUID, id string) error {
	err := s.tx.InTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Posts(tx)

		p, err := repo.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if p.OwnerID != userID {
			return common.ErrForbidden
		}
		return repo.Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	if s.content != nil {
		if err := s.content.Delete(ctx, id); err != nil {
			s.log.Warn(ctx, "content mirror delete failed", "id", id, "error", err)
		}
	}
	return nil
}

// RawURL returns a download link for the mirrored content of post id, or ""
// when no mirror is configured. A missing post yields common.ErrorNotFound.
func (s *PostService) RawURL(ctx context.Context, id string) (string, error) {
	if s.content == nil {
		return "", nil
	}
	if _, err := s.Get(ctx, id); err != nil {
		return "", err
	}
	return s.content.PresignGet(ctx, id)
}

// mirror copies the post content to the content store. Failures are logged
// and otherwise ignored; the database stays the source of truth.
func (s *PostService) mirror(ctx context.Context, p *models.Post) {
	if s.content == nil {
		return
	}
	if err := s.content.Put(ctx, p.ID, p.Content); err != nil {
		s.log.Warn(ctx, "content mirror put failed", "id", p.ID, "error", err)
	}
}

func validatePostFields(content, name, language *string) error {
	if content != nil && len(*content) > common.ContentMaxLen {
		return common.NewFieldError("content", fmt.Errorf("%w: at most %d bytes", common.ErrValidation, common.ContentMaxLen))
	}
	if name != nil && utf8.RuneCountInString(*name) > common.NameMaxLen {
		return common.NewFieldError("name", fmt.Errorf("%w: at most %d characters", common.ErrValidation, common.NameMaxLen))
	}
	if language != nil && utf8.RuneCountInString(*language) > common.LanguageMaxLen {
		return common.NewFieldError("language", fmt.Errorf("%w: at most %d characters", common.ErrValidation, common.LanguageMaxLen))
	}
	return nil
}
