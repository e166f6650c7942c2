package posts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/snipbin/internal/common"
	"github.com/dmitrijs2005/snipbin/internal/dbx"
	"github.com/dmitrijs2005/snipbin/internal/server/models"
	"github.com/dmitrijs2005/snipbin/internal/server/pagination"
)

const selectColumns = `id, owner_id, content, name, language, created_at, updated_at`

// PostgresRepository implements Repository over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Insert(ctx context.Context, post *models.Post) error {
	query :=
		`INSERT INTO posts (id, owner_id, content, name, language, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.ExecContext(ctx, query,
		post.ID, post.OwnerID, post.Content, post.Name, post.Language, post.CreatedAt, post.UpdatedAt)
	if err != nil {
		if _, ok := dbx.UniqueViolation(err); ok {
			return fmt.Errorf("db error: %w", &common.DuplicateKeyError{Key: "id", Value: post.ID})
		}
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.Post, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM posts WHERE id = $1`, id)
}

func (r *PostgresRepository) GetForUpdate(ctx context.Context, id string) (*models.Post, error) {
	return r.getOne(ctx, `SELECT `+selectColumns+` FROM posts WHERE id = $1 FOR UPDATE`, id)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, id string) (*models.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return post, nil
}

func (r *PostgresRepository) Update(ctx context.Context, post *models.Post) error {
	query :=
		`UPDATE posts SET content = $2, name = $3, language = $4, updated_at = $5
		 WHERE id = $1`

	res, err := r.db.ExecContext(ctx, query, post.ID, post.Content, post.Name, post.Language, post.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Find(ctx context.Context, q pagination.Query) ([]*models.Post, error) {
	query, args := buildFindQuery(q)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := make([]*models.Post, 0, q.Limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, post)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Count(ctx context.Context, f pagination.Filter) (int, error) {
	var b queryBuilder
	b.where(f)

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts`+b.whereClause(), b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

var columns = map[pagination.SortKey]string{
	pagination.KeyID:        "id",
	pagination.KeyName:      "name",
	pagination.KeyCreatedAt: "created_at",
	pagination.KeyUpdatedAt: "updated_at",
}

type queryBuilder struct {
	conds []string
	args  []any
}

func (b *queryBuilder) arg(v any) string {
	b.args = append(b.args, v)
	return fmt.Sprintf("$%d", len(b.args))
}

func (b *queryBuilder) where(f pagination.Filter) {
	if f.OwnerID != nil {
		b.conds = append(b.conds, "owner_id = "+b.arg(*f.OwnerID))
	}
	if f.Language != nil {
		b.conds = append(b.conds, "language = "+b.arg(*f.Language))
	}
	if f.CreatedAt != nil {
		b.conds = append(b.conds, "created_at "+f.CreatedAt.Cmp.SQL()+" "+b.arg(f.CreatedAt.At))
	}
	if f.UpdatedAt != nil {
		b.conds = append(b.conds, "updated_at "+f.UpdatedAt.Cmp.SQL()+" "+b.arg(f.UpdatedAt.At))
	}
	if f.NamedOnly {
		b.conds = append(b.conds, "name IS NOT NULL")
	}
}

func (b *queryBuilder) whereClause() string {
	if len(b.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.conds, " AND ")
}

// buildFindQuery compiles q into a single SELECT. The cursor becomes a strict
// bound on the primary sort column.
func buildFindQuery(q pagination.Query) (string, []any) {
	var b queryBuilder
	b.where(q.Filter)

	if q.After != nil && len(q.Order) > 0 {
		op := ">"
		if q.Order[0].Dir == pagination.Desc {
			op = "<"
		}
		b.conds = append(b.conds, columns[q.Order[0].Key]+" "+op+" "+b.arg(pagination.Value(q.After)))
	}

	var sb strings.Builder
	sb.WriteString(`SELECT ` + selectColumns + ` FROM posts`)
	sb.WriteString(b.whereClause())

	if len(q.Order) > 0 {
		order := make([]string, len(q.Order))
		for i, f := range q.Order {
			order[i] = columns[f.Key] + " " + strings.ToUpper(string(f.Dir))
		}
		sb.WriteString(" ORDER BY " + strings.Join(order, ", "))
	}
	if q.Limit > 0 {
		sb.WriteString(" LIMIT " + b.arg(q.Limit))
	}
	if q.Offset > 0 {
		sb.WriteString(" OFFSET " + b.arg(q.Offset))
	}

	return sb.String(), b.args
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPost(s scanner) (*models.Post, error) {
	var (
		post           models.Post
		name, language sql.NullString
	)
	if err := s.Scan(&post.ID, &post.OwnerID, &post.Content, &name, &language, &post.CreatedAt, &post.UpdatedAt); err != nil {
		return nil, err
	}
	if name.Valid {
		post.Name = &name.String
	}
	if language.Valid {
		post.Language = &language.String
	}
	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.UpdatedAt.UTC()
	return &post, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	switch n {
	case 1:
		return nil
	case 0:
		return common.ErrorNotFound
	default:
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
}
