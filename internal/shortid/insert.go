package shortid

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/snipbin/internal/common"
)

// InsertUnique builds a record around a freshly generated id and inserts it,
// drawing a new id whenever the store reports common.ErrDuplicateKey.
//
// There is no retry cap: with a reasonable id length collisions are rare and
// the loop ends on the first free id. Any other insert error is returned
// unchanged, and a cancelled ctx stops the loop between attempts.
func InsertUnique[T any](
	ctx context.Context,
	next func() string,
	build func(id string) T,
	insert func(ctx context.Context, rec T) error,
) (T, error) {
	for {
		if err := ctx.Err(); err != nil {
			var zero T
			return zero, err
		}

		rec := build(next())

		err := insert(ctx, rec)
		if err == nil {
			return rec, nil
		}
		if !errors.Is(err, common.ErrDuplicateKey) {
			var zero T
			return zero, err
		}
	}
}
