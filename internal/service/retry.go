package service

import (
	"context"
	"errors"

	"skillshare/internal/models"
	"skillshare/internal/observability"
)

const defaultCASAttempts = 5

// retryOnConflict runs fn until it stops failing with models.ErrStaleRecord.
// fn must re-read the record it writes on every call. Once attempts run out
// the stale write surfaces as a CONFLICT error for entity.
func retryOnConflict(ctx context.Context, attempts int, entity string, fn func() error) error {
	if attempts <= 0 {
		attempts = defaultCASAttempts
	}

	var err error
	for i := 0; i < attempts; i++ {
		err = fn()
		if !errors.Is(err, models.ErrStaleRecord) {
			return err
		}
		observability.OptimisticLockConflicts.WithLabelValues(entity).Inc()
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
	}
	return models.NewConflictError(entity, err)
}
