// Package notifications creates inbox entries for users, one at a time or
// fanned out to every follower of an actor.
package notifications

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"skillshare/internal/cache"
	"skillshare/internal/middleware"
	"skillshare/internal/models"
	"skillshare/internal/observability"
	"skillshare/internal/repository"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
)

const defaultConcurrency = 8

// Dispatcher writes notification records. Writes are independent: a failed
// write never undoes another one.
type Dispatcher struct {
	repo        repository.NotificationRepository
	concurrency int
}

// NewDispatcher returns a Dispatcher that runs at most concurrency writes in parallel per fan-out.
func NewDispatcher(repo repository.NotificationRepository, concurrency int) *Dispatcher {
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &Dispatcher{repo: repo, concurrency: concurrency}
}

// Notify creates one notification for recipientID. There is no deduplication.
func (d *Dispatcher) Notify(
	ctx context.Context,
	recipientID, senderID uint,
	typ models.NotificationType,
	content, entityID string,
) (*models.Notification, error) {
	if !typ.Valid() {
		return nil, models.NewValidationError(fmt.Sprintf("unknown notification type %q", typ))
	}
	if recipientID == 0 {
		return nil, models.NewValidationError("notification recipient is required")
	}

	n := &models.Notification{
		UserID:   recipientID,
		SenderID: senderID,
		Type:     typ,
		Content:  content,
		EntityID: entityID,
	}
	if err := d.repo.Create(ctx, n); err != nil {
		observability.NotificationFailures.WithLabelValues(string(typ)).Inc()
		return nil, err
	}

	observability.NotificationsCreated.WithLabelValues(string(typ)).Inc()
	cache.InvalidateUnreadCount(ctx, recipientID)
	return n, nil
}

// FanOutToFollowers sends the same notification to every follower of owner.
// It returns how many notifications were created along with every failure
// joined into one error.
func (d *Dispatcher) FanOutToFollowers(
	ctx context.Context,
	owner *models.User,
	typ models.NotificationType,
	content, entityID string,
) (int, error) {
	recipients := models.DedupeIDs(owner.Followers, owner.ID)
	observability.FanOutAudience.Observe(float64(len(recipients)))

	span, ctx := observability.StartOperation(ctx, "notifications", "FanOutToFollowers", owner.ID)
	defer span.End()
	span.AddAttributes(
		attribute.String("notification.type", string(typ)),
		attribute.Int("fanout.audience", len(recipients)),
	)

	if len(recipients) == 0 {
		return 0, nil
	}

	var (
		created atomic.Int64
		mu      sync.Mutex
		errs    []error
	)

	var g errgroup.Group
	g.SetLimit(d.concurrency)
	for _, recipientID := range recipients {
		recipientID := recipientID
		g.Go(func() error {
			if _, err := d.Notify(ctx, recipientID, owner.ID, typ, content, entityID); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("notify user %d: %w", recipientID, err))
				mu.Unlock()
				return nil
			}
			created.Add(1)
			return nil
		})
	}
	_ = g.Wait()

	sent := int(created.Load())
	span.AddAttributes(attribute.Int("fanout.created", sent))

	err := errors.Join(errs...)
	if err != nil {
		span.SetError(err)
		middleware.Logger.WarnContext(ctx, "follower fan-out partially failed",
			slog.Uint64("owner_id", uint64(owner.ID)),
			slog.String("type", string(typ)),
			slog.Int("audience", len(recipients)),
			slog.Int("created", sent),
			slog.Int("failed", len(errs)),
		)
	}
	return sent, err
}
