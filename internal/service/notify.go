package service

import (
	"context"

	"skillshare/internal/models"
)

// Notifier is the notification creation side consumed by the services.
type Notifier interface {
	Notify(ctx context.Context, recipientID, senderID uint, typ models.NotificationType, content, entityID string) (*models.Notification, error)
	FanOutToFollowers(ctx context.Context, owner *models.User, typ models.NotificationType, content, entityID string) (int, error)
}

// notifyOwner notifies ownerID about an action by actor, skipping self-actions.
// The triggering change is already persisted, so a failure is reported as a
// delivery error rather than undoing anything.
func notifyOwner(ctx context.Context, n Notifier, ownerID uint, actor *models.User, typ models.NotificationType, content, entityID string) error {
	if n == nil || ownerID == actor.ID {
		return nil
	}
	if _, err := n.Notify(ctx, ownerID, actor.ID, typ, content, entityID); err != nil {
		return models.NewNotificationDeliveryError(err)
	}
	return nil
}
