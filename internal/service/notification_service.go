package service

import (
	"context"

	"skillshare/internal/cache"
	"skillshare/internal/models"
	"skillshare/internal/repository"
)

// NotificationService is the recipient side of the inbox: listing and read state.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	userRepo         repository.UserRepository
}

func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	userRepo repository.UserRepository,
) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo, userRepo: userRepo}
}

// List returns the recipient's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, recipientEmail string, limit, offset int) ([]models.Notification, error) {
	user, err := resolveActor(ctx, s.userRepo, recipientEmail)
	if err != nil {
		return nil, err
	}
	return s.notificationRepo.ListByUser(ctx, user.ID, limit, offset)
}

// MarkRead flags one notification as read. Marking it again is harmless.
// Another user's notification reports NotFound, the same as a missing id.
func (s *NotificationService) MarkRead(ctx context.Context, recipientEmail string, notificationID uint) (*models.Notification, error) {
	user, err := resolveActor(ctx, s.userRepo, recipientEmail)
	if err != nil {
		return nil, err
	}
	n, err := s.notificationRepo.GetByID(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	if n.UserID != user.ID {
		return nil, models.NewNotFoundError("Notification", notificationID)
	}
	if n.Read {
		return n, nil
	}

	if err := s.notificationRepo.MarkRead(ctx, n.ID); err != nil {
		return nil, err
	}
	cache.InvalidateUnreadCount(ctx, user.ID)
	n.Read = true
	return n, nil
}

// MarkAllRead flips every unread notification one at a time and returns how
// many were flipped. It stops at the first failure; earlier flips stay.
func (s *NotificationService) MarkAllRead(ctx context.Context, recipientEmail string) (int, error) {
	user, err := resolveActor(ctx, s.userRepo, recipientEmail)
	if err != nil {
		return 0, err
	}
	unread, err := s.notificationRepo.ListUnread(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	if len(unread) == 0 {
		return 0, nil
	}
	defer cache.InvalidateUnreadCount(ctx, user.ID)

	marked := 0
	for i := range unread {
		if err := s.notificationRepo.MarkRead(ctx, unread[i].ID); err != nil {
			return marked, err
		}
		marked++
	}
	return marked, nil
}

func (s *NotificationService) UnreadCount(ctx context.Context, recipientEmail string) (int64, error) {
	user, err := resolveActor(ctx, s.userRepo, recipientEmail)
	if err != nil {
		return 0, err
	}
	var count int64
	err = cache.Aside(ctx, cache.UnreadCountKey(user.ID), &count, cache.UnreadCountTTL, func() error {
		n, err := s.notificationRepo.CountUnread(ctx, user.ID)
		if err != nil {
			return err
		}
		count = n
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}
