package service

import (
	"context"
	"fmt"
	"strconv"

	"skillshare/internal/featureflags"
	"skillshare/internal/models"
	"skillshare/internal/observability"
	"skillshare/internal/repository"
)

// GraphService maintains the follow graph. Every edge is stored twice, in the
// follower's Following list and in the target's Followers list; each side is
// written on its own so a retry after a partial failure completes the edge.
type GraphService struct {
	userRepo    repository.UserRepository
	notifier    Notifier
	flags       *featureflags.Manager
	casAttempts int
}

func NewGraphService(
	userRepo repository.UserRepository,
	notifier Notifier,
	flags *featureflags.Manager,
	casAttempts int,
) *GraphService {
	return &GraphService{
		userRepo:    userRepo,
		notifier:    notifier,
		flags:       flags,
		casAttempts: casAttempts,
	}
}

// Follow makes the actor follow targetID. Following an existing edge is a no-op.
// The returned profile is the target as seen by the follower.
func (s *GraphService) Follow(ctx context.Context, followerEmail string, targetID uint) (*models.Profile, error) {
	follower, err := resolveActor(ctx, s.userRepo, followerEmail)
	if err != nil {
		return nil, err
	}
	if follower.ID == targetID {
		return nil, models.NewSelfReferenceError("You cannot follow yourself")
	}

	span, ctx := observability.StartOperation(ctx, "graph", "Follow", follower.ID)
	defer span.End()

	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		span.SetError(err)
		return nil, err
	}

	created := false
	err = retryOnConflict(ctx, s.casAttempts, "User", func() error {
		f, err := s.userRepo.GetForUpdate(ctx, follower.ID)
		if err != nil {
			return err
		}
		if !f.AddFollowing(targetID) {
			follower = f
			return nil
		}
		if err := s.userRepo.Update(ctx, f); err != nil {
			return err
		}
		follower, created = f, true
		return nil
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	var target *models.User
	err = retryOnConflict(ctx, s.casAttempts, "User", func() error {
		t, err := s.userRepo.GetForUpdate(ctx, targetID)
		if err != nil {
			return err
		}
		target = t
		if !t.AddFollower(follower.ID) {
			return nil
		}
		return s.userRepo.Update(ctx, t)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	profile := models.NewProfile(target, follower)
	if created && s.flags.Enabled(featureflags.FlagFollowNotifications, target.ID) {
		content := fmt.Sprintf("%s started following you", follower.DisplayName())
		entityID := strconv.FormatUint(uint64(follower.ID), 10)
		if err := notifyOwner(ctx, s.notifier, target.ID, follower, models.NotificationFollow, content, entityID); err != nil {
			return &profile, err
		}
	}
	return &profile, nil
}

// Unfollow removes the edge from both sides. A missing edge is not an error.
func (s *GraphService) Unfollow(ctx context.Context, followerEmail string, targetID uint) (*models.Profile, error) {
	follower, err := resolveActor(ctx, s.userRepo, followerEmail)
	if err != nil {
		return nil, err
	}
	if follower.ID == targetID {
		return nil, models.NewSelfReferenceError("You cannot unfollow yourself")
	}

	span, ctx := observability.StartOperation(ctx, "graph", "Unfollow", follower.ID)
	defer span.End()

	if _, err := s.userRepo.GetByID(ctx, targetID); err != nil {
		span.SetError(err)
		return nil, err
	}

	err = retryOnConflict(ctx, s.casAttempts, "User", func() error {
		f, err := s.userRepo.GetForUpdate(ctx, follower.ID)
		if err != nil {
			return err
		}
		follower = f
		if !f.RemoveFollowing(targetID) {
			return nil
		}
		return s.userRepo.Update(ctx, f)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	var target *models.User
	err = retryOnConflict(ctx, s.casAttempts, "User", func() error {
		t, err := s.userRepo.GetForUpdate(ctx, targetID)
		if err != nil {
			return err
		}
		target = t
		if !t.RemoveFollower(follower.ID) {
			return nil
		}
		return s.userRepo.Update(ctx, t)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	profile := models.NewProfile(target, follower)
	return &profile, nil
}

// ListFollowers returns the users following userID in the order they followed.
func (s *GraphService) ListFollowers(ctx context.Context, userID uint, viewerEmail string) ([]models.FollowEntry, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.followEntries(ctx, user.Followers, viewerEmail)
}

// ListFollowing returns the users that userID follows in the order they were followed.
func (s *GraphService) ListFollowing(ctx context.Context, userID uint, viewerEmail string) ([]models.FollowEntry, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.followEntries(ctx, user.Following, viewerEmail)
}

func (s *GraphService) followEntries(ctx context.Context, ids []uint, viewerEmail string) ([]models.FollowEntry, error) {
	viewer, err := resolveViewer(ctx, s.userRepo, viewerEmail)
	if err != nil {
		return nil, err
	}

	users, err := s.userRepo.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]*models.User, len(users))
	for i := range users {
		byID[users[i].ID] = &users[i]
	}

	entries := make([]models.FollowEntry, 0, len(ids))
	for _, id := range ids {
		u, ok := byID[id]
		if !ok {
			continue
		}
		entry := models.FollowEntry{AuthorSummary: u.Summary(), Bio: u.Bio}
		if viewer != nil {
			entry.IsFollowing = viewer.IsFollowing(id)
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
