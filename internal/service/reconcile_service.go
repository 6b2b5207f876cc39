package service

import (
	"context"
	"log/slog"
	"slices"

	"skillshare/internal/middleware"
	"skillshare/internal/models"
	"skillshare/internal/observability"
	"skillshare/internal/repository"
)

const reconcileBatchSize = 100

// ReconcileReport counts what a reconcile pass looked at and fixed.
type ReconcileReport struct {
	PostsScanned   int `json:"posts_scanned"`
	PostsRepaired  int `json:"posts_repaired"`
	UsersScanned   int `json:"users_scanned"`
	EdgesRepaired  int `json:"edges_repaired"`
	ListsCompacted int `json:"lists_compacted"`
}

// ReconcileService repairs drift that concurrent writers can leave behind:
// counters that disagree with their lists and follow edges stored on one side only.
type ReconcileService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	casAttempts int
}

func NewReconcileService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	casAttempts int,
) *ReconcileService {
	return &ReconcileService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		casAttempts: casAttempts,
	}
}

// ReconcilePosts resets likesCount to the deduplicated likedBy length and
// commentsCount to the live comment count.
func (s *ReconcileService) ReconcilePosts(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	for offset := 0; ; offset += reconcileBatchSize {
		posts, err := s.postRepo.List(ctx, reconcileBatchSize, offset)
		if err != nil {
			return report, err
		}
		for i := range posts {
			report.PostsScanned++
			repaired, err := s.reconcilePost(ctx, posts[i].ID)
			if err != nil {
				return report, err
			}
			if repaired {
				report.PostsRepaired++
				observability.ReconcileRepairs.WithLabelValues("post").Inc()
			}
		}
		if len(posts) < reconcileBatchSize {
			break
		}
	}
	middleware.Logger.InfoContext(ctx, "post counters reconciled",
		slog.Int("scanned", report.PostsScanned),
		slog.Int("repaired", report.PostsRepaired),
	)
	return report, nil
}

func (s *ReconcileService) reconcilePost(ctx context.Context, postID uint) (bool, error) {
	comments, err := s.commentRepo.CountByPost(ctx, postID)
	if err != nil {
		return false, err
	}

	repaired := false
	err = retryOnConflict(ctx, s.casAttempts, "Post", func() error {
		p, err := s.postRepo.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		liked := models.DedupeIDs(p.LikedBy, 0)
		if len(liked) == len(p.LikedBy) && p.LikesCount == len(liked) && p.CommentsCount == int(comments) {
			return nil
		}
		p.LikedBy = liked
		p.LikesCount = len(liked)
		p.CommentsCount = int(comments)
		if err := s.postRepo.Update(ctx, p); err != nil {
			return err
		}
		repaired = true
		return nil
	})
	if models.HasCode(err, models.CodeNotFound) {
		return false, nil
	}
	return repaired, err
}

// ReconcileFollowEdges makes every follow edge present on both sides and
// drops duplicate or self entries from the lists.
func (s *ReconcileService) ReconcileFollowEdges(ctx context.Context) (ReconcileReport, error) {
	var report ReconcileReport
	for offset := 0; ; offset += reconcileBatchSize {
		users, err := s.userRepo.List(ctx, reconcileBatchSize, offset)
		if err != nil {
			return report, err
		}
		for i := range users {
			report.UsersScanned++
			if err := s.reconcileUser(ctx, users[i].ID, &report); err != nil {
				return report, err
			}
		}
		if len(users) < reconcileBatchSize {
			break
		}
	}
	middleware.Logger.InfoContext(ctx, "follow edges reconciled",
		slog.Int("scanned", report.UsersScanned),
		slog.Int("edges_repaired", report.EdgesRepaired),
		slog.Int("lists_compacted", report.ListsCompacted),
	)
	return report, nil
}

func (s *ReconcileService) reconcileUser(ctx context.Context, userID uint, report *ReconcileReport) error {
	var user *models.User
	err := retryOnConflict(ctx, s.casAttempts, "User", func() error {
		u, err := s.userRepo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		user = u
		followers := models.DedupeIDs(u.Followers, u.ID)
		following := models.DedupeIDs(u.Following, u.ID)
		if slices.Equal(followers, u.Followers) && slices.Equal(following, u.Following) {
			return nil
		}
		u.Followers, u.Following = followers, following
		if err := s.userRepo.Update(ctx, u); err != nil {
			return err
		}
		report.ListsCompacted++
		observability.ReconcileRepairs.WithLabelValues("list").Inc()
		return nil
	})
	if err != nil {
		return err
	}

	for _, targetID := range user.Following {
		if err := s.ensureEdgeSide(ctx, targetID, func(t *models.User) bool { return t.AddFollower(userID) }, report); err != nil {
			return err
		}
	}
	for _, followerID := range user.Followers {
		if err := s.ensureEdgeSide(ctx, followerID, func(f *models.User) bool { return f.AddFollowing(userID) }, report); err != nil {
			return err
		}
	}
	return nil
}

// ensureEdgeSide applies add to otherID and saves when it changed anything.
// Dangling ids pointing at removed users are left for the list readers to skip.
func (s *ReconcileService) ensureEdgeSide(ctx context.Context, otherID uint, add func(*models.User) bool, report *ReconcileReport) error {
	err := retryOnConflict(ctx, s.casAttempts, "User", func() error {
		other, err := s.userRepo.GetForUpdate(ctx, otherID)
		if err != nil {
			return err
		}
		if !add(other) {
			return nil
		}
		if err := s.userRepo.Update(ctx, other); err != nil {
			return err
		}
		report.EdgesRepaired++
		observability.ReconcileRepairs.WithLabelValues("edge").Inc()
		return nil
	})
	if models.HasCode(err, models.CodeNotFound) {
		return nil
	}
	return err
}
