package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"skillshare/internal/middleware"
	"skillshare/internal/models"
	"skillshare/internal/repository"
)

const maxCommentLen = 10000

type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	casAttempts int
}

type CreateCommentInput struct {
	ActorEmail string
	PostID     uint
	Content    string
}

type UpdateCommentInput struct {
	ActorEmail string
	CommentID  uint
	Content    string
}

func NewCommentService(
	commentRepo repository.CommentRepository,
	postRepo repository.PostRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	casAttempts int,
) *CommentService {
	return &CommentService{
		commentRepo: commentRepo,
		postRepo:    postRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		casAttempts: casAttempts,
	}
}

func validateCommentContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxCommentLen {
		return models.NewValidationError("Comment too long (max 10000 characters)")
	}
	return nil
}

// AddComment stores the comment, bumps the post's counter and notifies the
// post owner. A delivery failure is returned alongside the created comment.
// The comment is written before the counter, so when the counter keeps losing
// CAS races the saved comment comes back with the CONFLICT error and
// commentsCount stays one short until the reconciler runs.
func (s *CommentService) AddComment(ctx context.Context, in CreateCommentInput) (*models.CommentView, error) {
	actor, err := resolveActor(ctx, s.userRepo, in.ActorEmail)
	if err != nil {
		return nil, err
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}
	if _, err := s.postRepo.GetByID(ctx, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		PostID:  in.PostID,
		UserID:  actor.ID,
		Content: in.Content,
	}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		return nil, err
	}

	view := &models.CommentView{Comment: *comment, Author: actor.Summary()}

	var post *models.Post
	err = retryOnConflict(ctx, s.casAttempts, "Post", func() error {
		p, err := s.postRepo.GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		p.CommentsCount++
		if err := s.postRepo.Update(ctx, p); err != nil {
			return err
		}
		post = p
		return nil
	})
	if err != nil {
		if models.HasCode(err, models.CodeConflict) {
			middleware.Logger.WarnContext(ctx, "comment saved but post counter not updated",
				slog.Uint64("post_id", uint64(in.PostID)),
				slog.Uint64("comment_id", uint64(comment.ID)),
			)
			return view, err
		}
		return nil, err
	}

	content := fmt.Sprintf("%s commented on your post", actor.DisplayName())
	if err := notifyOwner(ctx, s.notifier, post.UserID, actor, models.NotificationComment, content, strconv.FormatUint(uint64(post.ID), 10)); err != nil {
		return view, err
	}
	return view, nil
}

func (s *CommentService) ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.CommentView, error) {
	if _, err := s.postRepo.GetByID(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID, limit, offset)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(comments))
	for i := range comments {
		ids = append(ids, comments[i].UserID)
	}
	authors, err := loadAuthors(ctx, s.userRepo, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.CommentView, 0, len(comments))
	for i := range comments {
		views = append(views, models.CommentView{Comment: comments[i], Author: authors[comments[i].UserID]})
	}
	return views, nil
}

func (s *CommentService) GetComment(ctx context.Context, commentID uint) (*models.CommentView, error) {
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return nil, err
	}
	authors, err := loadAuthors(ctx, s.userRepo, []uint{comment.UserID})
	if err != nil {
		return nil, err
	}
	return &models.CommentView{Comment: *comment, Author: authors[comment.UserID]}, nil
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.CommentView, error) {
	actor, err := resolveActor(ctx, s.userRepo, in.ActorEmail)
	if err != nil {
		return nil, err
	}
	if err := validateCommentContent(in.Content); err != nil {
		return nil, err
	}

	comment, err := s.commentRepo.GetByID(ctx, in.CommentID)
	if err != nil {
		return nil, err
	}
	if comment.UserID != actor.ID {
		return nil, models.NewForbiddenError("comment")
	}

	comment.Content = in.Content
	if err := s.commentRepo.Update(ctx, comment); err != nil {
		return nil, err
	}
	return &models.CommentView{Comment: *comment, Author: actor.Summary()}, nil
}

// DeleteComment removes the comment and decrements the post's counter. The
// counter is left alone when the post is already gone. A CONFLICT here means
// the comment is gone but the counter is one high until the reconciler runs.
func (s *CommentService) DeleteComment(ctx context.Context, actorEmail string, commentID uint) error {
	actor, err := resolveActor(ctx, s.userRepo, actorEmail)
	if err != nil {
		return err
	}
	comment, err := s.commentRepo.GetByID(ctx, commentID)
	if err != nil {
		return err
	}
	if comment.UserID != actor.ID {
		return models.NewForbiddenError("comment")
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		return err
	}

	return retryOnConflict(ctx, s.casAttempts, "Post", func() error {
		p, err := s.postRepo.GetByID(ctx, comment.PostID)
		if err != nil {
			if models.HasCode(err, models.CodeNotFound) {
				return nil
			}
			return err
		}
		p.CommentsCount = max(p.CommentsCount-1, 0)
		return s.postRepo.Update(ctx, p)
	})
}
