package service

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"skillshare/internal/models"
	"skillshare/internal/observability"
	"skillshare/internal/repository"
)

const (
	maxPostContentLen = 10000
	maxPostMediaURLs  = 3
)

type PostService struct {
	postRepo    repository.PostRepository
	commentRepo repository.CommentRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	casAttempts int
}

type CreatePostInput struct {
	ActorEmail    string
	Content       string
	MediaURLs     []string
	SkillCategory string
}

// UpdatePostInput is a partial update. Content is always required; the other
// fields are applied only when set.
type UpdatePostInput struct {
	ActorEmail    string
	PostID        uint
	Content       string
	MediaURLs     []string
	SkillCategory string
}

func NewPostService(
	postRepo repository.PostRepository,
	commentRepo repository.CommentRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	casAttempts int,
) *PostService {
	return &PostService{
		postRepo:    postRepo,
		commentRepo: commentRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		casAttempts: casAttempts,
	}
}

func validatePostContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return models.NewValidationError("Content is required")
	}
	if len(content) > maxPostContentLen {
		return models.NewValidationError("Content too long (max 10000 characters)")
	}
	return nil
}

func normalizeMediaURLs(raw []string) ([]string, error) {
	urls := models.NormalizeSet(raw)
	if len(urls) > maxPostMediaURLs {
		return nil, models.NewValidationError("A post can carry at most 3 media URLs")
	}
	for _, u := range urls {
		parsed, err := url.ParseRequestURI(u)
		if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
			return nil, models.NewValidationError("Invalid media URL")
		}
	}
	return urls, nil
}

func (s *PostService) CreatePost(ctx context.Context, in CreatePostInput) (*models.PostView, error) {
	actor, err := resolveActor(ctx, s.userRepo, in.ActorEmail)
	if err != nil {
		return nil, err
	}
	if err := validatePostContent(in.Content); err != nil {
		return nil, err
	}
	media, err := normalizeMediaURLs(in.MediaURLs)
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		UserID:        actor.ID,
		Content:       in.Content,
		MediaURLs:     media,
		SkillCategory: strings.TrimSpace(in.SkillCategory),
		LikedBy:       []uint{},
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		return nil, err
	}
	return &models.PostView{Post: *post, Author: actor.Summary()}, nil
}

func (s *PostService) GetPost(ctx context.Context, postID uint, viewerEmail string) (*models.PostView, error) {
	viewer, err := resolveViewer(ctx, s.userRepo, viewerEmail)
	if err != nil {
		return nil, err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	views, err := s.postViews(ctx, []models.Post{*post}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *PostService) UpdatePost(ctx context.Context, in UpdatePostInput) (*models.PostView, error) {
	actor, err := resolveActor(ctx, s.userRepo, in.ActorEmail)
	if err != nil {
		return nil, err
	}
	if err := validatePostContent(in.Content); err != nil {
		return nil, err
	}
	var media []string
	if len(in.MediaURLs) > 0 {
		if media, err = normalizeMediaURLs(in.MediaURLs); err != nil {
			return nil, err
		}
	}

	var updated *models.Post
	err = retryOnConflict(ctx, s.casAttempts, "Post", func() error {
		post, err := s.postRepo.GetByID(ctx, in.PostID)
		if err != nil {
			return err
		}
		if post.UserID != actor.ID {
			return models.NewForbiddenError("post")
		}
		post.Content = in.Content
		if category := strings.TrimSpace(in.SkillCategory); category != "" {
			post.SkillCategory = category
		}
		if len(media) > 0 {
			post.MediaURLs = media
		}
		if err := s.postRepo.Update(ctx, post); err != nil {
			return err
		}
		updated = post
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &models.PostView{
		Post:          *updated,
		Author:        actor.Summary(),
		LikedByViewer: updated.IsLikedBy(actor.ID),
	}, nil
}

// DeletePost removes the post's comments before the post itself.
func (s *PostService) DeletePost(ctx context.Context, actorEmail string, postID uint) error {
	actor, err := resolveActor(ctx, s.userRepo, actorEmail)
	if err != nil {
		return err
	}
	post, err := s.postRepo.GetByID(ctx, postID)
	if err != nil {
		return err
	}
	if post.UserID != actor.ID {
		return models.NewForbiddenError("post")
	}
	if err := s.commentRepo.DeleteByPost(ctx, postID); err != nil {
		return err
	}
	return s.postRepo.Delete(ctx, postID)
}

// LikePost adds the actor's like. Liking twice is a no-op and sends nothing.
func (s *PostService) LikePost(ctx context.Context, actorEmail string, postID uint) (*models.PostView, error) {
	actor, err := resolveActor(ctx, s.userRepo, actorEmail)
	if err != nil {
		return nil, err
	}

	span, ctx := observability.StartOperation(ctx, "engagement", "LikePost", actor.ID)
	defer span.End()

	var (
		post  *models.Post
		added bool
	)
	err = retryOnConflict(ctx, s.casAttempts, "Post", func() error {
		p, err := s.postRepo.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		post, added = p, p.AddLike(actor.ID)
		if !added {
			return nil
		}
		return s.postRepo.Update(ctx, p)
	})
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	view, err := s.postView(ctx, post, actor)
	if err != nil {
		return nil, err
	}
	if added {
		content := fmt.Sprintf("%s liked your post", actor.DisplayName())
		if err := notifyOwner(ctx, s.notifier, post.UserID, actor, models.NotificationLike, content, strconv.FormatUint(uint64(post.ID), 10)); err != nil {
			span.SetError(err)
			return view, err
		}
	}
	return view, nil
}

// UnlikePost removes the actor's like if present. Notifications already sent stay.
func (s *PostService) UnlikePost(ctx context.Context, actorEmail string, postID uint) (*models.PostView, error) {
	actor, err := resolveActor(ctx, s.userRepo, actorEmail)
	if err != nil {
		return nil, err
	}

	var post *models.Post
	err = retryOnConflict(ctx, s.casAttempts, "Post", func() error {
		p, err := s.postRepo.GetByID(ctx, postID)
		if err != nil {
			return err
		}
		post = p
		if !p.RemoveLike(actor.ID) {
			return nil
		}
		return s.postRepo.Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return s.postView(ctx, post, actor)
}

// ListFeed returns posts by the viewer and everyone they follow, newest first.
func (s *PostService) ListFeed(ctx context.Context, viewerEmail string, limit, offset int) ([]models.PostView, error) {
	viewer, err := resolveActor(ctx, s.userRepo, viewerEmail)
	if err != nil {
		return nil, err
	}
	authors := append([]uint{viewer.ID}, viewer.Following...)
	posts, err := s.postRepo.ListByUsers(ctx, models.DedupeIDs(authors, 0), limit, offset)
	if err != nil {
		return nil, err
	}
	return s.postViews(ctx, posts, viewer)
}

// ListPosts returns every post, newest first.
func (s *PostService) ListPosts(ctx context.Context, viewerEmail string, limit, offset int) ([]models.PostView, error) {
	viewer, err := resolveViewer(ctx, s.userRepo, viewerEmail)
	if err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListRecent(ctx, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.postViews(ctx, posts, viewer)
}

func (s *PostService) ListUserPosts(ctx context.Context, userID uint, viewerEmail string, limit, offset int) ([]models.PostView, error) {
	viewer, err := resolveViewer(ctx, s.userRepo, viewerEmail)
	if err != nil {
		return nil, err
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	posts, err := s.postRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.postViews(ctx, posts, viewer)
}

func (s *PostService) postView(ctx context.Context, post *models.Post, viewer *models.User) (*models.PostView, error) {
	views, err := s.postViews(ctx, []models.Post{*post}, viewer)
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *PostService) postViews(ctx context.Context, posts []models.Post, viewer *models.User) ([]models.PostView, error) {
	ids := make([]uint, 0, len(posts))
	for i := range posts {
		ids = append(ids, posts[i].UserID)
	}
	authors, err := loadAuthors(ctx, s.userRepo, ids)
	if err != nil {
		return nil, err
	}

	views := make([]models.PostView, 0, len(posts))
	for i := range posts {
		v := models.PostView{Post: posts[i], Author: authors[posts[i].UserID]}
		if viewer != nil {
			v.LikedByViewer = posts[i].IsLikedBy(viewer.ID)
		}
		views = append(views, v)
	}
	return views, nil
}
