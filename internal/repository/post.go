package repository

import (
	"context"

	"skillshare/internal/models"
	"skillshare/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for post data operations
type PostRepository interface {
	Create(ctx context.Context, post *models.Post) error
	GetByID(ctx context.Context, id uint) (*models.Post, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error)
	// ListByUsers returns posts authored by any of userIDs, newest first.
	ListByUsers(ctx context.Context, userIDs []uint, limit, offset int) ([]models.Post, error)
	List(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListRecent(ctx context.Context, limit, offset int) ([]models.Post, error)
	Update(ctx context.Context, post *models.Post) error
	Delete(ctx context.Context, id uint) error
}

// postRepository implements PostRepository
type postRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("create", "posts")()
	if post.LikedBy == nil {
		post.LikedBy = []uint{}
	}
	if post.MediaURLs == nil {
		post.MediaURLs = []string{}
	}
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// GetByID always reads the primary: callers use the version for a CAS write.
func (r *postRepository) GetByID(ctx context.Context, id uint) (*models.Post, error) {
	defer observability.TrackQuery("get_by_id", "posts")()
	var post models.Post
	if err := r.db.WithContext(ctx).First(&post, id).Error; err != nil {
		return nil, notFoundOr(err, "Post", id)
	}
	return &post, nil
}

func (r *postRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.Post, error) {
	return r.ListByUsers(ctx, []uint{userID}, limit, offset)
}

func (r *postRepository) ListByUsers(ctx context.Context, userIDs []uint, limit, offset int) ([]models.Post, error) {
	if len(userIDs) == 0 {
		return []models.Post{}, nil
	}
	defer observability.TrackQuery("list_by_users", "posts")()
	limit, offset = clampPage(limit, offset)
	var posts []models.Post
	err := readDB(r.db).WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit, offset = clampPage(limit, offset)
	var posts []models.Post
	err := readDB(r.db).WithContext(ctx).
		Order("id ASC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

// ListRecent returns every post, newest first.
func (r *postRepository) ListRecent(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit, offset = clampPage(limit, offset)
	var posts []models.Post
	err := readDB(r.db).WithContext(ctx).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&posts).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) Update(ctx context.Context, post *models.Post) error {
	defer observability.TrackQuery("update", "posts")()
	err := casUpdate(ctx, r.db, &models.Post{}, post.ID, post.Version, map[string]interface{}{
		"content":        post.Content,
		"media_urls":     post.MediaURLs,
		"skill_category": post.SkillCategory,
		"liked_by":       post.LikedBy,
		"likes_count":    post.LikesCount,
		"comments_count": post.CommentsCount,
	})
	if err != nil {
		return err
	}
	post.Version++
	return nil
}

func (r *postRepository) Delete(ctx context.Context, id uint) error {
	defer observability.TrackQuery("delete", "posts")()
	if err := r.db.WithContext(ctx).Delete(&models.Post{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
