package models

import (
	"slices"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Post represents a post shared by a user.
// LikesCount mirrors len(LikedBy) and CommentsCount mirrors the live comment count;
// both are maintained by versioned read-modify-write and can be repaired by the reconciler.
type Post struct {
	ID            uint                        `gorm:"primaryKey" json:"id"`
	UserID        uint                        `gorm:"not null;index" json:"user_id"`
	Content       string                      `gorm:"type:text;not null" json:"content"`
	MediaURLs     datatypes.JSONSlice[string] `json:"media_urls"`
	SkillCategory string                      `gorm:"index" json:"skill_category"`
	LikedBy       datatypes.JSONSlice[uint]   `json:"liked_by"`
	LikesCount    int                         `gorm:"not null;default:0" json:"likes_count"`
	CommentsCount int                         `gorm:"not null;default:0" json:"comments_count"`
	Version       int64                       `gorm:"not null;default:0" json:"-"`
	CreatedAt     time.Time                   `gorm:"index" json:"created_at"`
	UpdatedAt     time.Time                   `json:"updated_at"`
	DeletedAt     gorm.DeletedAt              `gorm:"index" json:"-"`
}

// IsLikedBy reports whether userID is in the post's likedBy list.
func (p *Post) IsLikedBy(userID uint) bool {
	return slices.Contains(p.LikedBy, userID)
}

// AddLike appends userID to likedBy and bumps the counter. It is a no-op for repeat likes.
func (p *Post) AddLike(userID uint) bool {
	ids, changed := appendUnique(p.LikedBy, userID)
	if !changed {
		return false
	}
	p.LikedBy = ids
	p.LikesCount++
	return true
}

// RemoveLike drops userID from likedBy, flooring the counter at zero.
func (p *Post) RemoveLike(userID uint) bool {
	ids, changed := removeID(p.LikedBy, userID)
	if !changed {
		return false
	}
	p.LikedBy = ids
	p.LikesCount = max(p.LikesCount-1, 0)
	return true
}

// Comment represents a comment on a post.
type Comment struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	PostID    uint           `gorm:"not null;index" json:"post_id"`
	UserID    uint           `gorm:"not null;index" json:"user_id"`
	Content   string         `gorm:"type:text;not null" json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
