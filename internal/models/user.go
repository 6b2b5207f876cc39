// Package models contains data structures for the application's domain models.
package models

import (
	"slices"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// User represents a member of the learning platform.
// Followers and Following hold user IDs in the order the follow happened.
type User struct {
	ID           uint                        `gorm:"primaryKey" json:"id"`
	Username     string                      `gorm:"unique;not null" json:"username"`
	Email        string                      `gorm:"unique;not null" json:"email"`
	Password     string                      `gorm:"not null" json:"-"`
	Name         string                      `json:"name"`
	Bio          string                      `json:"bio"`
	Location     string                      `json:"location"`
	Avatar       string                      `json:"avatar"`
	CoverPicture string                      `json:"cover_picture"`
	Skills       datatypes.JSONSlice[string] `json:"skills"`
	Interests    datatypes.JSONSlice[string] `json:"interests"`
	Followers    datatypes.JSONSlice[uint]   `json:"followers"`
	Following    datatypes.JSONSlice[uint]   `json:"following"`
	Version      int64                       `gorm:"not null;default:0" json:"-"`
	CreatedAt    time.Time                   `json:"created_at"`
	UpdatedAt    time.Time                   `json:"updated_at"`
	DeletedAt    gorm.DeletedAt              `gorm:"index" json:"-"`
}

// DisplayName returns the name shown to other users, falling back to the username.
func (u *User) DisplayName() string {
	if strings.TrimSpace(u.Name) != "" {
		return u.Name
	}
	return u.Username
}

// IsFollowing reports whether u follows the user with the given ID.
func (u *User) IsFollowing(userID uint) bool {
	return slices.Contains(u.Following, userID)
}

// HasFollower reports whether the user with the given ID follows u.
func (u *User) HasFollower(userID uint) bool {
	return slices.Contains(u.Followers, userID)
}

// Summary returns the author fields attached to read models.
func (u *User) Summary() AuthorSummary {
	return AuthorSummary{
		ID:       u.ID,
		Name:     u.DisplayName(),
		Username: u.Username,
		Avatar:   u.Avatar,
	}
}

// NormalizeSet trims entries, drops blanks, and removes duplicates while
// keeping the order of first appearance.
func NormalizeSet(values []string) []string {
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// appendUnique appends id to ids when it is not already present.
func appendUnique(ids []uint, id uint) ([]uint, bool) {
	if slices.Contains(ids, id) {
		return ids, false
	}
	return append(ids, id), true
}

// removeID drops every occurrence of id from ids.
func removeID(ids []uint, id uint) ([]uint, bool) {
	out := make([]uint, 0, len(ids))
	removed := false
	for _, v := range ids {
		if v == id {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

// AddFollowing records that u follows target. It reports whether the list changed.
func (u *User) AddFollowing(target uint) bool {
	ids, changed := appendUnique(u.Following, target)
	u.Following = ids
	return changed
}

// RemoveFollowing drops target from u's following list.
func (u *User) RemoveFollowing(target uint) bool {
	ids, changed := removeID(u.Following, target)
	u.Following = ids
	return changed
}

// AddFollower records that follower follows u.
func (u *User) AddFollower(follower uint) bool {
	ids, changed := appendUnique(u.Followers, follower)
	u.Followers = ids
	return changed
}

// RemoveFollower drops follower from u's followers list.
func (u *User) RemoveFollower(follower uint) bool {
	ids, changed := removeID(u.Followers, follower)
	u.Followers = ids
	return changed
}

// DedupeIDs removes repeated IDs and any occurrence of self, keeping order.
func DedupeIDs(ids []uint, self uint) []uint {
	out := make([]uint, 0, len(ids))
	seen := make(map[uint]struct{}, len(ids))
	for _, id := range ids {
		if id == self || id == 0 {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
