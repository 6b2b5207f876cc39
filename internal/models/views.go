package models

import "encoding/json"

// AuthorSummary holds the display fields joined onto read models.
type AuthorSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Avatar   string `json:"avatar"`
}

// PostView is a post enriched for a specific viewer.
type PostView struct {
	Post
	Author        AuthorSummary `json:"author"`
	LikedByViewer bool          `json:"liked_by_viewer"`
}

// CommentView is a comment enriched with its author.
type CommentView struct {
	Comment
	Author AuthorSummary `json:"author"`
}

// ProgressView is a learning progress entry enriched with its author.
type ProgressView struct {
	LearningProgress
	Author AuthorSummary `json:"author"`
}

// PlanView is a learning plan enriched with its owner.
type PlanView struct {
	LearningPlan
	Author AuthorSummary `json:"author"`
}

// MarshalJSON keeps the derived skill field when the plan is embedded.
func (v PlanView) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		planJSON
		Skill  string        `json:"skill"`
		Author AuthorSummary `json:"author"`
	}{planJSON: planJSON(v.LearningPlan), Skill: v.PrimarySkill(), Author: v.Author})
}

// FollowEntry is one row of a followers or following listing.
type FollowEntry struct {
	AuthorSummary
	Bio         string `json:"bio"`
	IsFollowing bool   `json:"is_following"`
}

// Profile is the public view of a user with live follow counts.
type Profile struct {
	User
	FollowersCount int  `json:"followers_count"`
	FollowingCount int  `json:"following_count"`
	IsFollowing    bool `json:"is_following"`
}

// NewProfile builds a Profile for u as seen by viewer (which may be nil).
func NewProfile(u *User, viewer *User) Profile {
	p := Profile{
		User:           *u,
		FollowersCount: len(u.Followers),
		FollowingCount: len(u.Following),
	}
	if viewer != nil {
		p.IsFollowing = viewer.IsFollowing(u.ID)
	}
	return p
}
