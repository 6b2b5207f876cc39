package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ProgressType categorizes a learning progress entry.
type ProgressType string

const (
	ProgressCourse        ProgressType = "COURSE"
	ProgressProject       ProgressType = "PROJECT"
	ProgressCertification ProgressType = "CERTIFICATION"
	ProgressBook          ProgressType = "BOOK"
	ProgressOther         ProgressType = "OTHER"
)

// Valid reports whether t is a known progress type.
func (t ProgressType) Valid() bool {
	switch t {
	case ProgressCourse, ProgressProject, ProgressCertification, ProgressBook, ProgressOther:
		return true
	}
	return false
}

// LearningProgress is a journal entry recording something a user is learning.
type LearningProgress struct {
	ID                   uint                        `gorm:"primaryKey" json:"id"`
	UserID               uint                        `gorm:"not null;index" json:"user_id"`
	Title                string                      `gorm:"not null" json:"title"`
	Description          string                      `gorm:"type:text" json:"description"`
	Type                 ProgressType                `gorm:"type:varchar(32)" json:"type"`
	Skills               datatypes.JSONSlice[string] `json:"skills"`
	ResourceURL          string                      `json:"resource_url"`
	CompletionPercentage int                         `gorm:"not null;default:0" json:"completion_percentage"`
	StartDate            *time.Time                  `json:"start_date,omitempty"`
	CompletionDate       *time.Time                  `json:"completion_date,omitempty"`
	CreatedAt            time.Time                   `json:"created_at"`
	UpdatedAt            time.Time                   `json:"updated_at"`
	DeletedAt            gorm.DeletedAt              `gorm:"index" json:"-"`
}

// TableName specifies the table name for GORM
func (LearningProgress) TableName() string {
	return "learning_progress_entries"
}
