package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LearningStep is one ordered entry of a learning plan. Its ID is assigned by the
// server and never changes afterwards.
type LearningStep struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Deadline    *time.Time `json:"deadline,omitempty"`
	Resources   []string   `json:"resources,omitempty"`
}

// LearningPlan is an ordered list of steps owned by one user. Progress is derived
// from the steps unless the owner overrides it explicitly.
type LearningPlan struct {
	ID          uint                              `gorm:"primaryKey" json:"id"`
	UserID      uint                              `gorm:"not null;index" json:"user_id"`
	Title       string                            `gorm:"not null" json:"title"`
	Description string                            `gorm:"type:text" json:"description"`
	Skills      datatypes.JSONSlice[string]       `json:"skills"`
	Steps       datatypes.JSONSlice[LearningStep] `json:"steps"`
	Progress    int                               `gorm:"not null;default:0" json:"progress"`
	Deadline    *time.Time                        `json:"deadline,omitempty"`
	Version     int64                             `gorm:"not null;default:0" json:"-"`
	CreatedAt   time.Time                         `json:"created_at"`
	UpdatedAt   time.Time                         `json:"updated_at"`
	DeletedAt   gorm.DeletedAt                    `gorm:"index" json:"-"`
}

// PrimarySkill is the legacy single-skill field, derived from the first skill.
func (p *LearningPlan) PrimarySkill() string {
	if len(p.Skills) == 0 {
		return ""
	}
	return p.Skills[0]
}

// StepIndex returns the position of the step with the given ID, or -1.
func (p *LearningPlan) StepIndex(stepID string) int {
	for i := range p.Steps {
		if p.Steps[i].ID == stepID {
			return i
		}
	}
	return -1
}

type planJSON LearningPlan

// MarshalJSON adds the derived single-skill field for older clients.
func (p LearningPlan) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		planJSON
		Skill string `json:"skill"`
	}{planJSON: planJSON(p), Skill: p.PrimarySkill()})
}
