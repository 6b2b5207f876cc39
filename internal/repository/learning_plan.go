package repository

import (
	"context"
	"strings"

	"skillshare/internal/models"
	"skillshare/internal/observability"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LearningPlanRepository defines persistence operations for learning plans.
type LearningPlanRepository interface {
	Create(ctx context.Context, plan *models.LearningPlan) error
	GetByID(ctx context.Context, id uint) (*models.LearningPlan, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.LearningPlan, error)
	ListBySkill(ctx context.Context, skill string, limit, offset int) ([]models.LearningPlan, error)
	Update(ctx context.Context, plan *models.LearningPlan) error
	Delete(ctx context.Context, id uint) error
}

type learningPlanRepository struct {
	db *gorm.DB
}

// NewLearningPlanRepository returns a gorm-backed LearningPlanRepository.
func NewLearningPlanRepository(db *gorm.DB) LearningPlanRepository {
	return &learningPlanRepository{db: db}
}

func (r *learningPlanRepository) Create(ctx context.Context, plan *models.LearningPlan) error {
	defer observability.TrackQuery("create", "learning_plans")()
	if plan.Steps == nil {
		plan.Steps = []models.LearningStep{}
	}
	if plan.Skills == nil {
		plan.Skills = []string{}
	}
	if err := r.db.WithContext(ctx).Create(plan).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *learningPlanRepository) GetByID(ctx context.Context, id uint) (*models.LearningPlan, error) {
	defer observability.TrackQuery("get_by_id", "learning_plans")()
	var plan models.LearningPlan
	if err := r.db.WithContext(ctx).First(&plan, id).Error; err != nil {
		return nil, notFoundOr(err, "LearningPlan", id)
	}
	return &plan, nil
}

func (r *learningPlanRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.LearningPlan, error) {
	limit, offset = clampPage(limit, offset)
	var plans []models.LearningPlan
	err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&plans).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return plans, nil
}

// ListBySkill matches plans whose skills array holds skill as an exact element.
func (r *learningPlanRepository) ListBySkill(ctx context.Context, skill string, limit, offset int) ([]models.LearningPlan, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return []models.LearningPlan{}, nil
	}
	limit, offset = clampPage(limit, offset)

	q := readDB(r.db).WithContext(ctx).Where(datatypes.JSONArrayQuery("skills").Contains(skill))

	var plans []models.LearningPlan
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&plans).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return plans, nil
}

func (r *learningPlanRepository) Update(ctx context.Context, plan *models.LearningPlan) error {
	defer observability.TrackQuery("update", "learning_plans")()
	err := casUpdate(ctx, r.db, &models.LearningPlan{}, plan.ID, plan.Version, map[string]interface{}{
		"title":       plan.Title,
		"description": plan.Description,
		"skills":      plan.Skills,
		"steps":       plan.Steps,
		"progress":    plan.Progress,
		"deadline":    plan.Deadline,
	})
	if err != nil {
		return err
	}
	plan.Version++
	return nil
}

func (r *learningPlanRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.LearningPlan{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
