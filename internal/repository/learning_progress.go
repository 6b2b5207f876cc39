package repository

import (
	"context"
	"strings"

	"skillshare/internal/models"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// LearningProgressRepository defines persistence operations for progress journal entries.
type LearningProgressRepository interface {
	Create(ctx context.Context, entry *models.LearningProgress) error
	GetByID(ctx context.Context, id uint) (*models.LearningProgress, error)
	ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.LearningProgress, error)
	ListBySkill(ctx context.Context, skill string, limit, offset int) ([]models.LearningProgress, error)
	Update(ctx context.Context, entry *models.LearningProgress) error
	Delete(ctx context.Context, id uint) error
}

type learningProgressRepository struct {
	db *gorm.DB
}

// NewLearningProgressRepository returns a gorm-backed LearningProgressRepository.
func NewLearningProgressRepository(db *gorm.DB) LearningProgressRepository {
	return &learningProgressRepository{db: db}
}

func (r *learningProgressRepository) Create(ctx context.Context, entry *models.LearningProgress) error {
	if entry.Skills == nil {
		entry.Skills = []string{}
	}
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *learningProgressRepository) GetByID(ctx context.Context, id uint) (*models.LearningProgress, error) {
	var entry models.LearningProgress
	if err := r.db.WithContext(ctx).First(&entry, id).Error; err != nil {
		return nil, notFoundOr(err, "LearningProgress", id)
	}
	return &entry, nil
}

func (r *learningProgressRepository) ListByUser(ctx context.Context, userID uint, limit, offset int) ([]models.LearningProgress, error) {
	limit, offset = clampPage(limit, offset)
	var entries []models.LearningProgress
	err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&entries).Error
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *learningProgressRepository) ListBySkill(ctx context.Context, skill string, limit, offset int) ([]models.LearningProgress, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return []models.LearningProgress{}, nil
	}
	limit, offset = clampPage(limit, offset)

	q := readDB(r.db).WithContext(ctx).Where(datatypes.JSONArrayQuery("skills").Contains(skill))

	var entries []models.LearningProgress
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Offset(offset).Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

// Update writes every editable field; entries are single-owner so no version check is needed.
func (r *learningProgressRepository) Update(ctx context.Context, entry *models.LearningProgress) error {
	err := r.db.WithContext(ctx).Model(entry).Select(
		"title", "description", "type", "skills", "resource_url",
		"completion_percentage", "start_date", "completion_date",
	).Updates(entry).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *learningProgressRepository) Delete(ctx context.Context, id uint) error {
	if err := r.db.WithContext(ctx).Delete(&models.LearningProgress{}, id).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}
