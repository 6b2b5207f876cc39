package service

import (
	"context"
	"strings"
	"time"

	"skillshare/internal/models"
	"skillshare/internal/repository"
	"skillshare/internal/validation"
)

type LearningProgressService struct {
	progressRepo repository.LearningProgressRepository
	userRepo     repository.UserRepository
}

type CreateProgressInput struct {
	ActorEmail           string     `json:"-"`
	Title                string     `json:"title" validate:"required,max=200"`
	Description          string     `json:"description" validate:"max=5000"`
	Type                 string     `json:"type" validate:"omitempty,oneof=COURSE PROJECT CERTIFICATION BOOK OTHER"`
	Skills               []string   `json:"skills" validate:"max=20,dive,max=64"`
	ResourceURL          string     `json:"resource_url" validate:"omitempty,url"`
	CompletionPercentage int        `json:"completion_percentage" validate:"gte=0,lte=100"`
	StartDate            *time.Time `json:"start_date"`
	CompletionDate       *time.Time `json:"completion_date"`
}

// UpdateProgressInput is a partial update; nil fields are left unchanged.
type UpdateProgressInput struct {
	ActorEmail           string     `json:"-"`
	EntryID              uint       `json:"-"`
	Title                *string    `json:"title" validate:"omitempty,min=1,max=200"`
	Description          *string    `json:"description" validate:"omitempty,max=5000"`
	Type                 *string    `json:"type" validate:"omitempty,oneof=COURSE PROJECT CERTIFICATION BOOK OTHER"`
	Skills               []string   `json:"skills" validate:"omitempty,max=20,dive,max=64"`
	ResourceURL          *string    `json:"resource_url" validate:"omitempty,url"`
	CompletionPercentage *int       `json:"completion_percentage" validate:"omitempty,gte=0,lte=100"`
	StartDate            *time.Time `json:"start_date"`
	CompletionDate       *time.Time `json:"completion_date"`
}

func NewLearningProgressService(
	progressRepo repository.LearningProgressRepository,
	userRepo repository.UserRepository,
) *LearningProgressService {
	return &LearningProgressService{progressRepo: progressRepo, userRepo: userRepo}
}

func progressType(raw string) models.ProgressType {
	t := models.ProgressType(strings.ToUpper(strings.TrimSpace(raw)))
	if t == "" {
		return models.ProgressOther
	}
	return t
}

func (s *LearningProgressService) CreateProgress(ctx context.Context, in CreateProgressInput) (*models.ProgressView, error) {
	actor, err := resolveActor(ctx, s.userRepo, in.ActorEmail)
	if err != nil {
		return nil, err
	}
	in.Type = string(progressType(in.Type))
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	entry := &models.LearningProgress{
		UserID:               actor.ID,
		Title:                strings.TrimSpace(in.Title),
		Description:          in.Description,
		Type:                 models.ProgressType(in.Type),
		Skills:               models.NormalizeSet(in.Skills),
		ResourceURL:          in.ResourceURL,
		CompletionPercentage: in.CompletionPercentage,
		StartDate:            in.StartDate,
		CompletionDate:       in.CompletionDate,
	}
	if err := s.progressRepo.Create(ctx, entry); err != nil {
		return nil, err
	}
	return &models.ProgressView{LearningProgress: *entry, Author: actor.Summary()}, nil
}

func (s *LearningProgressService) GetProgress(ctx context.Context, id uint) (*models.ProgressView, error) {
	entry, err := s.progressRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	views, err := s.progressViews(ctx, []models.LearningProgress{*entry})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *LearningProgressService) ListUserProgress(ctx context.Context, userID uint, limit, offset int) ([]models.ProgressView, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	entries, err := s.progressRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.progressViews(ctx, entries)
}

func (s *LearningProgressService) ListProgressBySkill(ctx context.Context, skill string, limit, offset int) ([]models.ProgressView, error) {
	if strings.TrimSpace(skill) == "" {
		return nil, models.NewValidationError("Skill is required")
	}
	entries, err := s.progressRepo.ListBySkill(ctx, skill, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.progressViews(ctx, entries)
}

func (s *LearningProgressService) UpdateProgress(ctx context.Context, in UpdateProgressInput) (*models.ProgressView, error) {
	actor, err := resolveActor(ctx, s.userRepo, in.ActorEmail)
	if err != nil {
		return nil, err
	}
	if in.Type != nil {
		t := string(progressType(*in.Type))
		in.Type = &t
	}
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	entry, err := s.progressRepo.GetByID(ctx, in.EntryID)
	if err != nil {
		return nil, err
	}
	if entry.UserID != actor.ID {
		return nil, models.NewForbiddenError("learning progress entry")
	}

	if in.Title != nil {
		entry.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		entry.Description = *in.Description
	}
	if in.Type != nil {
		entry.Type = models.ProgressType(*in.Type)
	}
	if in.Skills != nil {
		entry.Skills = models.NormalizeSet(in.Skills)
	}
	if in.ResourceURL != nil {
		entry.ResourceURL = *in.ResourceURL
	}
	if in.CompletionPercentage != nil {
		entry.CompletionPercentage = *in.CompletionPercentage
	}
	if in.StartDate != nil {
		entry.StartDate = in.StartDate
	}
	if in.CompletionDate != nil {
		entry.CompletionDate = in.CompletionDate
	}

	if err := s.progressRepo.Update(ctx, entry); err != nil {
		return nil, err
	}
	return &models.ProgressView{LearningProgress: *entry, Author: actor.Summary()}, nil
}

func (s *LearningProgressService) DeleteProgress(ctx context.Context, actorEmail string, id uint) error {
	actor, err := resolveActor(ctx, s.userRepo, actorEmail)
	if err != nil {
		return err
	}
	entry, err := s.progressRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if entry.UserID != actor.ID {
		return models.NewForbiddenError("learning progress entry")
	}
	return s.progressRepo.Delete(ctx, id)
}

func (s *LearningProgressService) progressViews(ctx context.Context, entries []models.LearningProgress) ([]models.ProgressView, error) {
	ids := make([]uint, 0, len(entries))
	for i := range entries {
		ids = append(ids, entries[i].UserID)
	}
	authors, err := loadAuthors(ctx, s.userRepo, ids)
	if err != nil {
		return nil, err
	}
	views := make([]models.ProgressView, 0, len(entries))
	for i := range entries {
		views = append(views, models.ProgressView{LearningProgress: entries[i], Author: authors[entries[i].UserID]})
	}
	return views, nil
}
