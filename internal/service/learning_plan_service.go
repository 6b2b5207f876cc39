package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"skillshare/internal/middleware"
	"skillshare/internal/models"
	"skillshare/internal/observability"
	"skillshare/internal/repository"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const maxPlanTitleLen = 200

// errNoChange lets a plan mutation skip the write when nothing moved.
var errNoChange = errors.New("no change")

type LearningPlanService struct {
	planRepo    repository.LearningPlanRepository
	userRepo    repository.UserRepository
	notifier    Notifier
	casAttempts int
}

type StepInput struct {
	ID          string
	Title       string
	Description string
	Completed   bool
	Deadline    *time.Time
	Resources   []string
}

// StepPatch updates a step. Nil fields are left unchanged; Completed is always applied.
type StepPatch struct {
	Title       *string
	Description *string
	Completed   bool
	Deadline    *time.Time
	Resources   []string
}

type CreatePlanInput struct {
	ActorEmail  string
	Title       string
	Description string
	Skill       string
	Skills      []string
	Steps       []StepInput
	Deadline    *time.Time
}

// UpdatePlanInput is a partial update. An empty Steps slice keeps the current
// steps; there is no way to clear them through this path.
type UpdatePlanInput struct {
	ActorEmail  string
	PlanID      uint
	Title       string
	Description *string
	Skill       string
	Skills      []string
	Steps       []StepInput
	Deadline    *time.Time
}

func NewLearningPlanService(
	planRepo repository.LearningPlanRepository,
	userRepo repository.UserRepository,
	notifier Notifier,
	casAttempts int,
) *LearningPlanService {
	return &LearningPlanService{
		planRepo:    planRepo,
		userRepo:    userRepo,
		notifier:    notifier,
		casAttempts: casAttempts,
	}
}

// normalizeSkills folds the single-skill and skill-set inputs into one set.
// The set wins when both are given.
func normalizeSkills(skill string, skills []string) []string {
	if set := models.NormalizeSet(skills); len(set) > 0 {
		return set
	}
	return models.NormalizeSet([]string{skill})
}

// buildSteps converts inputs to steps, keeping supplied ids and assigning a
// new one where the id is missing or repeated.
func buildSteps(in []StepInput) ([]models.LearningStep, error) {
	steps := make([]models.LearningStep, 0, len(in))
	seen := make(map[string]struct{}, len(in))
	for _, s := range in {
		if strings.TrimSpace(s.Title) == "" {
			return nil, models.NewValidationError("Step title is required")
		}
		id := strings.TrimSpace(s.ID)
		if _, dup := seen[id]; id == "" || dup {
			id = uuid.NewString()
		}
		seen[id] = struct{}{}
		steps = append(steps, models.LearningStep{
			ID:          id,
			Title:       strings.TrimSpace(s.Title),
			Description: s.Description,
			Completed:   s.Completed,
			Deadline:    s.Deadline,
			Resources:   models.NormalizeSet(s.Resources),
		})
	}
	return steps, nil
}

func validatePlanTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return models.NewValidationError("Title is required")
	}
	if len(title) > maxPlanTitleLen {
		return models.NewValidationError("Title too long (max 200 characters)")
	}
	return nil
}

// CreatePlan stores a new plan for the actor. Progress is derived from the
// supplied steps; creation never counts as a milestone.
func (s *LearningPlanService) CreatePlan(ctx context.Context, in CreatePlanInput) (*models.PlanView, error) {
	actor, err := resolveActor(ctx, s.userRepo, in.ActorEmail)
	if err != nil {
		return nil, err
	}
	if err := validatePlanTitle(in.Title); err != nil {
		return nil, err
	}
	steps, err := buildSteps(in.Steps)
	if err != nil {
		return nil, err
	}

	plan := &models.LearningPlan{
		UserID:      actor.ID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Skills:      normalizeSkills(in.Skill, in.Skills),
		Steps:       steps,
		Progress:    DeriveProgress(steps),
		Deadline:    in.Deadline,
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return &models.PlanView{LearningPlan: *plan, Author: actor.Summary()}, nil
}

func (s *LearningPlanService) GetPlan(ctx context.Context, planID uint) (*models.PlanView, error) {
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return nil, err
	}
	views, err := s.planViews(ctx, []models.LearningPlan{*plan})
	if err != nil {
		return nil, err
	}
	return &views[0], nil
}

func (s *LearningPlanService) ListPlans(ctx context.Context, userID uint, limit, offset int) ([]models.PlanView, error) {
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	plans, err := s.planRepo.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.planViews(ctx, plans)
}

// ListPlansBySkill returns plans whose skill set contains skill.
func (s *LearningPlanService) ListPlansBySkill(ctx context.Context, skill string, limit, offset int) ([]models.PlanView, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return nil, models.NewValidationError("Skill is required")
	}
	plans, err := s.planRepo.ListBySkill(ctx, skill, limit, offset)
	if err != nil {
		return nil, err
	}
	return s.planViews(ctx, plans)
}

func (s *LearningPlanService) UpdatePlan(ctx context.Context, in UpdatePlanInput) (*models.PlanView, error) {
	if in.Title != "" {
		if err := validatePlanTitle(in.Title); err != nil {
			return nil, err
		}
	}
	var steps []models.LearningStep
	if len(in.Steps) > 0 {
		var err error
		if steps, err = buildSteps(in.Steps); err != nil {
			return nil, err
		}
	}

	return s.mutatePlan(ctx, in.ActorEmail, in.PlanID, "UpdatePlan", func(p *models.LearningPlan) (bool, error) {
		if in.Title != "" {
			p.Title = strings.TrimSpace(in.Title)
		}
		if in.Description != nil {
			p.Description = *in.Description
		}
		if skills := normalizeSkills(in.Skill, in.Skills); len(skills) > 0 {
			p.Skills = skills
		}
		if in.Deadline != nil {
			p.Deadline = in.Deadline
		}
		if steps == nil {
			return false, nil
		}
		p.Steps = steps
		return true, nil
	})
}

func (s *LearningPlanService) DeletePlan(ctx context.Context, actorEmail string, planID uint) error {
	actor, err := resolveActor(ctx, s.userRepo, actorEmail)
	if err != nil {
		return err
	}
	plan, err := s.planRepo.GetByID(ctx, planID)
	if err != nil {
		return err
	}
	if plan.UserID != actor.ID {
		return models.NewForbiddenError("learning plan")
	}
	return s.planRepo.Delete(ctx, planID)
}

// AddStep appends a new, uncompleted step with a server-assigned id.
func (s *LearningPlanService) AddStep(ctx context.Context, actorEmail string, planID uint, in StepInput) (*models.PlanView, error) {
	in.ID = ""
	in.Completed = false
	built, err := buildSteps([]StepInput{in})
	if err != nil {
		return nil, err
	}
	return s.mutatePlan(ctx, actorEmail, planID, "AddStep", func(p *models.LearningPlan) (bool, error) {
		p.Steps = append(p.Steps, built[0])
		return true, nil
	})
}

func (s *LearningPlanService) UpdateStep(ctx context.Context, actorEmail string, planID uint, stepID string, patch StepPatch) (*models.PlanView, error) {
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, models.NewValidationError("Step title cannot be empty")
	}
	return s.mutatePlan(ctx, actorEmail, planID, "UpdateStep", func(p *models.LearningPlan) (bool, error) {
		i := p.StepIndex(stepID)
		if i < 0 {
			return false, models.NewNotFoundError("Step", stepID)
		}
		step := &p.Steps[i]
		if patch.Title != nil {
			step.Title = strings.TrimSpace(*patch.Title)
		}
		if patch.Description != nil {
			step.Description = *patch.Description
		}
		if patch.Deadline != nil {
			step.Deadline = patch.Deadline
		}
		if patch.Resources != nil {
			step.Resources = models.NormalizeSet(patch.Resources)
		}
		step.Completed = patch.Completed
		return true, nil
	})
}

// SetStepStatus flips only the completion flag of a step.
func (s *LearningPlanService) SetStepStatus(ctx context.Context, actorEmail string, planID uint, stepID string, completed bool) (*models.PlanView, error) {
	return s.mutatePlan(ctx, actorEmail, planID, "SetStepStatus", func(p *models.LearningPlan) (bool, error) {
		i := p.StepIndex(stepID)
		if i < 0 {
			return false, models.NewNotFoundError("Step", stepID)
		}
		p.Steps[i].Completed = completed
		return true, nil
	})
}

func (s *LearningPlanService) DeleteStep(ctx context.Context, actorEmail string, planID uint, stepID string) (*models.PlanView, error) {
	return s.mutatePlan(ctx, actorEmail, planID, "DeleteStep", func(p *models.LearningPlan) (bool, error) {
		i := p.StepIndex(stepID)
		if i < 0 {
			return false, models.NewNotFoundError("Step", stepID)
		}
		p.Steps = append(p.Steps[:i:i], p.Steps[i+1:]...)
		return true, nil
	})
}

// ReorderStep swaps a step with its neighbour. Moving past either end returns
// the plan unchanged.
func (s *LearningPlanService) ReorderStep(ctx context.Context, actorEmail string, planID uint, stepID, direction string) (*models.PlanView, error) {
	var delta int
	switch strings.ToLower(strings.TrimSpace(direction)) {
	case "up":
		delta = -1
	case "down":
		delta = 1
	default:
		return nil, models.NewValidationError("Direction must be up or down")
	}

	return s.mutatePlan(ctx, actorEmail, planID, "ReorderStep", func(p *models.LearningPlan) (bool, error) {
		i := p.StepIndex(stepID)
		if i < 0 {
			return false, models.NewNotFoundError("Step", stepID)
		}
		j := i + delta
		if j < 0 || j >= len(p.Steps) {
			return false, errNoChange
		}
		p.Steps[i], p.Steps[j] = p.Steps[j], p.Steps[i]
		return false, nil
	})
}

// SetProgress overrides the derived progress. Overrides never notify
// followers; the next step mutation recomputes progress from the steps.
func (s *LearningPlanService) SetProgress(ctx context.Context, actorEmail string, planID uint, progress int) (*models.PlanView, error) {
	if progress < 0 || progress > 100 {
		return nil, models.NewValidationError("Progress must be between 0 and 100")
	}
	return s.mutatePlan(ctx, actorEmail, planID, "SetProgress", func(p *models.LearningPlan) (bool, error) {
		p.Progress = progress
		return false, nil
	})
}

// mutatePlan runs fn against a fresh copy of the plan under optimistic
// concurrency. When fn reports a step-driven change the progress is derived
// again and a milestone crossing fans out to the owner's followers.
func (s *LearningPlanService) mutatePlan(
	ctx context.Context,
	actorEmail string,
	planID uint,
	op string,
	fn func(*models.LearningPlan) (bool, error),
) (*models.PlanView, error) {
	actor, err := resolveActor(ctx, s.userRepo, actorEmail)
	if err != nil {
		return nil, err
	}

	span, ctx := observability.StartOperation(ctx, "plans", op, actor.ID)
	defer span.End()
	span.AddAttributes(attribute.Int64("plan.id", int64(planID)))

	var (
		plan        *models.LearningPlan
		oldProgress int
		stepDriven  bool
	)
	err = retryOnConflict(ctx, s.casAttempts, "LearningPlan", func() error {
		p, err := s.planRepo.GetByID(ctx, planID)
		if err != nil {
			return err
		}
		if p.UserID != actor.ID {
			return models.NewForbiddenError("learning plan")
		}
		plan, oldProgress = p, p.Progress

		stepDriven, err = fn(p)
		if err != nil {
			return err
		}
		if stepDriven {
			p.Progress = DeriveProgress(p.Steps)
		}
		return s.planRepo.Update(ctx, p)
	})
	if errors.Is(err, errNoChange) {
		err, stepDriven = nil, false
	}
	if err != nil {
		span.SetError(err)
		return nil, err
	}

	view := &models.PlanView{LearningPlan: *plan, Author: actor.Summary()}
	if !stepDriven || !IsMilestone(oldProgress, plan.Progress) {
		return view, nil
	}

	observability.LearningMilestones.WithLabelValues(strconv.Itoa(plan.Progress)).Inc()
	span.AddAttributes(attribute.Int("plan.progress", plan.Progress))
	if s.notifier == nil {
		return view, nil
	}
	content := milestoneContent(actor.DisplayName(), plan.Title, plan.Progress)
	entityID := strconv.FormatUint(uint64(plan.ID), 10)
	if _, err := s.notifier.FanOutToFollowers(ctx, actor, models.NotificationLearningUpdate, content, entityID); err != nil {
		middleware.Logger.WarnContext(ctx, "milestone fan-out incomplete",
			slog.Uint64("plan_id", uint64(plan.ID)),
			slog.Int("progress", plan.Progress),
			slog.String("error", err.Error()),
		)
		return view, models.NewNotificationDeliveryError(err)
	}
	return view, nil
}

func (s *LearningPlanService) planViews(ctx context.Context, plans []models.LearningPlan) ([]models.PlanView, error) {
	ids := make([]uint, 0, len(plans))
	for i := range plans {
		ids = append(ids, plans[i].UserID)
	}
	authors, err := loadAuthors(ctx, s.userRepo, ids)
	if err != nil {
		return nil, err
	}
	views := make([]models.PlanView, 0, len(plans))
	for i := range plans {
		views = append(views, models.PlanView{LearningPlan: plans[i], Author: authors[plans[i].UserID]})
	}
	return views, nil
}
