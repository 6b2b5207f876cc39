package service

import (
	"context"
	"slices"
	"strings"

	"skillshare/internal/models"
	"skillshare/internal/repository"

	"github.com/jinzhu/copier"
)

const (
	maxBioLen   = 500
	maxNameLen  = 100
	maxSkillLen = 50
)

type UserService struct {
	userRepo    repository.UserRepository
	casAttempts int
}

// UpdateProfileInput carries the profile fields a user may change about
// themselves. Nil fields are left unchanged.
type UpdateProfileInput struct {
	ActorEmail   string   `copier:"-"`
	Name         *string
	Bio          *string
	Location     *string
	Avatar       *string
	CoverPicture *string
	Skills       []string `copier:"-"`
	Interests    []string `copier:"-"`
}

func NewUserService(userRepo repository.UserRepository, casAttempts int) *UserService {
	return &UserService{userRepo: userRepo, casAttempts: casAttempts}
}

// ResolveActor maps an identity token to the user it belongs to.
func (s *UserService) ResolveActor(ctx context.Context, email string) (*models.User, error) {
	return resolveActor(ctx, s.userRepo, email)
}

func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.userRepo.List(ctx, limit, offset)
}

// GetProfile returns userID's profile as seen by the optional viewer.
func (s *UserService) GetProfile(ctx context.Context, userID uint, viewerEmail string) (*models.Profile, error) {
	viewer, err := resolveViewer(ctx, s.userRepo, viewerEmail)
	if err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile := models.NewProfile(user, viewer)
	return &profile, nil
}

func (s *UserService) GetMe(ctx context.Context, email string) (*models.Profile, error) {
	user, err := resolveActor(ctx, s.userRepo, email)
	if err != nil {
		return nil, err
	}
	profile := models.NewProfile(user, nil)
	return &profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*models.Profile, error) {
	actor, err := resolveActor(ctx, s.userRepo, in.ActorEmail)
	if err != nil {
		return nil, err
	}
	if in.Bio != nil && len(*in.Bio) > maxBioLen {
		return nil, models.NewValidationError("Bio too long (max 500 characters)")
	}
	if in.Name != nil && len(*in.Name) > maxNameLen {
		return nil, models.NewValidationError("Name too long (max 100 characters)")
	}

	var updated *models.User
	err = retryOnConflict(ctx, s.casAttempts, "User", func() error {
		user, err := s.userRepo.GetForUpdate(ctx, actor.ID)
		if err != nil {
			return err
		}
		if err := copier.CopyWithOption(user, &in, copier.Option{IgnoreEmpty: true}); err != nil {
			return models.NewInternalError(err)
		}
		if in.Skills != nil {
			user.Skills = models.NormalizeSet(in.Skills)
		}
		if in.Interests != nil {
			user.Interests = models.NormalizeSet(in.Interests)
		}
		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	profile := models.NewProfile(updated, nil)
	return &profile, nil
}

// AddSkill adds skill to the actor's skill set. Adding a skill the actor
// already has leaves the record untouched.
func (s *UserService) AddSkill(ctx context.Context, email, skill string) (*models.Profile, error) {
	skill = strings.TrimSpace(skill)
	if skill == "" {
		return nil, models.NewValidationError("Skill name is required")
	}
	if len(skill) > maxSkillLen {
		return nil, models.NewValidationError("Skill name too long (max 50 characters)")
	}
	return s.mutateSkills(ctx, email, func(skills []string) ([]string, bool) {
		if slices.Contains(skills, skill) {
			return skills, false
		}
		return append(skills, skill), true
	})
}

// RemoveSkill drops skill from the actor's skill set. Removing a skill the
// actor does not have is a no-op.
func (s *UserService) RemoveSkill(ctx context.Context, email, skill string) (*models.Profile, error) {
	skill = strings.TrimSpace(skill)
	return s.mutateSkills(ctx, email, func(skills []string) ([]string, bool) {
		i := slices.Index(skills, skill)
		if i < 0 {
			return skills, false
		}
		return slices.Delete(skills, i, i+1), true
	})
}

func (s *UserService) mutateSkills(ctx context.Context, email string, apply func([]string) ([]string, bool)) (*models.Profile, error) {
	actor, err := resolveActor(ctx, s.userRepo, email)
	if err != nil {
		return nil, err
	}

	var updated *models.User
	err = retryOnConflict(ctx, s.casAttempts, "User", func() error {
		user, err := s.userRepo.GetForUpdate(ctx, actor.ID)
		if err != nil {
			return err
		}
		next, changed := apply(models.NormalizeSet(user.Skills))
		if !changed {
			updated = user
			return nil
		}
		user.Skills = next
		if err := s.userRepo.Update(ctx, user); err != nil {
			return err
		}
		updated = user
		return nil
	})
	if err != nil {
		return nil, err
	}

	profile := models.NewProfile(updated, nil)
	return &profile, nil
}
