package server

import (
	"time"

	"skillshare/internal/middleware"
	"skillshare/internal/models"
	"skillshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

type StepRequest struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Completed   bool       `json:"completed"`
	Deadline    *time.Time `json:"deadline"`
	Resources   []string   `json:"resources"`
}

type StepPatchRequest struct {
	Title       *string    `json:"title"`
	Description *string    `json:"description"`
	Completed   bool       `json:"completed"`
	Deadline    *time.Time `json:"deadline"`
	Resources   []string   `json:"resources"`
}

// PlanRequest is shared by create and update. Skill is the single-skill form
// older clients send; Skills wins when both are present.
type PlanRequest struct {
	Title       string        `json:"title"`
	Description *string       `json:"description"`
	Skill       string        `json:"skill"`
	Skills      []string      `json:"skills"`
	Steps       []StepRequest `json:"steps"`
	Deadline    *time.Time    `json:"deadline"`
}

type StepStatusRequest struct {
	Completed bool `json:"completed"`
}

type MoveStepRequest struct {
	Direction string `json:"direction"`
}

type PlanProgressRequest struct {
	Progress *int `json:"progress"`
}

func (r StepRequest) input() service.StepInput {
	return service.StepInput{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Completed:   r.Completed,
		Deadline:    r.Deadline,
		Resources:   r.Resources,
	}
}

func stepInputs(in []StepRequest) []service.StepInput {
	out := make([]service.StepInput, 0, len(in))
	for _, r := range in {
		out = append(out, r.input())
	}
	return out
}

// CreatePlan handles POST /api/plans
func (s *Server) CreatePlan(c *fiber.Ctx) error {
	var req PlanRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	in := service.CreatePlanInput{
		ActorEmail: middleware.ActorEmail(c),
		Title:      req.Title,
		Skill:      req.Skill,
		Skills:     req.Skills,
		Steps:      stepInputs(req.Steps),
		Deadline:   req.Deadline,
	}
	if req.Description != nil {
		in.Description = *req.Description
	}

	plan, err := s.planService.CreatePlan(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(plan)
}

// GetPlan handles GET /api/plans/:id
func (s *Server) GetPlan(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	plan, err := s.planService.GetPlan(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

// GetUserPlans handles GET /api/users/:id/plans
func (s *Server) GetUserPlans(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	plans, err := s.planService.ListPlans(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plans)
}

// GetPlansBySkill handles GET /api/plans?skill=
func (s *Server) GetPlansBySkill(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	plans, err := s.planService.ListPlansBySkill(c.UserContext(), c.Query("skill"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plans)
}

// UpdatePlan handles PUT /api/plans/:id
func (s *Server) UpdatePlan(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req PlanRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	plan, err := s.planService.UpdatePlan(c.UserContext(), service.UpdatePlanInput{
		ActorEmail:  middleware.ActorEmail(c),
		PlanID:      id,
		Title:       req.Title,
		Description: req.Description,
		Skill:       req.Skill,
		Skills:      req.Skills,
		Steps:       stepInputs(req.Steps),
		Deadline:    req.Deadline,
	})
	return respond(c, fiber.StatusOK, plan, err)
}

// DeletePlan handles DELETE /api/plans/:id
func (s *Server) DeletePlan(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.planService.DeletePlan(c.UserContext(), middleware.ActorEmail(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddPlanStep handles POST /api/plans/:id/steps
func (s *Server) AddPlanStep(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req StepRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	plan, err := s.planService.AddStep(c.UserContext(), middleware.ActorEmail(c), id, req.input())
	return respond(c, fiber.StatusCreated, plan, err)
}

// UpdatePlanStep handles PUT /api/plans/:id/steps/:stepId
func (s *Server) UpdatePlanStep(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req StepPatchRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	plan, err := s.planService.UpdateStep(c.UserContext(), middleware.ActorEmail(c), id, c.Params("stepId"), service.StepPatch{
		Title:       req.Title,
		Description: req.Description,
		Completed:   req.Completed,
		Deadline:    req.Deadline,
		Resources:   req.Resources,
	})
	return respond(c, fiber.StatusOK, plan, err)
}

// SetPlanStepStatus handles PATCH /api/plans/:id/steps/:stepId/status
func (s *Server) SetPlanStepStatus(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req StepStatusRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	plan, err := s.planService.SetStepStatus(c.UserContext(), middleware.ActorEmail(c), id, c.Params("stepId"), req.Completed)
	return respond(c, fiber.StatusOK, plan, err)
}

// DeletePlanStep handles DELETE /api/plans/:id/steps/:stepId
func (s *Server) DeletePlanStep(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	plan, err := s.planService.DeleteStep(c.UserContext(), middleware.ActorEmail(c), id, c.Params("stepId"))
	return respond(c, fiber.StatusOK, plan, err)
}

// MovePlanStep handles POST /api/plans/:id/steps/:stepId/move
func (s *Server) MovePlanStep(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req MoveStepRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	plan, err := s.planService.ReorderStep(c.UserContext(), middleware.ActorEmail(c), id, c.Params("stepId"), req.Direction)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}

// SetPlanProgress handles PUT /api/plans/:id/progress
func (s *Server) SetPlanProgress(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req PlanProgressRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.Progress == nil {
		return respondError(c, models.NewValidationError("progress is required"))
	}
	plan, err := s.planService.SetProgress(c.UserContext(), middleware.ActorEmail(c), id, *req.Progress)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(plan)
}
