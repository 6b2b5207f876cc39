package server

import (
	"skillshare/internal/middleware"
	"skillshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateProgress handles POST /api/progress
func (s *Server) CreateProgress(c *fiber.Ctx) error {
	var in service.CreateProgressInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.ActorEmail = middleware.ActorEmail(c)

	entry, err := s.progressService.CreateProgress(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(entry)
}

// GetProgress handles GET /api/progress/:id
func (s *Server) GetProgress(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	entry, err := s.progressService.GetProgress(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

// GetUserProgress handles GET /api/users/:id/progress
func (s *Server) GetUserProgress(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	entries, err := s.progressService.ListUserProgress(c.UserContext(), userID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// GetProgressBySkill handles GET /api/progress?skill=
func (s *Server) GetProgressBySkill(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	entries, err := s.progressService.ListProgressBySkill(c.UserContext(), c.Query("skill"), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// UpdateProgress handles PUT /api/progress/:id
func (s *Server) UpdateProgress(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var in service.UpdateProgressInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.ActorEmail = middleware.ActorEmail(c)
	in.EntryID = id

	entry, err := s.progressService.UpdateProgress(c.UserContext(), in)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entry)
}

// DeleteProgress handles DELETE /api/progress/:id
func (s *Server) DeleteProgress(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.progressService.DeleteProgress(c.UserContext(), middleware.ActorEmail(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
