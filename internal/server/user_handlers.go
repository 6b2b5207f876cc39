package server

import (
	"net/url"

	"skillshare/internal/middleware"
	"skillshare/internal/service"

	"github.com/gofiber/fiber/v2"
)

type UpdateProfileRequest struct {
	Name         *string  `json:"name"`
	Bio          *string  `json:"bio"`
	Location     *string  `json:"location"`
	Avatar       *string  `json:"avatar"`
	CoverPicture *string  `json:"cover_picture"`
	Skills       []string `json:"skills"`
	Interests    []string `json:"interests"`
}

// GetAllUsers handles GET /api/users
func (s *Server) GetAllUsers(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	users, err := s.userService.ListUsers(c.UserContext(), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}

// GetMyProfile handles GET /api/users/me
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	profile, err := s.userService.GetMe(c.UserContext(), middleware.ActorEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// UpdateMyProfile handles PUT /api/users/me
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	profile, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		ActorEmail:   middleware.ActorEmail(c),
		Name:         req.Name,
		Bio:          req.Bio,
		Location:     req.Location,
		Avatar:       req.Avatar,
		CoverPicture: req.CoverPicture,
		Skills:       req.Skills,
		Interests:    req.Interests,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

type SkillRequest struct {
	Name string `json:"name"`
}

// AddMySkill handles POST /api/users/me/skills
func (s *Server) AddMySkill(c *fiber.Ctx) error {
	var req SkillRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	profile, err := s.userService.AddSkill(c.UserContext(), middleware.ActorEmail(c), req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// RemoveMySkill handles DELETE /api/users/me/skills/:name
func (s *Server) RemoveMySkill(c *fiber.Ctx) error {
	name, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		name = c.Params("name")
	}
	profile, err := s.userService.RemoveSkill(c.UserContext(), middleware.ActorEmail(c), name)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetUserProfile handles GET /api/users/:id
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.userService.GetProfile(c.UserContext(), id, middleware.ActorEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}
