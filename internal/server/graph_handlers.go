package server

import (
	"skillshare/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/users/:id/follow
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.graphService.Follow(c.UserContext(), middleware.ActorEmail(c), targetID)
	return respond(c, fiber.StatusOK, profile, err)
}

// UnfollowUser handles DELETE /api/users/:id/follow
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	profile, err := s.graphService.Unfollow(c.UserContext(), middleware.ActorEmail(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(profile)
}

// GetFollowers handles GET /api/users/:id/followers
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	entries, err := s.graphService.ListFollowers(c.UserContext(), userID, middleware.ActorEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}

// GetFollowing handles GET /api/users/:id/following
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	entries, err := s.graphService.ListFollowing(c.UserContext(), userID, middleware.ActorEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(entries)
}
