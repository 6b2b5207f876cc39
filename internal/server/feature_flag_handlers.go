package server

import (
	"skillshare/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type FeatureFlagsResponse struct {
	Raw       map[string]string `json:"raw"`
	Evaluated map[string]bool   `json:"evaluated"`
}

// GetFeatureFlags returns configured feature flags and evaluated state for current user.
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	userID, _ := c.Locals(middleware.LocalUserID).(uint)

	if s.featureFlags == nil {
		return c.JSON(FeatureFlagsResponse{
			Raw:       map[string]string{},
			Evaluated: map[string]bool{},
		})
	}

	return c.JSON(FeatureFlagsResponse{
		Raw:       s.featureFlags.Raw(),
		Evaluated: s.featureFlags.Snapshot(userID),
	})
}
