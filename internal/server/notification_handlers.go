package server

import (
	"skillshare/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

type UnreadCountResponse struct {
	Count int64 `json:"count"`
}

type MarkAllReadResponse struct {
	Marked int `json:"marked"`
}

// GetNotifications handles GET /api/notifications
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	items, err := s.notificationService.List(c.UserContext(), middleware.ActorEmail(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(items)
}

// GetUnreadCount handles GET /api/notifications/unread-count
func (s *Server) GetUnreadCount(c *fiber.Ctx) error {
	count, err := s.notificationService.UnreadCount(c.UserContext(), middleware.ActorEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(UnreadCountResponse{Count: count})
}

// MarkNotificationRead handles PUT /api/notifications/:id/read
func (s *Server) MarkNotificationRead(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	n, err := s.notificationService.MarkRead(c.UserContext(), middleware.ActorEmail(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(n)
}

// MarkAllNotificationsRead handles PUT /api/notifications/read-all
func (s *Server) MarkAllNotificationsRead(c *fiber.Ctx) error {
	marked, err := s.notificationService.MarkAllRead(c.UserContext(), middleware.ActorEmail(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(MarkAllReadResponse{Marked: marked})
}
