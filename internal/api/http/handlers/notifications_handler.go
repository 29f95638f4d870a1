package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// NotificationsHandler serves the admin notification poll.
type NotificationsHandler struct {
	service *service.TicketService
}

// NewNotificationsHandler constructs handler.
func NewNotificationsHandler(ticketService *service.TicketService) *NotificationsHandler {
	return &NotificationsHandler{service: ticketService}
}

// List GET /api/notifications.
func (h *NotificationsHandler) List(c *fiber.Ctx) error {
	view, err := h.service.Notifications(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(dto.NotificationsResponse{
		Success:         true,
		Notifications:   view.Notifications,
		Count:           len(view.Notifications),
		NewTicketsCount: view.NewTicketsCount,
	})
}

// Acknowledge DELETE /api/notifications/:ticketNumber.
func (h *NotificationsHandler) Acknowledge(c *fiber.Ctx) error {
	removed, err := h.service.AcknowledgeNotifications(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "removed": removed})
}

// Clear DELETE /api/notifications.
func (h *NotificationsHandler) Clear(c *fiber.Ctx) error {
	if err := h.service.ClearNotifications(c.UserContext()); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}
