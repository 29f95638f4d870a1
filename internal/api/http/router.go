package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/http/handlers"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health        *handlers.HealthHandler
	Tickets       *handlers.TicketsHandler
	Notifications *handlers.NotificationsHandler
	Portal        *handlers.PortalHandler
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	app.Get("/metrics", cfg.Health.Metrics)

	api := app.Group("/api")

	tickets := api.Group("/tickets")
	tickets.Get("/", cfg.Tickets.ListTickets)
	tickets.Post("/", cfg.Tickets.CreateTicket)
	tickets.Get("/:ticketNumber", cfg.Tickets.GetTicket)
	tickets.Delete("/:ticketNumber", cfg.Tickets.DeleteTicket)
	tickets.Post("/:ticketNumber/messages", cfg.Tickets.AddMessage)
	tickets.Delete("/:ticketNumber/messages/:messageId", cfg.Tickets.DeleteMessage)
	tickets.Patch("/:ticketNumber/status", cfg.Tickets.UpdateStatus)
	tickets.Patch("/:ticketNumber/assign", cfg.Tickets.AssignAgent)
	tickets.Patch("/:ticketNumber/close", cfg.Tickets.CloseTicket)
	tickets.Patch("/:ticketNumber/archive", cfg.Tickets.ArchiveTicket)
	tickets.Get("/:ticketNumber/download", cfg.Tickets.Download)
	tickets.Post("/:ticketNumber/typing", cfg.Tickets.SetTyping)
	tickets.Get("/:ticketNumber/typing", cfg.Tickets.TypingStatus)

	notifications := api.Group("/notifications")
	notifications.Get("/", cfg.Notifications.List)
	notifications.Delete("/", cfg.Notifications.Clear)
	notifications.Delete("/:ticketNumber", cfg.Notifications.Acknowledge)

	portal := api.Group("/portal/tickets")
	portal.Get("/:ticketNumber", cfg.Portal.GetTicket)
	portal.Post("/:ticketNumber/messages", cfg.Portal.Reply)

	app.Use(func(c *fiber.Ctx) error {
		return apperrors.NewNotFound("route", map[string]any{"path": c.Path()})
	})
}
