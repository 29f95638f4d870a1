package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// PortalHandler serves customer-facing reads and replies. Internal notes
// never leave this handler.
type PortalHandler struct {
	service *service.TicketService
}

// NewPortalHandler constructs handler.
func NewPortalHandler(ticketService *service.TicketService) *PortalHandler {
	return &PortalHandler{service: ticketService}
}

// GetTicket GET /api/portal/tickets/:ticketNumber.
func (h *PortalHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetCustomerTicket(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.TicketResponseFrom(ticket)})
}

// Reply POST /api/portal/tickets/:ticketNumber/messages.
func (h *PortalHandler) Reply(c *fiber.Ctx) error {
	var req dto.PortalMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.PostMessage(c.UserContext(), service.PostMessageInput{
		TicketNumber: c.Params("ticketNumber"),
		Text:         req.Message,
		Origin:       domain.OriginCustomer,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.TicketResponseFrom(ticket)})
}
