package handlers

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/helpdesk-service/internal/api/dto"
	"github.com/spec-kit/helpdesk-service/internal/export"
	"github.com/spec-kit/helpdesk-service/internal/service"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TicketsHandler manages the shared ticket endpoints used by the submit form
// and the admin dashboard.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := service.ListFilter{
		Status: c.Query("status"),
		Query:  c.Query("q"),
	}
	listing, err := h.service.ListForAdmin(c.UserContext(), parseBool(c.Query("archived")), filter)
	if err != nil {
		return err
	}
	return c.JSON(dto.TicketListResponse{
		Success: true,
		Tickets: dto.TicketResponses(listing.Tickets),
		Stats:   listing.Stats,
	})
}

// GetTicket GET /api/tickets/:ticketNumber.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	ticket, err := h.service.GetTicket(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.TicketResponseFrom(ticket)})
}

// CreateTicket POST /api/tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SubmitTicket(c.UserContext(), service.SubmitTicketInput{
		Category:        req.Category,
		Username:        req.Username,
		Email:           req.Email,
		Subject:         req.Subject,
		SubjectCategory: req.SubjectCategory,
		Message:         req.Message,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"success": true,
		"ticket":  dto.CreatedTicketResponse{TicketNumber: ticket.TicketNumber, Status: ticket.Status},
	})
}

// AddMessage POST /api/tickets/:ticketNumber/messages.
func (h *TicketsHandler) AddMessage(c *fiber.Ctx) error {
	var req dto.CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.PostMessage(c.UserContext(), service.PostMessageInput{
		TicketNumber: c.Params("ticketNumber"),
		Sender:       req.Sender,
		Text:         req.Message,
		IsInternal:   req.IsInternal,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.TicketResponseFrom(ticket)})
}

// DeleteMessage DELETE /api/tickets/:ticketNumber/messages/:messageId.
func (h *TicketsHandler) DeleteMessage(c *fiber.Ctx) error {
	if _, err := h.service.DeleteInternalNote(c.UserContext(), c.Params("ticketNumber"), c.Params("messageId")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// UpdateStatus PATCH /api/tickets/:ticketNumber/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.SetStatus(c.UserContext(), c.Params("ticketNumber"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.TicketResponseFrom(ticket)})
}

// AssignAgent PATCH /api/tickets/:ticketNumber/assign.
func (h *TicketsHandler) AssignAgent(c *fiber.Ctx) error {
	var req dto.AssignAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.service.AssignAgent(c.UserContext(), c.Params("ticketNumber"), req.Agent)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.TicketResponseFrom(ticket)})
}

// CloseTicket PATCH /api/tickets/:ticketNumber/close.
func (h *TicketsHandler) CloseTicket(c *fiber.Ctx) error {
	ticket, err := h.service.CloseTicket(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.TicketResponseFrom(ticket)})
}

// ArchiveTicket PATCH /api/tickets/:ticketNumber/archive.
func (h *TicketsHandler) ArchiveTicket(c *fiber.Ctx) error {
	ticket, err := h.service.ArchiveTicket(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "ticket": dto.TicketResponseFrom(ticket)})
}

// DeleteTicket DELETE /api/tickets/:ticketNumber.
func (h *TicketsHandler) DeleteTicket(c *fiber.Ctx) error {
	if err := h.service.DeleteTicket(c.UserContext(), c.Params("ticketNumber")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// Download GET /api/tickets/:ticketNumber/download.
func (h *TicketsHandler) Download(c *fiber.Ctx) error {
	data, filename, err := h.service.ExportTicketCSV(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	c.Set(fiber.HeaderContentType, export.ContentType)
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(data)
}

// SetTyping POST /api/tickets/:ticketNumber/typing.
func (h *TicketsHandler) SetTyping(c *fiber.Ctx) error {
	var req dto.TypingRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := h.service.SetTyping(c.UserContext(), c.Params("ticketNumber"), req.User, req.IsTyping); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true})
}

// TypingStatus GET /api/tickets/:ticketNumber/typing.
func (h *TicketsHandler) TypingStatus(c *fiber.Ctx) error {
	status, err := h.service.TypingStatus(c.UserContext(), c.Params("ticketNumber"))
	if err != nil {
		return err
	}
	return c.JSON(dto.TypingStatusResponse{Success: true, IsTyping: status.IsTyping, User: status.User})
}

func parseBool(val string) bool {
	parsed, err := strconv.ParseBool(strings.TrimSpace(val))
	return err == nil && parsed
}
