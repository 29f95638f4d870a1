package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/ephemeral"
	"github.com/spec-kit/helpdesk-service/internal/service"
)

// CreateTicketRequest payload.
type CreateTicketRequest struct {
	Category        string `json:"category"`
	Username        string `json:"username"`
	Email           string `json:"email"`
	Subject         string `json:"subject"`
	SubjectCategory string `json:"subjectCategory"`
	Message         string `json:"message"`
}

// CreateMessageRequest payload for the admin thread.
type CreateMessageRequest struct {
	Sender     string `json:"sender"`
	Message    string `json:"message"`
	IsInternal bool   `json:"isInternal"`
}

// PortalMessageRequest payload for a customer reply.
type PortalMessageRequest struct {
	Message string `json:"message"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status string `json:"status"`
}

// AssignAgentRequest payload.
type AssignAgentRequest struct {
	Agent string `json:"agent"`
}

// TypingRequest payload.
type TypingRequest struct {
	User     string `json:"user"`
	IsTyping bool   `json:"isTyping"`
}

// CreatedTicketResponse is all a customer learns about a new ticket.
type CreatedTicketResponse struct {
	TicketNumber string              `json:"ticketNumber"`
	Status       domain.TicketStatus `json:"status"`
}

// TicketResponse provides full ticket info.
type TicketResponse struct {
	TicketNumber    string                `json:"ticketNumber"`
	Username        string                `json:"username"`
	Email           string                `json:"email"`
	Subject         string                `json:"subject"`
	Category        domain.TicketCategory `json:"category"`
	SubjectCategory string                `json:"subjectCategory"`
	Status          domain.TicketStatus   `json:"status"`
	AssignedAgent   *string               `json:"assignedAgent"`
	IsArchived      bool                  `json:"isArchived"`
	ArchivedAt      *time.Time            `json:"archivedAt"`
	Messages        []MessageResponse     `json:"messages"`
	CreatedAt       time.Time             `json:"createdAt"`
	UpdatedAt       time.Time             `json:"updatedAt"`
}

// MessageResponse represents a thread message.
type MessageResponse struct {
	ID         string    `json:"id"`
	Sender     string    `json:"sender"`
	Message    string    `json:"message"`
	IsInternal bool      `json:"isInternal"`
	CreatedAt  time.Time `json:"createdAt"`
}

// TicketResponseFrom maps a domain ticket.
func TicketResponseFrom(ticket *domain.Ticket) TicketResponse {
	msgs := make([]MessageResponse, 0, len(ticket.Messages))
	for _, msg := range ticket.Messages {
		msgs = append(msgs, MessageResponse{
			ID:         msg.ID,
			Sender:     msg.Sender,
			Message:    msg.Body,
			IsInternal: msg.IsInternal,
			CreatedAt:  msg.CreatedAt,
		})
	}
	return TicketResponse{
		TicketNumber:    ticket.TicketNumber,
		Username:        ticket.Username,
		Email:           ticket.Email,
		Subject:         ticket.Subject,
		Category:        ticket.Category,
		SubjectCategory: ticket.SubjectCategory,
		Status:          ticket.Status,
		AssignedAgent:   ticket.AssignedAgent,
		IsArchived:      ticket.IsArchived,
		ArchivedAt:      ticket.ArchivedAt,
		Messages:        msgs,
		CreatedAt:       ticket.CreatedAt,
		UpdatedAt:       ticket.UpdatedAt,
	}
}

// TicketResponses maps a listing.
func TicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, TicketResponseFrom(&tickets[i]))
	}
	return out
}

// TicketListResponse is the admin dashboard envelope.
type TicketListResponse struct {
	Success bool                `json:"success"`
	Tickets []TicketResponse    `json:"tickets"`
	Stats   service.TicketStats `json:"stats"`
}

// NotificationsResponse is the notification poll envelope.
type NotificationsResponse struct {
	Success         bool                     `json:"success"`
	Notifications   []ephemeral.Notification `json:"notifications"`
	Count           int                      `json:"count"`
	NewTicketsCount int                      `json:"newTicketsCount"`
}

// TypingStatusResponse is the typing poll envelope.
type TypingStatusResponse struct {
	Success  bool   `json:"success"`
	IsTyping bool   `json:"isTyping"`
	User     string `json:"user,omitempty"`
}
