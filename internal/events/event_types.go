package events

import (
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated        EventType = "ticket_created"
	EventTicketMessageAdded   EventType = "ticket_message_added"
	EventTicketMessageDeleted EventType = "ticket_message_deleted"
	EventTicketStatusChanged  EventType = "ticket_status_changed"
	EventTicketAssigned       EventType = "ticket_assigned"
	EventTicketArchived       EventType = "ticket_archived"
	EventTicketDeleted        EventType = "ticket_deleted"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID           string      `json:"id"`
	Type         EventType   `json:"type"`
	TicketNumber string      `json:"ticket_number"`
	Actor        string      `json:"actor,omitempty"`
	Timestamp    time.Time   `json:"timestamp"`
	Payload      interface{} `json:"payload"`
}

// NewEvent stamps an event with a fresh id.
func NewEvent(eventType EventType, ticketNumber, actor string, at time.Time, payload interface{}) Event {
	return Event{
		ID:           uuid.NewString(),
		Type:         eventType,
		TicketNumber: ticketNumber,
		Actor:        actor,
		Timestamp:    at,
		Payload:      payload,
	}
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	Subject   string                `json:"subject"`
	Category  domain.TicketCategory `json:"category"`
	Status    domain.TicketStatus   `json:"status"`
	Username  string                `json:"username"`
	Preview   string                `json:"preview"`
	CreatedAt time.Time             `json:"created_at"`
}

// TicketMessageAddedPayload payload.
type TicketMessageAddedPayload struct {
	MessageID  string               `json:"message_id"`
	Sender     string               `json:"sender"`
	IsInternal bool                 `json:"is_internal"`
	Origin     domain.MessageOrigin `json:"origin"`
	Preview    string               `json:"preview"`
}

// Notifies reports whether the message should surface in the admin feed.
func (p TicketMessageAddedPayload) Notifies() bool {
	return p.Origin == domain.OriginCustomer && !p.IsInternal
}

// TicketMessageDeletedPayload payload.
type TicketMessageDeletedPayload struct {
	MessageID  string `json:"message_id"`
	IsInternal bool   `json:"is_internal"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	Agent *string `json:"agent,omitempty"`
}

// TicketArchivedPayload payload.
type TicketArchivedPayload struct {
	ArchivedAt time.Time `json:"archived_at"`
}
