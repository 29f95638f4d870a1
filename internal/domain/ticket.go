package domain

import (
	"strings"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusNew         TicketStatus = "New"
	TicketStatusOpen        TicketStatus = "Open"
	TicketStatusOnHold      TicketStatus = "On Hold"
	TicketStatusOngoing     TicketStatus = "Ongoing"
	TicketStatusInProgress  TicketStatus = "In Progress"
	TicketStatusResolved    TicketStatus = "Resolved"
	TicketStatusClosedToday TicketStatus = "Closed Today"
)

// TicketStatuses lists the canonical statuses in workflow order.
var TicketStatuses = []TicketStatus{
	TicketStatusNew,
	TicketStatusOpen,
	TicketStatusOnHold,
	TicketStatusOngoing,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosedToday,
}

// TicketCategory enumerates the topics a customer can file a ticket under.
type TicketCategory string

const (
	CategoryQuestion       TicketCategory = "Question"
	CategoryTechnicalIssue TicketCategory = "Technical Issue"
	CategoryBilling        TicketCategory = "Billing"
	CategoryAccount        TicketCategory = "Account"
	CategoryFeedback       TicketCategory = "Feedback"
	CategoryOther          TicketCategory = "Other"
)

// TicketCategories lists the canonical categories.
var TicketCategories = []TicketCategory{
	CategoryQuestion,
	CategoryTechnicalIssue,
	CategoryBilling,
	CategoryAccount,
	CategoryFeedback,
	CategoryOther,
}

// AnonymousUsername is recorded when a customer submits without a name.
const AnonymousUsername = "Anonymous"

// Ticket is the aggregate for support conversations.
type Ticket struct {
	TicketNumber    string
	Username        string
	Email           string
	Subject         string
	Category        TicketCategory
	SubjectCategory string
	Status          TicketStatus
	AssignedAgent   *string
	IsArchived      bool
	ArchivedAt      *time.Time
	Messages        []Message
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// CustomerView returns a copy of the ticket without internal notes.
func (t *Ticket) CustomerView() *Ticket {
	view := *t
	view.Messages = make([]Message, 0, len(t.Messages))
	for _, msg := range t.Messages {
		if msg.IsInternal {
			continue
		}
		view.Messages = append(view.Messages, msg)
	}
	return &view
}

// IsCustomerSender reports whether sender names the ticket's requester.
func (t *Ticket) IsCustomerSender(sender string) bool {
	return strings.EqualFold(strings.TrimSpace(sender), strings.TrimSpace(t.Username))
}

// FindMessage returns the message with the given id.
func (t *Ticket) FindMessage(id string) (*Message, bool) {
	for i := range t.Messages {
		if t.Messages[i].ID == id {
			return &t.Messages[i], true
		}
	}
	return nil, false
}

// Clone deep-copies the ticket so callers can't mutate shared state.
func (t *Ticket) Clone() *Ticket {
	c := *t
	if t.AssignedAgent != nil {
		agent := *t.AssignedAgent
		c.AssignedAgent = &agent
	}
	if t.ArchivedAt != nil {
		at := *t.ArchivedAt
		c.ArchivedAt = &at
	}
	c.Messages = append([]Message(nil), t.Messages...)
	return &c
}

// ParseStatus resolves a client-supplied status to its canonical value.
// Matching ignores case and accepts slug forms such as "on-hold".
func ParseStatus(raw string) (TicketStatus, bool) {
	key := vocabularyKey(raw)
	for _, status := range TicketStatuses {
		if vocabularyKey(string(status)) == key {
			return status, true
		}
	}
	return "", false
}

// ParseCategory resolves a client-supplied category to its canonical value.
func ParseCategory(raw string) (TicketCategory, bool) {
	key := vocabularyKey(raw)
	for _, category := range TicketCategories {
		if vocabularyKey(string(category)) == key {
			return category, true
		}
	}
	return "", false
}

func vocabularyKey(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	raw = strings.NewReplacer("-", " ", "_", " ").Replace(raw)
	return strings.Join(strings.Fields(raw), " ")
}
