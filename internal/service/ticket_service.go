package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/ephemeral"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/export"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// DefaultMaxCreateAttempts bounds ticket-number regeneration on collision.
const DefaultMaxCreateAttempts = 5

// TicketService coordinates ticket workflows.
type TicketService struct {
	tickets                  repository.TicketRepository
	typing                   ephemeral.TypingStore
	feed                     ephemeral.NotificationFeed
	dispatcher               events.Dispatcher
	nextNumber               NumberGenerator
	maxCreateAttempts        int
	allowPublicMessageDelete bool
	deleteRequiresArchive    bool
	previewLength            int
	now                      func() time.Time
	logger                   *zap.Logger
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	TicketRepo               repository.TicketRepository
	Typing                   ephemeral.TypingStore
	Feed                     ephemeral.NotificationFeed
	Dispatcher               events.Dispatcher
	NumberGenerator          NumberGenerator
	MaxCreateAttempts        int
	AllowPublicMessageDelete bool
	DeleteRequiresArchive    bool
	PreviewLength            int
	Now                      func() time.Time
	Logger                   *zap.Logger
}

// SubmitTicketInput describes a customer's new ticket.
type SubmitTicketInput struct {
	Category        string
	Username        string
	Email           string
	Subject         string
	SubjectCategory string
	Message         string
}

// PostMessageInput describes a reply or note on a ticket.
// An empty Origin is inferred from the sender.
type PostMessageInput struct {
	TicketNumber string
	Sender       string
	Text         string
	IsInternal   bool
	Origin       domain.MessageOrigin
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	svc := &TicketService{
		tickets:                  deps.TicketRepo,
		typing:                   deps.Typing,
		feed:                     deps.Feed,
		dispatcher:               deps.Dispatcher,
		nextNumber:               deps.NumberGenerator,
		maxCreateAttempts:        deps.MaxCreateAttempts,
		allowPublicMessageDelete: deps.AllowPublicMessageDelete,
		deleteRequiresArchive:    deps.DeleteRequiresArchive,
		previewLength:            deps.PreviewLength,
		now:                      deps.Now,
		logger:                   deps.Logger,
	}
	if svc.nextNumber == nil {
		svc.nextNumber = NewTicketNumberGenerator(DefaultTicketNumberLength)
	}
	if svc.maxCreateAttempts <= 0 {
		svc.maxCreateAttempts = DefaultMaxCreateAttempts
	}
	if svc.previewLength <= 0 {
		svc.previewLength = ephemeral.DefaultPreviewLength
	}
	if svc.now == nil {
		svc.now = time.Now
	}
	if svc.logger == nil {
		svc.logger = zap.NewNop()
	}
	return svc
}

// SubmitTicket creates a ticket with status New and the customer's first message.
func (s *TicketService) SubmitTicket(ctx context.Context, input SubmitTicketInput) (*domain.Ticket, error) {
	category, ok := domain.ParseCategory(input.Category)
	if strings.TrimSpace(input.Category) == "" {
		return nil, apperrors.NewValidationError("category is required", map[string]any{"field": "category"})
	}
	if !ok {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"field": "category", "value": input.Category})
	}
	subject := strings.TrimSpace(input.Subject)
	if subject == "" {
		return nil, apperrors.NewValidationError("subject is required", map[string]any{"field": "subject"})
	}
	body := strings.TrimSpace(input.Message)
	if body == "" {
		return nil, apperrors.NewValidationError("message is required", map[string]any{"field": "message"})
	}
	username := strings.TrimSpace(input.Username)
	if username == "" {
		username = domain.AnonymousUsername
	}

	var ticket *domain.Ticket
	for attempt := 1; ; attempt++ {
		ticket = &domain.Ticket{
			TicketNumber:    s.nextNumber(),
			Username:        username,
			Email:           strings.TrimSpace(input.Email),
			Subject:         subject,
			Category:        category,
			SubjectCategory: strings.TrimSpace(input.SubjectCategory),
			Status:          domain.TicketStatusNew,
			Messages: []domain.Message{{
				ID:     uuid.NewString(),
				Sender: username,
				Body:   body,
			}},
		}
		err := s.tickets.Create(ctx, ticket)
		if err == nil {
			break
		}
		if !errors.Is(err, domain.ErrDuplicateTicketNumber) {
			return nil, apperrors.NewStoreError(err)
		}
		s.logger.Warn("ticket number collision",
			zap.String("ticket_number", ticket.TicketNumber),
			zap.Int("attempt", attempt))
		if attempt >= s.maxCreateAttempts {
			return nil, apperrors.NewStoreError(err)
		}
	}

	s.publishEvent(ctx, events.NewEvent(events.EventTicketCreated, ticket.TicketNumber, username, s.now(),
		events.TicketCreatedPayload{
			Subject:   ticket.Subject,
			Category:  ticket.Category,
			Status:    ticket.Status,
			Username:  ticket.Username,
			Preview:   ephemeral.Preview(body, s.previewLength),
			CreatedAt: ticket.CreatedAt,
		}))
	s.logger.Info("ticket submitted",
		zap.String("ticket_number", ticket.TicketNumber),
		zap.String("category", string(ticket.Category)))
	return ticket, nil
}

// GetTicket returns the admin view of a ticket, internal notes included.
func (s *TicketService) GetTicket(ctx context.Context, number string) (*domain.Ticket, error) {
	number = normalizeNumber(number)
	ticket, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, s.mapStoreError(err, "ticket", number)
	}
	return ticket, nil
}

// GetCustomerTicket returns the ticket with internal notes removed.
func (s *TicketService) GetCustomerTicket(ctx context.Context, number string) (*domain.Ticket, error) {
	ticket, err := s.GetTicket(ctx, number)
	if err != nil {
		return nil, err
	}
	return ticket.CustomerView(), nil
}

// PostMessage appends a message, ends any typing signal on the ticket and
// raises a notification when a customer writes publicly. A customer-origin
// post gets the customer view back, internal notes removed.
func (s *TicketService) PostMessage(ctx context.Context, input PostMessageInput) (*domain.Ticket, error) {
	number := normalizeNumber(input.TicketNumber)
	text := strings.TrimSpace(input.Text)
	if text == "" {
		return nil, apperrors.NewValidationError("message is required", map[string]any{"field": "message"})
	}

	current, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, s.mapStoreError(err, "ticket", number)
	}

	sender := strings.TrimSpace(input.Sender)
	origin := input.Origin
	if origin == domain.OriginCustomer && sender == "" {
		sender = current.Username
	}
	if sender == "" {
		return nil, apperrors.NewValidationError("sender is required", map[string]any{"field": "sender"})
	}
	if origin == "" {
		origin = domain.OriginAdmin
		if current.IsCustomerSender(sender) {
			origin = domain.OriginCustomer
		}
	}
	isInternal := input.IsInternal
	if origin == domain.OriginCustomer {
		isInternal = false
	}

	msg := domain.Message{
		ID:         uuid.NewString(),
		Sender:     sender,
		Body:       text,
		IsInternal: isInternal,
	}
	ticket, err := s.tickets.AppendMessage(ctx, number, msg)
	if err != nil {
		return nil, s.mapStoreError(err, "ticket", number)
	}

	s.clearTyping(ctx, number)
	s.publishEvent(ctx, events.NewEvent(events.EventTicketMessageAdded, number, sender, s.now(),
		events.TicketMessageAddedPayload{
			MessageID:  msg.ID,
			Sender:     sender,
			IsInternal: isInternal,
			Origin:     origin,
			Preview:    ephemeral.Preview(text, s.previewLength),
		}))
	if origin == domain.OriginCustomer {
		return ticket.CustomerView(), nil
	}
	return ticket, nil
}

// DeleteInternalNote removes one message by id. Public messages are refused
// unless public deletion was enabled.
func (s *TicketService) DeleteInternalNote(ctx context.Context, number, messageID string) (*domain.Ticket, error) {
	number = normalizeNumber(number)
	current, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, s.mapStoreError(err, "ticket", number)
	}
	msg, ok := current.FindMessage(messageID)
	if !ok {
		return nil, apperrors.NewNotFound("message", map[string]any{"ticketNumber": number, "messageId": messageID})
	}
	if !msg.IsInternal && !s.allowPublicMessageDelete {
		return nil, apperrors.NewValidationError("only internal notes can be deleted", map[string]any{"messageId": messageID})
	}
	isInternal := msg.IsInternal

	ticket, err := s.tickets.DeleteMessage(ctx, number, messageID)
	if err != nil {
		return nil, s.mapStoreError(err, "message", number)
	}
	s.publishEvent(ctx, events.NewEvent(events.EventTicketMessageDeleted, number, "", s.now(),
		events.TicketMessageDeletedPayload{MessageID: messageID, IsInternal: isInternal}))
	return ticket, nil
}

// SetStatus moves a ticket to one of the canonical statuses.
func (s *TicketService) SetStatus(ctx context.Context, number, rawStatus string) (*domain.Ticket, error) {
	status, ok := domain.ParseStatus(rawStatus)
	if !ok {
		return nil, apperrors.NewValidationError("unknown status", map[string]any{"field": "status", "value": rawStatus})
	}
	return s.changeStatus(ctx, number, status)
}

// CloseTicket sets the terminal "Closed Today" status.
func (s *TicketService) CloseTicket(ctx context.Context, number string) (*domain.Ticket, error) {
	return s.changeStatus(ctx, number, domain.TicketStatusClosedToday)
}

func (s *TicketService) changeStatus(ctx context.Context, number string, status domain.TicketStatus) (*domain.Ticket, error) {
	number = normalizeNumber(number)
	current, err := s.tickets.GetByNumber(ctx, number)
	if err != nil {
		return nil, s.mapStoreError(err, "ticket", number)
	}
	ticket, err := s.tickets.UpdateStatus(ctx, number, status)
	if err != nil {
		return nil, s.mapStoreError(err, "ticket", number)
	}
	s.publishEvent(ctx, events.NewEvent(events.EventTicketStatusChanged, number, "", s.now(),
		events.TicketStatusChangedPayload{OldStatus: current.Status, NewStatus: status}))
	return ticket, nil
}

// AssignAgent records the handling agent. A blank label unassigns.
func (s *TicketService) AssignAgent(ctx context.Context, number, agent string) (*domain.Ticket, error) {
	number = normalizeNumber(number)
	var label *string
	if trimmed := strings.TrimSpace(agent); trimmed != "" {
		label = &trimmed
	}
	ticket, err := s.tickets.AssignAgent(ctx, number, label)
	if err != nil {
		return nil, s.mapStoreError(err, "ticket", number)
	}
	s.publishEvent(ctx, events.NewEvent(events.EventTicketAssigned, number, "", s.now(),
		events.TicketAssignedPayload{Agent: label}))
	return ticket, nil
}

// ArchiveTicket hides the ticket from the default listing and ends typing on it.
func (s *TicketService) ArchiveTicket(ctx context.Context, number string) (*domain.Ticket, error) {
	number = normalizeNumber(number)
	ticket, err := s.tickets.Archive(ctx, number)
	if err != nil {
		return nil, s.mapStoreError(err, "ticket", number)
	}
	s.clearTyping(ctx, number)
	archivedAt := s.now()
	if ticket.ArchivedAt != nil {
		archivedAt = *ticket.ArchivedAt
	}
	s.publishEvent(ctx, events.NewEvent(events.EventTicketArchived, number, "", s.now(),
		events.TicketArchivedPayload{ArchivedAt: archivedAt}))
	return ticket, nil
}

// DeleteTicket removes a ticket and all of its messages.
func (s *TicketService) DeleteTicket(ctx context.Context, number string) error {
	number = normalizeNumber(number)
	if s.deleteRequiresArchive {
		current, err := s.tickets.GetByNumber(ctx, number)
		if err != nil {
			return s.mapStoreError(err, "ticket", number)
		}
		if !current.IsArchived {
			return apperrors.NewConflict("ticket must be archived before deletion", map[string]any{"ticketNumber": number})
		}
	}
	if err := s.tickets.Delete(ctx, number); err != nil {
		return s.mapStoreError(err, "ticket", number)
	}
	s.clearTyping(ctx, number)
	s.publishEvent(ctx, events.NewEvent(events.EventTicketDeleted, number, "", s.now(), nil))
	return nil
}

// ExportTicketCSV renders the full ticket, internal notes labeled, as CSV.
func (s *TicketService) ExportTicketCSV(ctx context.Context, number string) ([]byte, string, error) {
	ticket, err := s.GetTicket(ctx, number)
	if err != nil {
		return nil, "", err
	}
	return export.TicketCSV(ticket), export.Filename(ticket.TicketNumber), nil
}

func (s *TicketService) clearTyping(ctx context.Context, number string) {
	if s.typing == nil {
		return
	}
	if err := s.typing.Clear(ctx, number); err != nil {
		s.logger.Warn("clear typing failed", zap.String("ticket_number", number), zap.Error(err))
	}
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func (s *TicketService) mapStoreError(err error, resource, number string) error {
	var domainErr *apperrors.DomainError
	if errors.As(err, &domainErr) {
		return err
	}
	if errors.Is(err, domain.ErrNotFound) {
		return apperrors.NewNotFound(resource, map[string]any{"ticketNumber": number})
	}
	s.logger.Error("store failure", zap.String("ticket_number", number), zap.Error(err))
	return apperrors.NewStoreError(err)
}
