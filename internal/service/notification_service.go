package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/ephemeral"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/sink"
)

// NotificationService turns domain events into admin feed entries and
// external sink rows.
type NotificationService struct {
	dispatcher events.Dispatcher
	feed       ephemeral.NotificationFeed
	sink       sink.Sink
	logger     *zap.Logger
}

// NewNotificationService creates the service. A nil sink disables forwarding.
func NewNotificationService(dispatcher events.Dispatcher, feed ephemeral.NotificationFeed, s sink.Sink, logger *zap.Logger) *NotificationService {
	if s == nil {
		s = sink.NopSink{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher: dispatcher,
		feed:       feed,
		sink:       s,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventTicketCreated, n.handleTicketCreated)
	n.dispatcher.Subscribe(events.EventTicketMessageAdded, n.handleTicketMessageAdded)
	n.dispatcher.Subscribe(events.EventTicketDeleted, n.handleTicketDeleted)
	for _, eventType := range []events.EventType{
		events.EventTicketStatusChanged,
		events.EventTicketAssigned,
		events.EventTicketArchived,
		events.EventTicketMessageDeleted,
	} {
		n.dispatcher.Subscribe(eventType, n.logEvent)
	}
}

func (n *NotificationService) handleTicketCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Info("TicketCreated", zap.String("ticket_number", event.TicketNumber))

	sink.Forward(n.logger, n.sink, sink.TicketSummary{
		TicketNumber: event.TicketNumber,
		Subject:      payload.Subject,
		Category:     string(payload.Category),
		CreatedAt:    payload.CreatedAt,
		Status:       string(payload.Status),
	})

	return n.push(ctx, ephemeral.Notification{
		Kind:         ephemeral.KindNewTicket,
		TicketNumber: event.TicketNumber,
		Actor:        payload.Username,
		Preview:      payload.Preview,
	})
}

func (n *NotificationService) handleTicketMessageAdded(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TicketMessageAddedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T for %s", event.Payload, event.Type)
	}
	n.logger.Debug("TicketMessageAdded",
		zap.String("ticket_number", event.TicketNumber),
		zap.String("origin", string(payload.Origin)),
		zap.Bool("internal", payload.IsInternal))
	if !payload.Notifies() {
		return nil
	}
	return n.push(ctx, ephemeral.Notification{
		Kind:         ephemeral.KindNewMessage,
		TicketNumber: event.TicketNumber,
		Actor:        payload.Sender,
		Preview:      payload.Preview,
	})
}

func (n *NotificationService) handleTicketDeleted(ctx context.Context, event events.Event) error {
	n.logger.Info("TicketDeleted", zap.String("ticket_number", event.TicketNumber))
	if n.feed == nil {
		return nil
	}
	_, err := n.feed.RemoveTicket(ctx, event.TicketNumber)
	return err
}

func (n *NotificationService) logEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type), zap.String("ticket_number", event.TicketNumber), zap.Any("payload", event.Payload))
	return nil
}

func (n *NotificationService) push(ctx context.Context, entry ephemeral.Notification) error {
	if n.feed == nil {
		return nil
	}
	return n.feed.Push(ctx, entry)
}
