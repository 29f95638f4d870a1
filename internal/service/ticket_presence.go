package service

import (
	"context"
	"strings"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/ephemeral"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// TypingStatus is the read side of typing presence.
type TypingStatus struct {
	IsTyping bool
	User     string
}

// NotificationsView is the admin notification poll payload.
type NotificationsView struct {
	Notifications   []ephemeral.Notification
	NewTicketsCount int
}

// SetTyping records or clears a typing signal. Ticket existence is not checked;
// the signal is advisory and expires on its own.
func (s *TicketService) SetTyping(ctx context.Context, number, user string, isTyping bool) error {
	number = normalizeNumber(number)
	if number == "" {
		return apperrors.NewValidationError("ticket number is required", nil)
	}
	if s.typing == nil {
		return nil
	}
	if !isTyping {
		if err := s.typing.Clear(ctx, number); err != nil {
			return apperrors.NewStoreError(err)
		}
		return nil
	}
	user = strings.TrimSpace(user)
	if user == "" {
		return apperrors.NewValidationError("user is required", map[string]any{"field": "user"})
	}
	if err := s.typing.Set(ctx, number, user); err != nil {
		return apperrors.NewStoreError(err)
	}
	return nil
}

// TypingStatus reports who, if anyone, is typing on a ticket.
func (s *TicketService) TypingStatus(ctx context.Context, number string) (TypingStatus, error) {
	if s.typing == nil {
		return TypingStatus{}, nil
	}
	entry, ok, err := s.typing.Get(ctx, normalizeNumber(number))
	if err != nil {
		return TypingStatus{}, apperrors.NewStoreError(err)
	}
	if !ok {
		return TypingStatus{}, nil
	}
	return TypingStatus{IsTyping: true, User: entry.Actor}, nil
}

// Notifications returns the feed plus the number of active tickets still New.
func (s *TicketService) Notifications(ctx context.Context) (*NotificationsView, error) {
	view := &NotificationsView{Notifications: []ephemeral.Notification{}}
	if s.feed != nil {
		entries, err := s.feed.List(ctx)
		if err != nil {
			return nil, apperrors.NewStoreError(err)
		}
		view.Notifications = entries
	}
	count, err := s.tickets.CountActiveByStatus(ctx, domain.TicketStatusNew)
	if err != nil {
		return nil, s.mapStoreError(err, "tickets", "")
	}
	view.NewTicketsCount = count
	return view, nil
}

// AcknowledgeNotifications drops every feed entry for a ticket.
func (s *TicketService) AcknowledgeNotifications(ctx context.Context, number string) (int, error) {
	if s.feed == nil {
		return 0, nil
	}
	removed, err := s.feed.RemoveTicket(ctx, normalizeNumber(number))
	if err != nil {
		return 0, apperrors.NewStoreError(err)
	}
	return removed, nil
}

// ClearNotifications empties the feed.
func (s *TicketService) ClearNotifications(ctx context.Context) error {
	if s.feed == nil {
		return nil
	}
	if err := s.feed.Clear(ctx); err != nil {
		return apperrors.NewStoreError(err)
	}
	return nil
}
