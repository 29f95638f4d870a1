package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util/errorutil"
)

// ListFilter narrows the admin listing. Zero values match everything.
type ListFilter struct {
	Status string
	Query  string
}

// TicketStats summarizes one listing partition.
type TicketStats struct {
	Total       int `json:"total"`
	New         int `json:"new"`
	Open        int `json:"open"`
	OnHold      int `json:"onHold"`
	Ongoing     int `json:"ongoing"`
	InProgress  int `json:"inProgress"`
	Resolved    int `json:"resolved"`
	ClosedToday int `json:"closedToday"`
}

// TicketListing is the admin dashboard payload.
type TicketListing struct {
	Tickets []domain.Ticket
	Stats   TicketStats
}

// ListForAdmin returns the active or archived partition, newest activity first.
// Stats describe the whole partition; the filter only narrows Tickets.
func (s *TicketService) ListForAdmin(ctx context.Context, includeArchived bool, filter ListFilter) (*TicketListing, error) {
	var status domain.TicketStatus
	if raw := strings.TrimSpace(filter.Status); raw != "" {
		parsed, ok := domain.ParseStatus(raw)
		if !ok {
			return nil, apperrors.NewValidationError("unknown status", map[string]any{"field": "status", "value": raw})
		}
		status = parsed
	}

	list := s.tickets.ListActive
	if includeArchived {
		list = s.tickets.ListArchived
	}
	tickets, err := list(ctx)
	if err != nil {
		return nil, s.mapStoreError(err, "tickets", "")
	}

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	matched := make([]domain.Ticket, 0, len(tickets))
	for _, ticket := range tickets {
		if status != "" && ticket.Status != status {
			continue
		}
		if query != "" && !matchesQuery(ticket, query) {
			continue
		}
		matched = append(matched, ticket)
	}

	return &TicketListing{
		Tickets: matched,
		Stats:   computeStats(tickets, startOfDay(s.now())),
	}, nil
}

func matchesQuery(ticket domain.Ticket, query string) bool {
	for _, field := range []string{ticket.TicketNumber, ticket.Subject, ticket.Username} {
		if strings.Contains(strings.ToLower(field), query) {
			return true
		}
	}
	return false
}

func computeStats(tickets []domain.Ticket, midnight time.Time) TicketStats {
	stats := TicketStats{Total: len(tickets)}
	for _, ticket := range tickets {
		switch ticket.Status {
		case domain.TicketStatusNew:
			stats.New++
		case domain.TicketStatusOpen:
			stats.Open++
		case domain.TicketStatusOnHold:
			stats.OnHold++
		case domain.TicketStatusOngoing:
			stats.Ongoing++
		case domain.TicketStatusInProgress:
			stats.InProgress++
		case domain.TicketStatusResolved:
			stats.Resolved++
		case domain.TicketStatusClosedToday:
			if !ticket.UpdatedAt.Before(midnight) {
				stats.ClosedToday++
			}
		}
	}
	return stats
}

// startOfDay is local midnight for the day containing now.
func startOfDay(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
