package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// MemoryTicketRepository keeps tickets in process memory. It backs local runs
// without POSTGRES_DSN and the service tests.
type MemoryTicketRepository struct {
	mu   sync.Mutex
	rows map[string]*domain.Ticket
	now  func() time.Time
}

// NewMemoryTicketRepository constructs an empty repository. now may be nil.
func NewMemoryTicketRepository(now func() time.Time) *MemoryTicketRepository {
	if now == nil {
		now = time.Now
	}
	return &MemoryTicketRepository{rows: map[string]*domain.Ticket{}, now: now}
}

func (r *MemoryTicketRepository) Create(_ context.Context, ticket *domain.Ticket) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	number := ticket.TicketNumber
	if _, ok := r.rows[number]; ok {
		return domain.ErrDuplicateTicketNumber
	}
	created := r.now()
	ticket.CreatedAt = created
	ticket.UpdatedAt = created
	for i := range ticket.Messages {
		if ticket.Messages[i].ID == "" {
			ticket.Messages[i].ID = uuid.NewString()
		}
		ticket.Messages[i].CreatedAt = created
	}
	if ticket.Messages == nil {
		ticket.Messages = []domain.Message{}
	}
	r.rows[number] = ticket.Clone()
	return nil
}

func (r *MemoryTicketRepository) GetByNumber(_ context.Context, number string) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ticket, ok := r.rows[number]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return ticket.Clone(), nil
}

func (r *MemoryTicketRepository) ListActive(_ context.Context) ([]domain.Ticket, error) {
	return r.list(false), nil
}

func (r *MemoryTicketRepository) ListArchived(_ context.Context) ([]domain.Ticket, error) {
	return r.list(true), nil
}

func (r *MemoryTicketRepository) CountActiveByStatus(_ context.Context, status domain.TicketStatus) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, ticket := range r.rows {
		if !ticket.IsArchived && ticket.Status == status {
			count++
		}
	}
	return count, nil
}

func (r *MemoryTicketRepository) list(archived bool) []domain.Ticket {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := []domain.Ticket{}
	for _, ticket := range r.rows {
		if ticket.IsArchived != archived {
			continue
		}
		result = append(result, *ticket.Clone())
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].UpdatedAt.Equal(result[j].UpdatedAt) {
			return result[i].UpdatedAt.After(result[j].UpdatedAt)
		}
		return result[i].TicketNumber < result[j].TicketNumber
	})
	return result
}

func (r *MemoryTicketRepository) AppendMessage(_ context.Context, number string, msg domain.Message) (*domain.Ticket, error) {
	return r.mutate(number, func(ticket *domain.Ticket, now time.Time) error {
		if msg.ID == "" {
			msg.ID = uuid.NewString()
		}
		msg.CreatedAt = now
		ticket.Messages = append(ticket.Messages, msg)
		return nil
	})
}

func (r *MemoryTicketRepository) DeleteMessage(_ context.Context, number, messageID string) (*domain.Ticket, error) {
	return r.mutate(number, func(ticket *domain.Ticket, _ time.Time) error {
		for i := range ticket.Messages {
			if ticket.Messages[i].ID == messageID {
				ticket.Messages = append(ticket.Messages[:i:i], ticket.Messages[i+1:]...)
				return nil
			}
		}
		return domain.ErrNotFound
	})
}

func (r *MemoryTicketRepository) UpdateStatus(_ context.Context, number string, status domain.TicketStatus) (*domain.Ticket, error) {
	return r.mutate(number, func(ticket *domain.Ticket, _ time.Time) error {
		ticket.Status = status
		return nil
	})
}

func (r *MemoryTicketRepository) AssignAgent(_ context.Context, number string, agent *string) (*domain.Ticket, error) {
	return r.mutate(number, func(ticket *domain.Ticket, _ time.Time) error {
		if agent == nil {
			ticket.AssignedAgent = nil
			return nil
		}
		value := *agent
		ticket.AssignedAgent = &value
		return nil
	})
}

func (r *MemoryTicketRepository) Archive(_ context.Context, number string) (*domain.Ticket, error) {
	return r.mutate(number, func(ticket *domain.Ticket, now time.Time) error {
		ticket.IsArchived = true
		if ticket.ArchivedAt == nil {
			ticket.ArchivedAt = &now
		}
		return nil
	})
}

func (r *MemoryTicketRepository) Delete(_ context.Context, number string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[number]; !ok {
		return domain.ErrNotFound
	}
	delete(r.rows, number)
	return nil
}

// mutate applies fn to a working copy and commits it with a fresh updated_at
// only when fn succeeds.
func (r *MemoryTicketRepository) mutate(number string, fn func(ticket *domain.Ticket, now time.Time) error) (*domain.Ticket, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.rows[number]
	if !ok {
		return nil, domain.ErrNotFound
	}
	working := current.Clone()
	now := r.now()
	if err := fn(working, now); err != nil {
		return nil, err
	}
	working.UpdatedAt = now
	r.rows[number] = working
	return working.Clone(), nil
}
