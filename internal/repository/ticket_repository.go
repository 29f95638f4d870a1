package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

const uniqueViolation = "23505"

// TicketRepository encapsulates ticket persistence. Every method is atomic on its own.
type TicketRepository interface {
	Create(ctx context.Context, ticket *domain.Ticket) error
	GetByNumber(ctx context.Context, number string) (*domain.Ticket, error)
	ListActive(ctx context.Context) ([]domain.Ticket, error)
	ListArchived(ctx context.Context) ([]domain.Ticket, error)
	// CountActiveByStatus counts non-archived tickets in the given status.
	CountActiveByStatus(ctx context.Context, status domain.TicketStatus) (int, error)
	AppendMessage(ctx context.Context, number string, msg domain.Message) (*domain.Ticket, error)
	DeleteMessage(ctx context.Context, number, messageID string) (*domain.Ticket, error)
	UpdateStatus(ctx context.Context, number string, status domain.TicketStatus) (*domain.Ticket, error)
	AssignAgent(ctx context.Context, number string, agent *string) (*domain.Ticket, error)
	Archive(ctx context.Context, number string) (*domain.Ticket, error)
	Delete(ctx context.Context, number string) error
}

type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type ticketRepository struct {
	pool *pgxpool.Pool
}

// NewTicketRepository instantiates the Postgres repository.
func NewTicketRepository(pool *pgxpool.Pool) TicketRepository {
	return &ticketRepository{pool: pool}
}

const ticketColumns = `ticket_number, username, email, subject, category, subject_category,
               status, assigned_agent, is_archived, archived_at, created_at, updated_at`

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        INSERT INTO tickets (ticket_number, username, email, subject, category, subject_category, status, assigned_agent)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
        RETURNING created_at, updated_at`
	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, query,
			ticket.TicketNumber,
			ticket.Username,
			ticket.Email,
			ticket.Subject,
			ticket.Category,
			ticket.SubjectCategory,
			ticket.Status,
			ticket.AssignedAgent,
		).Scan(&ticket.CreatedAt, &ticket.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return domain.ErrDuplicateTicketNumber
			}
			return err
		}
		for i := range ticket.Messages {
			if err := insertMessage(ctx, tx, ticket.TicketNumber, &ticket.Messages[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *ticketRepository) GetByNumber(ctx context.Context, number string) (*domain.Ticket, error) {
	return r.load(ctx, r.pool, number)
}

func (r *ticketRepository) ListActive(ctx context.Context) ([]domain.Ticket, error) {
	return r.list(ctx, false)
}

func (r *ticketRepository) ListArchived(ctx context.Context) ([]domain.Ticket, error) {
	return r.list(ctx, true)
}

func (r *ticketRepository) CountActiveByStatus(ctx context.Context, status domain.TicketStatus) (int, error) {
	const query = `SELECT COUNT(*) FROM tickets WHERE is_archived=false AND status=$1`
	var count int
	if err := r.pool.QueryRow(ctx, query, status).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *ticketRepository) list(ctx context.Context, archived bool) ([]domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + `
        FROM tickets WHERE is_archived=$1 ORDER BY updated_at DESC, ticket_number`
	rows, err := r.pool.Query(ctx, query, archived)
	if err != nil {
		return nil, err
	}
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return tickets, nil
	}

	numbers := make([]string, len(tickets))
	for i := range tickets {
		numbers[i] = tickets[i].TicketNumber
	}
	byTicket, err := listMessagesForTickets(ctx, r.pool, numbers)
	if err != nil {
		return nil, err
	}
	for i := range tickets {
		tickets[i].Messages = byTicket[tickets[i].TicketNumber]
		if tickets[i].Messages == nil {
			tickets[i].Messages = []domain.Message{}
		}
	}
	return tickets, nil
}

func (r *ticketRepository) AppendMessage(ctx context.Context, number string, msg domain.Message) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := touch(ctx, tx, number); err != nil {
			return err
		}
		if err := insertMessage(ctx, tx, number, &msg); err != nil {
			return err
		}
		var err error
		ticket, err = r.load(ctx, tx, number)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) DeleteMessage(ctx context.Context, number, messageID string) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		if err := touch(ctx, tx, number); err != nil {
			return err
		}
		if err := deleteMessage(ctx, tx, number, messageID); err != nil {
			return err
		}
		var err error
		ticket, err = r.load(ctx, tx, number)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, number string, status domain.TicketStatus) (*domain.Ticket, error) {
	const query = `UPDATE tickets SET status=$2, updated_at=NOW() WHERE ticket_number=$1`
	return r.updateAndLoad(ctx, number, query, status)
}

func (r *ticketRepository) AssignAgent(ctx context.Context, number string, agent *string) (*domain.Ticket, error) {
	const query = `UPDATE tickets SET assigned_agent=$2, updated_at=NOW() WHERE ticket_number=$1`
	return r.updateAndLoad(ctx, number, query, agent)
}

func (r *ticketRepository) Archive(ctx context.Context, number string) (*domain.Ticket, error) {
	const query = `
        UPDATE tickets SET is_archived=TRUE, archived_at=COALESCE(archived_at, NOW()), updated_at=NOW()
        WHERE ticket_number=$1`
	return r.updateAndLoad(ctx, number, query)
}

func (r *ticketRepository) Delete(ctx context.Context, number string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM tickets WHERE ticket_number=$1`, number)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ticketRepository) updateAndLoad(ctx context.Context, number, query string, args ...any) (*domain.Ticket, error) {
	var ticket *domain.Ticket
	err := pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx, query, append([]any{number}, args...)...)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return domain.ErrNotFound
		}
		ticket, err = r.load(ctx, tx, number)
		return err
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

func (r *ticketRepository) load(ctx context.Context, q querier, number string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE ticket_number=$1`
	ticket, err := scanTicket(q.QueryRow(ctx, query, number))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	ticket.Messages, err = listMessages(ctx, q, number)
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// touch refreshes updated_at and takes the row lock for the rest of the transaction.
func touch(ctx context.Context, q querier, number string) error {
	cmd, err := q.Exec(ctx, `UPDATE tickets SET updated_at=NOW() WHERE ticket_number=$1`, number)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanTicket(row pgx.Row) (*domain.Ticket, error) {
	var ticket domain.Ticket
	if err := row.Scan(
		&ticket.TicketNumber,
		&ticket.Username,
		&ticket.Email,
		&ticket.Subject,
		&ticket.Category,
		&ticket.SubjectCategory,
		&ticket.Status,
		&ticket.AssignedAgent,
		&ticket.IsArchived,
		&ticket.ArchivedAt,
		&ticket.CreatedAt,
		&ticket.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &ticket, nil
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	defer rows.Close()
	result := []domain.Ticket{}
	for rows.Next() {
		ticket, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *ticket)
	}
	return result, rows.Err()
}
