package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// Message rows are ordered by their insertion sequence, never by timestamp.

func insertMessage(ctx context.Context, q querier, number string, msg *domain.Message) error {
	const query = `
        INSERT INTO ticket_messages (id, ticket_number, sender, body, is_internal)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING created_at`
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	return q.QueryRow(ctx, query,
		msg.ID,
		number,
		msg.Sender,
		msg.Body,
		msg.IsInternal,
	).Scan(&msg.CreatedAt)
}

func deleteMessage(ctx context.Context, q querier, number, messageID string) error {
	if _, err := uuid.Parse(messageID); err != nil {
		return domain.ErrNotFound
	}
	cmd, err := q.Exec(ctx, `DELETE FROM ticket_messages WHERE ticket_number=$1 AND id=$2`, number, messageID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func listMessages(ctx context.Context, q querier, number string) ([]domain.Message, error) {
	const query = `
        SELECT id::text, sender, body, is_internal, created_at
        FROM ticket_messages WHERE ticket_number=$1 ORDER BY seq ASC`
	rows, err := q.Query(ctx, query, number)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := []domain.Message{}
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	return result, rows.Err()
}

func listMessagesForTickets(ctx context.Context, q querier, numbers []string) (map[string][]domain.Message, error) {
	const query = `
        SELECT ticket_number, id::text, sender, body, is_internal, created_at
        FROM ticket_messages WHERE ticket_number = ANY($1) ORDER BY ticket_number, seq ASC`
	rows, err := q.Query(ctx, query, numbers)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string][]domain.Message, len(numbers))
	for rows.Next() {
		var number string
		var msg domain.Message
		if err := rows.Scan(&number, &msg.ID, &msg.Sender, &msg.Body, &msg.IsInternal, &msg.CreatedAt); err != nil {
			return nil, err
		}
		result[number] = append(result[number], msg)
	}
	return result, rows.Err()
}

func scanMessage(row pgx.Row) (domain.Message, error) {
	var msg domain.Message
	err := row.Scan(&msg.ID, &msg.Sender, &msg.Body, &msg.IsInternal, &msg.CreatedAt)
	return msg, err
}
