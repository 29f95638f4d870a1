package repository

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// runTicketRepositoryContract exercises behavior every TicketRepository must share.
func runTicketRepositoryContract(t *testing.T, newRepo func(t *testing.T) TicketRepository) {
	t.Run("create then fetch round-trips the first message", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		body := "I need help (café) with \"quotes\", commas, and\nnewlines"
		ticket := newTicket("RT0001", body)
		require.NoError(t, repo.Create(ctx, ticket))
		assert.False(t, ticket.CreatedAt.IsZero())

		got, err := repo.GetByNumber(ctx, "RT0001")
		require.NoError(t, err)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, body, got.Messages[0].Body)
		assert.Equal(t, domain.TicketStatusNew, got.Status)
		assert.Equal(t, domain.CategoryQuestion, got.Category)
		assert.False(t, got.IsArchived)
		assert.Nil(t, got.ArchivedAt)
	})

	t.Run("duplicate number never overwrites", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTicket("DUP001", "first")))

		err := repo.Create(ctx, newTicket("DUP001", "second"))
		require.ErrorIs(t, err, domain.ErrDuplicateTicketNumber)

		got, err := repo.GetByNumber(ctx, "DUP001")
		require.NoError(t, err)
		require.Len(t, got.Messages, 1)
		assert.Equal(t, "first", got.Messages[0].Body)
	})

	t.Run("append keeps insertion order and refreshes updated_at", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		created := newTicket("ORD001", "m0")
		require.NoError(t, repo.Create(ctx, created))

		var last *domain.Ticket
		for _, body := range []string{"m1", "m2", "m3"} {
			var err error
			last, err = repo.AppendMessage(ctx, "ORD001", domain.Message{ID: uuid.NewString(), Sender: "Jamie", Body: body})
			require.NoError(t, err)
		}
		assert.False(t, last.UpdatedAt.Before(created.UpdatedAt))

		got, err := repo.GetByNumber(ctx, "ORD001")
		require.NoError(t, err)
		assert.Equal(t, []string{"m0", "m1", "m2", "m3"}, bodies(got.Messages))
	})

	t.Run("append to missing ticket", func(t *testing.T) {
		repo := newRepo(t)
		_, err := repo.AppendMessage(context.Background(), "NOPE", domain.Message{ID: uuid.NewString(), Sender: "x", Body: "y"})
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("delete message removes exactly one", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTicket("DEL001", "m0")))
		noteID := uuid.NewString()
		_, err := repo.AppendMessage(ctx, "DEL001", domain.Message{ID: uuid.NewString(), Sender: "Jamie", Body: "m1"})
		require.NoError(t, err)
		_, err = repo.AppendMessage(ctx, "DEL001", domain.Message{ID: noteID, Sender: "Admin", Body: "note", IsInternal: true})
		require.NoError(t, err)
		_, err = repo.AppendMessage(ctx, "DEL001", domain.Message{ID: uuid.NewString(), Sender: "Admin", Body: "m2"})
		require.NoError(t, err)

		got, err := repo.DeleteMessage(ctx, "DEL001", noteID)
		require.NoError(t, err)
		assert.Equal(t, []string{"m0", "m1", "m2"}, bodies(got.Messages))

		_, err = repo.DeleteMessage(ctx, "DEL001", noteID)
		require.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.DeleteMessage(ctx, "DEL001", "not-a-uuid")
		require.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.DeleteMessage(ctx, "NOPE", noteID)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("archive partitions listings", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTicket("PART01", "a")))
		require.NoError(t, repo.Create(ctx, newTicket("PART02", "b")))

		archived, err := repo.Archive(ctx, "PART01")
		require.NoError(t, err)
		require.True(t, archived.IsArchived)
		require.NotNil(t, archived.ArchivedAt)
		require.Len(t, archived.Messages, 1, "archiving keeps messages")

		again, err := repo.Archive(ctx, "PART01")
		require.NoError(t, err)
		assert.True(t, archived.ArchivedAt.Equal(*again.ArchivedAt), "archived_at is set once")

		active, err := repo.ListActive(ctx)
		require.NoError(t, err)
		inactive, err := repo.ListArchived(ctx)
		require.NoError(t, err)

		assert.Equal(t, []string{"PART02"}, numbers(active))
		assert.Equal(t, []string{"PART01"}, numbers(inactive))
	})

	t.Run("listing is most recently updated first", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTicket("LST001", "a")))
		require.NoError(t, repo.Create(ctx, newTicket("LST002", "b")))
		_, err := repo.UpdateStatus(ctx, "LST001", domain.TicketStatusOpen)
		require.NoError(t, err)

		active, err := repo.ListActive(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"LST001", "LST002"}, numbers(active))
		require.Len(t, active[0].Messages, 1)
	})

	t.Run("targeted updates", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTicket("UPD001", "a")))

		got, err := repo.UpdateStatus(ctx, "UPD001", domain.TicketStatusOnHold)
		require.NoError(t, err)
		assert.Equal(t, domain.TicketStatusOnHold, got.Status)

		agent := "Dana"
		got, err = repo.AssignAgent(ctx, "UPD001", &agent)
		require.NoError(t, err)
		require.NotNil(t, got.AssignedAgent)
		assert.Equal(t, "Dana", *got.AssignedAgent)

		got, err = repo.AssignAgent(ctx, "UPD001", nil)
		require.NoError(t, err)
		assert.Nil(t, got.AssignedAgent)

		_, err = repo.UpdateStatus(ctx, "NOPE", domain.TicketStatusOpen)
		require.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.AssignAgent(ctx, "NOPE", &agent)
		require.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.Archive(ctx, "NOPE")
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("lookups use the exact ticket number", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTicket("EXACT1", "a")))

		_, err := repo.GetByNumber(ctx, " EXACT1 ")
		require.ErrorIs(t, err, domain.ErrNotFound)
		_, err = repo.UpdateStatus(ctx, "EXACT1 ", domain.TicketStatusOpen)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("count active by status skips archived tickets", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		for _, number := range []string{"CNT001", "CNT002", "CNT003"} {
			require.NoError(t, repo.Create(ctx, newTicket(number, "a")))
		}
		_, err := repo.UpdateStatus(ctx, "CNT002", domain.TicketStatusOpen)
		require.NoError(t, err)
		_, err = repo.Archive(ctx, "CNT003")
		require.NoError(t, err)

		count, err := repo.CountActiveByStatus(ctx, domain.TicketStatusNew)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		count, err = repo.CountActiveByStatus(ctx, domain.TicketStatusOpen)
		require.NoError(t, err)
		assert.Equal(t, 1, count)
		count, err = repo.CountActiveByStatus(ctx, domain.TicketStatusResolved)
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("delete is permanent", func(t *testing.T) {
		repo := newRepo(t)
		ctx := context.Background()
		require.NoError(t, repo.Create(ctx, newTicket("GONE01", "a")))

		require.NoError(t, repo.Delete(ctx, "GONE01"))
		_, err := repo.GetByNumber(ctx, "GONE01")
		require.ErrorIs(t, err, domain.ErrNotFound)
		require.ErrorIs(t, repo.Delete(ctx, "GONE01"), domain.ErrNotFound)
	})
}

func newTicket(number, body string) *domain.Ticket {
	return &domain.Ticket{
		TicketNumber: number,
		Username:     "Jamie",
		Email:        "jamie@example.com",
		Subject:      "Help",
		Category:     domain.CategoryQuestion,
		Status:       domain.TicketStatusNew,
		Messages: []domain.Message{
			{ID: uuid.NewString(), Sender: "Jamie", Body: body},
		},
	}
}

func bodies(messages []domain.Message) []string {
	out := make([]string, 0, len(messages))
	for _, msg := range messages {
		out = append(out, msg.Body)
	}
	return out
}

func numbers(tickets []domain.Ticket) []string {
	out := make([]string, 0, len(tickets))
	for _, ticket := range tickets {
		out = append(out, ticket.TicketNumber)
	}
	return out
}
