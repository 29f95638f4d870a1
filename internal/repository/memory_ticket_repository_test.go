package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// steppingClock advances one second on every reading so that ordering by
// updated_at is deterministic.
type steppingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *steppingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newMemoryRepo(t *testing.T) TicketRepository {
	t.Helper()
	clock := &steppingClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	return NewMemoryTicketRepository(clock.Now)
}

func TestMemoryTicketRepository(t *testing.T) {
	runTicketRepositoryContract(t, newMemoryRepo)
}

func TestMemoryTicketRepositoryReturnsCopies(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTicket("COPY01", "original")))

	got, err := repo.GetByNumber(ctx, "COPY01")
	require.NoError(t, err)
	got.Messages[0].Body = "tampered"
	got.Status = domain.TicketStatusResolved

	again, err := repo.GetByNumber(ctx, "COPY01")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Body)
	assert.Equal(t, domain.TicketStatusNew, again.Status)
}

func TestMemoryTicketRepositoryFailedMutationLeavesTicketUntouched(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTicket("KEEP01", "a")))
	before, err := repo.GetByNumber(ctx, "KEEP01")
	require.NoError(t, err)

	_, err = repo.DeleteMessage(ctx, "KEEP01", "missing")
	require.ErrorIs(t, err, domain.ErrNotFound)

	after, err := repo.GetByNumber(ctx, "KEEP01")
	require.NoError(t, err)
	assert.True(t, before.UpdatedAt.Equal(after.UpdatedAt))
}

func TestMemoryTicketRepositoryConcurrentAppends(t *testing.T) {
	repo := newMemoryRepo(t)
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTicket("CONC01", "start")))

	var wg sync.WaitGroup
	for i := 0; i < 25; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.AppendMessage(ctx, "CONC01", domain.Message{Sender: "Jamie", Body: "ping"})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := repo.GetByNumber(ctx, "CONC01")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 26)
}
