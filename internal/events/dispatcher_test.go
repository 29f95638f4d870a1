package events

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

func TestDispatcherDeliversToSubscribersOfType(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	var created, deleted []string
	d.Subscribe(EventTicketCreated, func(_ context.Context, e Event) error {
		created = append(created, e.TicketNumber)
		return nil
	})
	d.Subscribe(EventTicketDeleted, func(_ context.Context, e Event) error {
		deleted = append(deleted, e.TicketNumber)
		return nil
	})

	require.NoError(t, d.Publish(context.Background(), NewEvent(EventTicketCreated, "A1", "", time.Now(), nil)))

	assert.Equal(t, []string{"A1"}, created)
	assert.Empty(t, deleted)
}

func TestDispatcherContinuesAfterHandlerError(t *testing.T) {
	d := NewInMemoryDispatcher(nil)

	calls := 0
	d.Subscribe(EventTicketArchived, func(context.Context, Event) error {
		calls++
		return errors.New("boom")
	})
	d.Subscribe(EventTicketArchived, func(context.Context, Event) error {
		calls++
		return nil
	})

	err := d.Publish(context.Background(), NewEvent(EventTicketArchived, "A1", "", time.Now(), nil))
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestNewEventStampsUniqueIDs(t *testing.T) {
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	a := NewEvent(EventTicketCreated, "A1", "Jamie", at, nil)
	b := NewEvent(EventTicketCreated, "A1", "Jamie", at, nil)

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, at, a.Timestamp)
	assert.Equal(t, "Jamie", a.Actor)
}

func TestMessagePayloadNotifies(t *testing.T) {
	assert.True(t, TicketMessageAddedPayload{Origin: domain.OriginCustomer}.Notifies())
	assert.False(t, TicketMessageAddedPayload{Origin: domain.OriginCustomer, IsInternal: true}.Notifies())
	assert.False(t, TicketMessageAddedPayload{Origin: domain.OriginAdmin}.Notifies())
}
