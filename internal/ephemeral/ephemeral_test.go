package ephemeral

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type typingFactory func(t *testing.T, clock *fakeClock) TypingStore
type feedFactory func(t *testing.T, clock *fakeClock, capacity int) NotificationFeed

func typingBackends(t *testing.T) map[string]typingFactory {
	backends := map[string]typingFactory{
		"memory": func(t *testing.T, clock *fakeClock) TypingStore {
			return NewMemoryTypingStore(10*time.Second, clock.Now)
		},
	}
	if client := testRedis(t); client != nil {
		backends["redis"] = func(t *testing.T, clock *fakeClock) TypingStore {
			return NewRedisTypingStore(client, testPrefix(), 10*time.Second, clock.Now)
		}
	}
	return backends
}

func feedBackends(t *testing.T) map[string]feedFactory {
	backends := map[string]feedFactory{
		"memory": func(t *testing.T, clock *fakeClock, capacity int) NotificationFeed {
			return NewMemoryNotificationFeed(capacity, clock.Now)
		},
	}
	if client := testRedis(t); client != nil {
		backends["redis"] = func(t *testing.T, clock *fakeClock, capacity int) NotificationFeed {
			return NewRedisNotificationFeed(client, testPrefix(), capacity, clock.Now)
		}
	}
	return backends
}

// redisAddr resolves a Redis address for the redis backend cases. The
// container build tag replaces it with a testcontainers instance.
var redisAddr = func(t *testing.T) string {
	return os.Getenv("HELPDESK_TEST_REDIS_ADDR")
}

// testRedis connects to the address from redisAddr, or returns nil when none.
func testRedis(t *testing.T) redis.UniversalClient {
	addr := redisAddr(t)
	if addr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Fatalf("redis at %s unreachable: %v", addr, err)
	}
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func testPrefix() string {
	return "helpdesk-test-" + uuid.NewString()
}

func TestTypingStaleness(t *testing.T) {
	for name, newStore := range typingBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			store := newStore(t, clock)

			require.NoError(t, store.Set(ctx, "T1", "Jamie"))

			clock.Advance(5 * time.Second)
			entry, ok, err := store.Get(ctx, "T1")
			require.NoError(t, err)
			require.True(t, ok, "typing at T+5s")
			assert.Equal(t, "Jamie", entry.Actor)

			clock.Advance(6 * time.Second)
			_, ok, err = store.Get(ctx, "T1")
			require.NoError(t, err)
			assert.False(t, ok, "not typing at T+11s even before a sweep")
		})
	}
}

func TestTypingSetRefreshesAndClear(t *testing.T) {
	for name, newStore := range typingBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			store := newStore(t, clock)

			require.NoError(t, store.Set(ctx, "T1", "Jamie"))
			clock.Advance(8 * time.Second)
			require.NoError(t, store.Set(ctx, "T1", "Admin"))
			clock.Advance(8 * time.Second)

			entry, ok, err := store.Get(ctx, "T1")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "Admin", entry.Actor)

			require.NoError(t, store.Clear(ctx, "T1"))
			_, ok, err = store.Get(ctx, "T1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestMemoryTypingSweep(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	store := NewMemoryTypingStore(10*time.Second, clock.Now)

	require.NoError(t, store.Set(ctx, "OLD", "Jamie"))
	clock.Advance(9 * time.Second)
	require.NoError(t, store.Set(ctx, "NEW", "Admin"))
	clock.Advance(2 * time.Second)

	removed, err := store.Sweep(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, store.Len())

	_, ok, err := store.Get(ctx, "NEW")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestFeedCapacityEvictsOldest(t *testing.T) {
	for name, newFeed := range feedBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clock := newFakeClock()
			feed := newFeed(t, clock, 50)

			for i := 1; i <= 51; i++ {
				clock.Advance(time.Second)
				require.NoError(t, feed.Push(ctx, Notification{
					Kind:         KindNewTicket,
					TicketNumber: fmt.Sprintf("T%02d", i),
					Actor:        "Jamie",
				}))
			}

			entries, err := feed.List(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 50)
			assert.Equal(t, "T51", entries[0].TicketNumber, "newest first")
			assert.Equal(t, "T02", entries[49].TicketNumber, "T01 evicted")
			for i := 1; i < len(entries); i++ {
				assert.False(t, entries[i].Timestamp.After(entries[i-1].Timestamp))
			}
			assert.NotEmpty(t, entries[0].ID)
		})
	}
}

func TestFeedRemoveTicketAndClear(t *testing.T) {
	for name, newFeed := range feedBackends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			feed := newFeed(t, newFakeClock(), 10)

			for _, number := range []string{"A", "B", "A", "C"} {
				require.NoError(t, feed.Push(ctx, Notification{Kind: KindNewMessage, TicketNumber: number}))
			}

			removed, err := feed.RemoveTicket(ctx, "A")
			require.NoError(t, err)
			assert.Equal(t, 2, removed)

			entries, err := feed.List(ctx)
			require.NoError(t, err)
			require.Len(t, entries, 2)
			assert.Equal(t, "C", entries[0].TicketNumber)
			assert.Equal(t, "B", entries[1].TicketNumber)

			require.NoError(t, feed.Clear(ctx))
			entries, err = feed.List(ctx)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestMemoryFeedConcurrentPushStaysBounded(t *testing.T) {
	ctx := context.Background()
	feed := NewMemoryNotificationFeed(50, nil)

	var wg sync.WaitGroup
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, feed.Push(ctx, Notification{TicketNumber: fmt.Sprintf("T%d", i)}))
		}(i)
	}
	wg.Wait()

	entries, err := feed.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 50)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("  short  ", 10))
	assert.Equal(t, "abcde...", Preview("abcdefgh", 5))
	assert.Equal(t, "ééé...", Preview("éééé", 3), "counts characters, not bytes")
	assert.Equal(t, "exactly10!", Preview("exactly10!", 10))
}
