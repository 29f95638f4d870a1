//go:build container
// +build container

package ephemeral

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

var (
	redisContainerOnce sync.Once
	redisContainerAddr string
	redisContainerErr  error
)

func init() {
	redisAddr = func(t *testing.T) string {
		if addr := os.Getenv("HELPDESK_TEST_REDIS_ADDR"); addr != "" {
			return addr
		}
		redisContainerOnce.Do(func() {
			redisContainerAddr, redisContainerErr = startRedis(context.Background())
		})
		if redisContainerErr != nil {
			t.Fatal(redisContainerErr)
		}
		return redisContainerAddr
	}
}

// startRedis runs one Redis container shared by the package; the
// testcontainers reaper removes it when the test binary exits.
func startRedis(ctx context.Context) (string, error) {
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor: wait.ForLog("Ready to accept connections").
			WithStartupTimeout(60 * time.Second),
	}
	container, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		return "", err
	}
	host, err := container.Host(ctx)
	if err != nil {
		return "", err
	}
	port, err := container.MappedPort(ctx, "6379")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%s", host, port.Port()), nil
}

func TestRedisFeedCapInContainer(t *testing.T) {
	client := testRedis(t)
	require.NotNil(t, client)
	ctx := context.Background()
	clock := newFakeClock()
	feed := NewRedisNotificationFeed(client, testPrefix(), 50, clock.Now)

	for i := 0; i < 51; i++ {
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
	assert.Equal(t, "T50", entries[0].TicketNumber)
	assert.Equal(t, "T01", entries[49].TicketNumber)
	for i := 1; i < len(entries); i++ {
		assert.True(t, entries[i-1].Timestamp.After(entries[i].Timestamp))
	}
}
