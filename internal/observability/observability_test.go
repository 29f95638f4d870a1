package observability

import (
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/helpdesk-service/internal/config"
)

func TestMetricsSnapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordRequest("/api/tickets", "GET", 200, 2*time.Millisecond)
	m.RecordRequest("/api/tickets", "GET", 200, 4*time.Millisecond)
	m.RecordRequest("/api/tickets/:ticketNumber", "GET", 404, time.Millisecond)
	m.RecordError("/api/tickets/X", "GET", "NOT_FOUND")

	snap := m.Snapshot()
	require.Len(t, snap.Requests, 2)
	assert.Equal(t, RequestStat{Route: "/api/tickets", Method: "GET", Status: 200, Count: 2, AvgLatencyMs: 3}, snap.Requests[0])
	assert.Equal(t, 404, snap.Requests[1].Status)
	require.Len(t, snap.Errors, 1)
	assert.Equal(t, "NOT_FOUND", snap.Errors[0].Code)
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	m.RecordRequest("/", "GET", 200, time.Millisecond)
	m.RecordError("/", "GET", "X")
	assert.Empty(t, m.Snapshot().Requests)
}

func TestRequestLoggerAssignsRequestID(t *testing.T) {
	metrics := NewMetrics()
	app := fiber.New()
	app.Use(RequestLogger(zap.NewNop(), metrics))
	app.Get("/api/tickets/:ticketNumber", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/api/tickets/AB12", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	req := httptest.NewRequest("GET", "/api/tickets/CD34", nil)
	req.Header.Set(RequestIDHeader, "given-id")
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, "given-id", resp.Header.Get(RequestIDHeader))

	snap := metrics.Snapshot()
	require.Len(t, snap.Requests, 1)
	assert.Equal(t, "/api/tickets/:ticketNumber", snap.Requests[0].Route)
	assert.EqualValues(t, 2, snap.Requests[0].Count)
}

func TestNewLoggerFallsBackToInfo(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "chatty"})
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.InfoLevel))
	assert.False(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestNewLoggerConsoleFormat(t *testing.T) {
	logger, err := NewLogger(config.LoggerConfig{Level: "debug", Format: "console"}, zap.String("service", "helpdesk"))
	require.NoError(t, err)
	assert.True(t, logger.Core().Enabled(zap.DebugLevel))
}
