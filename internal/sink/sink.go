package sink

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

// DefaultTimeout bounds a single webhook delivery.
const DefaultTimeout = 5 * time.Second

// TicketSummary is the row appended to the external spreadsheet.
type TicketSummary struct {
	TicketNumber string    `json:"ticketNumber"`
	Subject      string    `json:"subject"`
	Category     string    `json:"category"`
	CreatedAt    time.Time `json:"createdAt"`
	Status       string    `json:"status"`
}

// Sink receives ticket summaries. Delivery is best-effort.
type Sink interface {
	Append(ctx context.Context, summary TicketSummary) error
}

// NopSink discards summaries. Used when no webhook is configured.
type NopSink struct{}

func (NopSink) Append(context.Context, TicketSummary) error { return nil }

// WebhookSink posts summaries as JSON to a spreadsheet webhook.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink builds a sink for url. timeout <= 0 selects DefaultTimeout.
func NewWebhookSink(url string, timeout time.Duration) *WebhookSink {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &WebhookSink{url: url, client: &http.Client{Timeout: timeout}}
}

// New returns a WebhookSink for a non-empty url and a NopSink otherwise.
func New(url string, timeout time.Duration) Sink {
	if strings.TrimSpace(url) == "" {
		return NopSink{}
	}
	return NewWebhookSink(strings.TrimSpace(url), timeout)
}

func (s *WebhookSink) Append(ctx context.Context, summary TicketSummary) error {
	body, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("post summary: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("sink responded with status %d", resp.StatusCode)
	}
	return nil
}

// Forward delivers summary in its own goroutine and returns immediately.
// Failures are logged and dropped. The returned channel closes once delivery ends.
func Forward(logger *zap.Logger, s Sink, summary TicketSummary) <-chan struct{} {
	done := make(chan struct{})
	if logger == nil {
		logger = zap.NewNop()
	}
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				logger.Error("sink panic", zap.Any("recover", r), zap.String("ticket_number", summary.TicketNumber))
			}
		}()
		if err := s.Append(context.Background(), summary); err != nil {
			logger.Warn("sink append failed", zap.String("ticket_number", summary.TicketNumber), zap.Error(err))
			return
		}
		logger.Debug("sink append ok", zap.String("ticket_number", summary.TicketNumber))
	}()
	return done
}
