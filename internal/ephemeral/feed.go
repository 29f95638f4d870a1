package ephemeral

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultFeedCapacity bounds the notification feed.
	DefaultFeedCapacity = 50
	// DefaultPreviewLength caps message previews, in characters.
	DefaultPreviewLength = 100
)

// NotificationKind classifies feed entries.
type NotificationKind string

const (
	KindNewTicket  NotificationKind = "new_ticket"
	KindNewMessage NotificationKind = "new_message"
)

// Notification is one admin-facing feed entry.
type Notification struct {
	ID           string           `json:"id"`
	Kind         NotificationKind `json:"kind"`
	TicketNumber string           `json:"ticketNumber"`
	Actor        string           `json:"actor"`
	Preview      string           `json:"preview"`
	Timestamp    time.Time        `json:"timestamp"`
}

// NotificationFeed is a bounded, newest-first list of notifications.
type NotificationFeed interface {
	Push(ctx context.Context, n Notification) error
	List(ctx context.Context) ([]Notification, error)
	RemoveTicket(ctx context.Context, ticketNumber string) (int, error)
	Clear(ctx context.Context) error
}

// MemoryNotificationFeed keeps the feed in a slice, newest entry first.
type MemoryNotificationFeed struct {
	mu       sync.Mutex
	entries  []Notification
	capacity int
	now      func() time.Time
}

// NewMemoryNotificationFeed builds a feed. capacity <= 0 selects DefaultFeedCapacity.
func NewMemoryNotificationFeed(capacity int, now func() time.Time) *MemoryNotificationFeed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryNotificationFeed{capacity: capacity, now: now}
}

func (f *MemoryNotificationFeed) Push(_ context.Context, n Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stamp(&n)
	// insert and trim under one lock
	f.entries = append([]Notification{n}, f.entries...)
	if len(f.entries) > f.capacity {
		f.entries = f.entries[:f.capacity]
	}
	return nil
}

func (f *MemoryNotificationFeed) List(_ context.Context) ([]Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification{}, f.entries...), nil
}

func (f *MemoryNotificationFeed) RemoveTicket(_ context.Context, ticketNumber string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	ticketNumber = strings.TrimSpace(ticketNumber)
	kept := f.entries[:0]
	removed := 0
	for _, n := range f.entries {
		if n.TicketNumber == ticketNumber {
			removed++
			continue
		}
		kept = append(kept, n)
	}
	f.entries = kept
	return removed, nil
}

func (f *MemoryNotificationFeed) Clear(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = nil
	return nil
}

func (f *MemoryNotificationFeed) stamp(n *Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = f.now()
	}
}

// Preview trims body and truncates it to max characters, marking the cut with "...".
func Preview(body string, max int) string {
	if max <= 0 {
		max = DefaultPreviewLength
	}
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	return string(runes[:max]) + "..."
}
