package ephemeral

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultTypingTTL is how long a typing signal stays live without a refresh.
const DefaultTypingTTL = 10 * time.Second

// TypingEntry records who is composing a reply on a ticket.
type TypingEntry struct {
	TicketNumber string    `json:"ticketNumber"`
	Actor        string    `json:"actor"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TypingStore tracks short-lived typing presence per ticket.
// Get must apply the staleness window itself; Sweep only reclaims memory.
type TypingStore interface {
	Set(ctx context.Context, ticketNumber, actor string) error
	Clear(ctx context.Context, ticketNumber string) error
	Get(ctx context.Context, ticketNumber string) (TypingEntry, bool, error)
	Sweep(ctx context.Context) (int, error)
}

// MemoryTypingStore is a mutex-guarded TypingStore.
type MemoryTypingStore struct {
	mu      sync.Mutex
	entries map[string]TypingEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryTypingStore builds a store. ttl <= 0 selects DefaultTypingTTL; now may be nil.
func NewMemoryTypingStore(ttl time.Duration, now func() time.Time) *MemoryTypingStore {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	if now == nil {
		now = time.Now
	}
	return &MemoryTypingStore{entries: map[string]TypingEntry{}, ttl: ttl, now: now}
}

func (s *MemoryTypingStore) Set(_ context.Context, ticketNumber, actor string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := strings.TrimSpace(ticketNumber)
	s.entries[key] = TypingEntry{TicketNumber: key, Actor: actor, UpdatedAt: s.now()}
	return nil
}

func (s *MemoryTypingStore) Clear(_ context.Context, ticketNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, strings.TrimSpace(ticketNumber))
	return nil
}

func (s *MemoryTypingStore) Get(_ context.Context, ticketNumber string) (TypingEntry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[strings.TrimSpace(ticketNumber)]
	if !ok || s.stale(entry, s.now()) {
		return TypingEntry{}, false, nil
	}
	return entry, true, nil
}

func (s *MemoryTypingStore) Sweep(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	removed := 0
	for key, entry := range s.entries {
		if s.stale(entry, now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of tracked entries, stale ones included.
func (s *MemoryTypingStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

func (s *MemoryTypingStore) stale(entry TypingEntry, now time.Time) bool {
	return now.Sub(entry.UpdatedAt) >= s.ttl
}
