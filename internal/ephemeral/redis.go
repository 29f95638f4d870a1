package ephemeral

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisTypingStore keeps one key per ticket with a TTL equal to the staleness
// window. Expired keys vanish on their own, so Sweep has nothing to do.
type RedisTypingStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisTypingStore builds a Redis-backed TypingStore.
func NewRedisTypingStore(client redis.UniversalClient, prefix string, ttl time.Duration, now func() time.Time) *RedisTypingStore {
	if ttl <= 0 {
		ttl = DefaultTypingTTL
	}
	if now == nil {
		now = time.Now
	}
	return &RedisTypingStore{client: client, prefix: prefix, ttl: ttl, now: now}
}

func (s *RedisTypingStore) key(ticketNumber string) string {
	return fmt.Sprintf("%s:typing:%s", s.prefix, strings.TrimSpace(ticketNumber))
}

func (s *RedisTypingStore) Set(ctx context.Context, ticketNumber, actor string) error {
	entry := TypingEntry{TicketNumber: strings.TrimSpace(ticketNumber), Actor: actor, UpdatedAt: s.now()}
	payload, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, s.key(ticketNumber), payload, s.ttl).Err()
}

func (s *RedisTypingStore) Clear(ctx context.Context, ticketNumber string) error {
	return s.client.Del(ctx, s.key(ticketNumber)).Err()
}

func (s *RedisTypingStore) Get(ctx context.Context, ticketNumber string) (TypingEntry, bool, error) {
	raw, err := s.client.Get(ctx, s.key(ticketNumber)).Bytes()
	if errors.Is(err, redis.Nil) {
		return TypingEntry{}, false, nil
	}
	if err != nil {
		return TypingEntry{}, false, err
	}
	var entry TypingEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return TypingEntry{}, false, err
	}
	if s.now().Sub(entry.UpdatedAt) >= s.ttl {
		return TypingEntry{}, false, nil
	}
	return entry, true, nil
}

func (s *RedisTypingStore) Sweep(context.Context) (int, error) {
	return 0, nil
}

// RedisNotificationFeed stores the feed as a Redis list, newest at the head.
type RedisNotificationFeed struct {
	client   redis.UniversalClient
	key      string
	capacity int
	now      func() time.Time
}

// NewRedisNotificationFeed builds a Redis-backed NotificationFeed.
func NewRedisNotificationFeed(client redis.UniversalClient, prefix string, capacity int, now func() time.Time) *RedisNotificationFeed {
	if capacity <= 0 {
		capacity = DefaultFeedCapacity
	}
	if now == nil {
		now = time.Now
	}
	return &RedisNotificationFeed{client: client, key: prefix + ":notifications", capacity: capacity, now: now}
}

func (f *RedisNotificationFeed) Push(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = f.now()
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	payload, err := json.Marshal(n)
	if err != nil {
		return err
	}
	_, err = f.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.LPush(ctx, f.key, payload)
		pipe.LTrim(ctx, f.key, 0, int64(f.capacity-1))
		return nil
	})
	return err
}

func (f *RedisNotificationFeed) List(ctx context.Context) ([]Notification, error) {
	raws, err := f.client.LRange(ctx, f.key, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	result := make([]Notification, 0, len(raws))
	for _, raw := range raws {
		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		result = append(result, n)
	}
	return result, nil
}

func (f *RedisNotificationFeed) RemoveTicket(ctx context.Context, ticketNumber string) (int, error) {
	ticketNumber = strings.TrimSpace(ticketNumber)
	raws, err := f.client.LRange(ctx, f.key, 0, -1).Result()
	if err != nil {
		return 0, err
	}
	matches := make([]string, 0)
	for _, raw := range raws {
		var n Notification
		if err := json.Unmarshal([]byte(raw), &n); err != nil {
			continue
		}
		if n.TicketNumber == ticketNumber {
			matches = append(matches, raw)
		}
	}
	if len(matches) == 0 {
		return 0, nil
	}
	cmds, err := f.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, raw := range matches {
			pipe.LRem(ctx, f.key, 1, raw)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	removed := 0
	for _, cmd := range cmds {
		if intCmd, ok := cmd.(*redis.IntCmd); ok {
			removed += int(intCmd.Val())
		}
	}
	return removed, nil
}

func (f *RedisNotificationFeed) Clear(ctx context.Context) error {
	return f.client.Del(ctx, f.key).Err()
}
