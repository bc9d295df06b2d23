// Package cache stores classification outcomes keyed by mode and description.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/flowbaker/categorizer/pkg/categorizer"
	"github.com/gosimple/slug"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "categorizer"

type Store interface {
	Get(ctx context.Context, key string) (categorizer.Outcome, bool, error)
	Set(ctx context.Context, key string, outcome categorizer.Outcome, ttl time.Duration) error
}

// Key builds the cache key of a description classified in the given mode.
// Descriptions differing only in case, spacing or punctuation share a key.
// It reports false when nothing of the description survives slugging, such
// descriptions are not cacheable.
func Key(mode categorizer.Mode, description string) (string, bool) {
	s := slug.Make(description)
	if s == "" {
		return "", false
	}

	return fmt.Sprintf("%s:%s:%s", keyPrefix, mode, s), true
}

type NoOp struct{}

func (NoOp) Get(ctx context.Context, key string) (categorizer.Outcome, bool, error) {
	return categorizer.Outcome{}, false, nil
}

func (NoOp) Set(ctx context.Context, key string, outcome categorizer.Outcome, ttl time.Duration) error {
	return nil
}

const DefaultMemoryCapacity = 10000

type memoryEntry struct {
	outcome   categorizer.Outcome
	expiresAt time.Time
	seq       uint64
}

func (e memoryEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

type queuedKey struct {
	key string
	seq uint64
}

// Memory is a process local store bounded by capacity. Entries are evicted
// oldest first, and expired entries at the head of the insertion order are
// swept on every Set.
type Memory struct {
	mu       sync.RWMutex
	capacity int
	entries  map[string]memoryEntry
	order    []queuedKey
	seq      uint64
	now      func() time.Time
}

func NewMemory(capacity int) *Memory {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}

	return &Memory{
		capacity: capacity,
		entries:  make(map[string]memoryEntry),
		now:      time.Now,
	}
}

func (m *Memory) Get(ctx context.Context, key string) (categorizer.Outcome, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return categorizer.Outcome{}, false, nil
	}

	if entry.expired(m.now()) {
		m.mu.Lock()
		if current, ok := m.entries[key]; ok && current.seq == entry.seq {
			delete(m.entries, key)
		}
		m.mu.Unlock()

		return categorizer.Outcome{}, false, nil
	}

	return entry.outcome, true, nil
}

func (m *Memory) Set(ctx context.Context, key string, outcome categorizer.Outcome, ttl time.Duration) error {
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++

	entry := memoryEntry{outcome: outcome, seq: m.seq}
	if ttl > 0 {
		entry.expiresAt = now.Add(ttl)
	}

	m.entries[key] = entry
	m.order = append(m.order, queuedKey{key: key, seq: m.seq})

	m.evict(now)

	return nil
}

// evict pops the insertion order while the head is stale, expired or over
// capacity. Callers hold the write lock.
func (m *Memory) evict(now time.Time) {
	for len(m.order) > 0 {
		head := m.order[0]
		entry, ok := m.entries[head.key]
		live := ok && entry.seq == head.seq

		switch {
		case !live:
		case len(m.entries) > m.capacity, entry.expired(now):
			delete(m.entries, head.key)
		default:
			return
		}

		m.order = m.order[1:]
	}
}

// Len reports the number of stored entries, expired ones included until swept
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.entries)
}

// Redis keeps outcomes as JSON strings with a native expiry
type Redis struct {
	client redis.UniversalClient
}

func NewRedis(client redis.UniversalClient) *Redis {
	return &Redis{client: client}
}

// NewRedisClient parses a redis:// URL and checks the server is reachable
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(opts)

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return client, nil
}

func (r *Redis) Get(ctx context.Context, key string) (categorizer.Outcome, bool, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return categorizer.Outcome{}, false, nil
	}
	if err != nil {
		return categorizer.Outcome{}, false, fmt.Errorf("failed to read cached outcome: %w", err)
	}

	var outcome categorizer.Outcome
	if err := json.Unmarshal(data, &outcome); err != nil {
		return categorizer.Outcome{}, false, fmt.Errorf("failed to decode cached outcome: %w", err)
	}

	return outcome, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, outcome categorizer.Outcome, ttl time.Duration) error {
	data, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode outcome: %w", err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to cache outcome: %w", err)
	}

	return nil
}
