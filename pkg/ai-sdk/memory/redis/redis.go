package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/memory"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/redis/go-redis/v9"
)

// Store keeps run records as JSON documents with an expiry
type Store struct {
	client    redis.UniversalClient
	keyPrefix string
	ttl       time.Duration
}

type Opts struct {
	KeyPrefix string
	TTL       time.Duration
}

func New(client redis.UniversalClient, opts Opts) *Store {
	return &Store{
		client:    client,
		keyPrefix: opts.KeyPrefix,
		ttl:       opts.TTL,
	}
}

func (s *Store) runKey(id string) string {
	if s.keyPrefix != "" {
		return fmt.Sprintf("%s:runs:%s", s.keyPrefix, id)
	}
	return fmt.Sprintf("runs:%s", id)
}

func (s *Store) SaveRun(ctx context.Context, run memory.Run) error {
	if run.ID == "" {
		return types.ErrInvalidMessage
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	doc, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("failed to marshal run: %w", err)
	}

	if err := s.client.Set(ctx, s.runKey(run.ID), doc, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (memory.Run, error) {
	doc, err := s.client.Get(ctx, s.runKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return memory.Run{}, memory.ErrRunNotFound
	}
	if err != nil {
		return memory.Run{}, fmt.Errorf("failed to get run: %w", err)
	}

	var run memory.Run
	if err := json.Unmarshal(doc, &run); err != nil {
		return memory.Run{}, fmt.Errorf("failed to unmarshal run: %w", err)
	}

	return run, nil
}
