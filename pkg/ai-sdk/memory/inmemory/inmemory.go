package inmemory

import (
	"context"
	"sync"
	"time"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/memory"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
)

const DefaultCapacity = 500

// Store keeps the most recent runs, evicting the oldest once capacity is reached
type Store struct {
	mu       sync.RWMutex
	capacity int
	runs     map[string]memory.Run
	order    []string
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	return &Store{
		capacity: capacity,
		runs:     make(map[string]memory.Run),
	}
}

func (s *Store) SaveRun(ctx context.Context, run memory.Run) error {
	if run.ID == "" {
		return types.ErrInvalidMessage
	}

	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.runs[run.ID]; !exists {
		s.order = append(s.order, run.ID)
	}
	s.runs[run.ID] = run

	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		delete(s.runs, oldest)
	}

	return nil
}

func (s *Store) GetRun(ctx context.Context, id string) (memory.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return memory.Run{}, memory.ErrRunNotFound
	}

	return run, nil
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.runs)
}
