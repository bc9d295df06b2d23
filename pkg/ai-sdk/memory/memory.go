// Package memory records finished team runs so their transcripts can be read back.
package memory

import (
	"context"
	"errors"
	"time"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
)

var ErrRunNotFound = errors.New("run not found")

// Run is the record of one team run
type Run struct {
	ID         string         `json:"id"`
	Task       string         `json:"task"`
	Transcript []types.Turn   `json:"transcript"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

type Store interface {
	SaveRun(ctx context.Context, run Run) error
	GetRun(ctx context.Context, id string) (Run, error)
}

type NoOpMemoryStore struct {
}

func (s *NoOpMemoryStore) SaveRun(ctx context.Context, run Run) error {
	return nil
}

func (s *NoOpMemoryStore) GetRun(ctx context.Context, id string) (Run, error) {
	return Run{}, ErrRunNotFound
}
