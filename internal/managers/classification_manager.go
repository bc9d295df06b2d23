package managers

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/flowbaker/categorizer/internal/cache"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/memory"
	"github.com/flowbaker/categorizer/pkg/categorizer"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const MaxBatchSize = 100

var (
	ErrModeUnavailable = errors.New("classifier mode is not available")
	ErrInvalidBatch    = errors.New("invalid batch")
)

type ClassifyParams struct {
	Description string
	// Mode overrides the default classifier when set
	Mode categorizer.Mode
}

type ClassifyBatchParams struct {
	Descriptions []string
	Mode         categorizer.Mode
}

type ClassificationManager interface {
	Classify(ctx context.Context, params ClassifyParams) (categorizer.Outcome, error)
	ClassifyBatch(ctx context.Context, params ClassifyBatchParams) ([]categorizer.Outcome, error)
	GetRun(ctx context.Context, runID string) (memory.Run, error)
	DefaultMode() categorizer.Mode
}

type classificationManager struct {
	classifiers      map[categorizer.Mode]categorizer.Classifier
	defaultMode      categorizer.Mode
	cache            cache.Store
	cacheTTL         time.Duration
	history          memory.Store
	batchConcurrency int
}

type ClassificationManagerDependencies struct {
	Classifiers      []categorizer.Classifier
	DefaultMode      categorizer.Mode
	Cache            cache.Store
	CacheTTL         time.Duration
	History          memory.Store
	BatchConcurrency int
}

func NewClassificationManager(deps ClassificationManagerDependencies) (ClassificationManager, error) {
	classifiers := make(map[categorizer.Mode]categorizer.Classifier, len(deps.Classifiers))
	for _, c := range deps.Classifiers {
		classifiers[c.Mode()] = c
	}

	if _, ok := classifiers[deps.DefaultMode]; !ok {
		return nil, fmt.Errorf("%w: no classifier for default mode %q", ErrModeUnavailable, deps.DefaultMode)
	}

	m := &classificationManager{
		classifiers:      classifiers,
		defaultMode:      deps.DefaultMode,
		cache:            deps.Cache,
		cacheTTL:         deps.CacheTTL,
		history:          deps.History,
		batchConcurrency: deps.BatchConcurrency,
	}

	if m.cache == nil {
		m.cache = cache.NoOp{}
	}
	if m.history == nil {
		m.history = &memory.NoOpMemoryStore{}
	}
	if m.batchConcurrency <= 0 {
		m.batchConcurrency = 1
	}

	return m, nil
}

func (m *classificationManager) DefaultMode() categorizer.Mode {
	return m.defaultMode
}

func (m *classificationManager) classifierFor(mode categorizer.Mode) (categorizer.Classifier, error) {
	if mode == "" {
		mode = m.defaultMode
	}

	classifier, ok := m.classifiers[mode]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrModeUnavailable, mode)
	}

	return classifier, nil
}

func (m *classificationManager) Classify(ctx context.Context, params ClassifyParams) (categorizer.Outcome, error) {
	if err := categorizer.ValidateDescription(params.Description); err != nil {
		return categorizer.Outcome{}, err
	}

	classifier, err := m.classifierFor(params.Mode)
	if err != nil {
		return categorizer.Outcome{}, err
	}

	return m.classify(ctx, classifier, params.Description)
}

func (m *classificationManager) classify(ctx context.Context, classifier categorizer.Classifier, description string) (categorizer.Outcome, error) {
	key, cacheable := cache.Key(classifier.Mode(), description)

	if cacheable {
		cached, ok, err := m.cache.Get(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to read classification cache")
		}
		if ok {
			log.Debug().Str("key", key).Msg("Classification served from cache")

			// No run happened for this request
			cached.RunID = ""
			cached.Turns = nil
			return cached, nil
		}
	}

	outcome, err := classifier.Classify(ctx, description)
	if err != nil {
		return categorizer.Outcome{}, fmt.Errorf("failed to classify description: %w", err)
	}

	m.recordRun(ctx, classifier.Mode(), description, outcome)

	if cacheable && !outcome.Fallback {
		if err := m.cache.Set(ctx, key, outcome, m.cacheTTL); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("Failed to cache classification")
		}
	}

	return outcome, nil
}

func (m *classificationManager) recordRun(ctx context.Context, mode categorizer.Mode, description string, outcome categorizer.Outcome) {
	if outcome.RunID == "" {
		return
	}

	run := memory.Run{
		ID:         outcome.RunID,
		Task:       description,
		Transcript: outcome.Turns,
		Metadata: map[string]any{
			"mode":       string(mode),
			"category":   string(outcome.Category),
			"confidence": outcome.Confidence,
			"fallback":   outcome.Fallback,
		},
		CreatedAt: time.Now(),
	}

	if err := m.history.SaveRun(ctx, run); err != nil {
		log.Warn().Err(err).Str("run_id", outcome.RunID).Msg("Failed to record classification run")
	}
}

// ClassifyBatch classifies every description with bounded concurrency and
// returns the outcomes in input order. The first failure cancels the rest.
func (m *classificationManager) ClassifyBatch(ctx context.Context, params ClassifyBatchParams) ([]categorizer.Outcome, error) {
	if len(params.Descriptions) == 0 || len(params.Descriptions) > MaxBatchSize {
		return nil, fmt.Errorf("%w: expected 1 to %d descriptions, got %d", ErrInvalidBatch, MaxBatchSize, len(params.Descriptions))
	}

	for i, description := range params.Descriptions {
		if err := categorizer.ValidateDescription(description); err != nil {
			return nil, fmt.Errorf("description %d: %w", i, err)
		}
	}

	classifier, err := m.classifierFor(params.Mode)
	if err != nil {
		return nil, err
	}

	outcomes := make([]categorizer.Outcome, len(params.Descriptions))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.batchConcurrency)

	for i, description := range params.Descriptions {
		g.Go(func() error {
			outcome, err := m.classify(gctx, classifier, description)
			if err != nil {
				return fmt.Errorf("description %d: %w", i, err)
			}

			outcomes[i] = outcome
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	log.Info().
		Int("count", len(outcomes)).
		Str("mode", string(classifier.Mode())).
		Msg("Batch classified")

	return outcomes, nil
}

func (m *classificationManager) GetRun(ctx context.Context, runID string) (memory.Run, error) {
	return m.history.GetRun(ctx, runID)
}
