package categorizer

import (
	"context"
	"fmt"
	"time"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/team"
	"github.com/flowbaker/categorizer/pkg/search"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

// AgenticClassifier researches the merchant with a team of agents and reads the
// decision back from the transcript
type AgenticClassifier struct {
	team    *team.RoundRobin
	timeout time.Duration
}

var _ Classifier = (*AgenticClassifier)(nil)

type AgenticOption func(*AgenticClassifier)

// WithRunTimeout bounds a whole run; zero keeps only the caller's deadline
func WithRunTimeout(timeout time.Duration) AgenticOption {
	return func(c *AgenticClassifier) {
		c.timeout = timeout
	}
}

func NewAgenticClassifier(model provider.LanguageModel, searcher search.Searcher, config AgenticConfig, opts ...AgenticOption) (*AgenticClassifier, error) {
	t, err := NewTeam(model, searcher, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification team: %w", err)
	}

	c := &AgenticClassifier{team: t}
	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

func (c *AgenticClassifier) Mode() Mode {
	return ModeAgentic
}

// Classify never fails once the description is accepted. A run aborted by a
// model failure or the deadline degrades to the OTHER fallback over whatever
// the agents managed to say.
func (c *AgenticClassifier) Classify(ctx context.Context, description string) (Outcome, error) {
	if err := ValidateDescription(description); err != nil {
		return Outcome{}, err
	}

	runID := xid.New().String()
	logger := log.With().Str("run_id", runID).Str("mode", string(ModeAgentic)).Logger()
	ctx = logger.WithContext(ctx)

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	logger.Info().Str("description", description).Msg("Analyzing category")

	start := time.Now()

	result, err := c.team.Run(ctx, description)
	if err != nil {
		logger.Error().
			Err(err).
			Int("turns", result.Turns).
			Msg("Classification run aborted, falling back")
	}

	outcome := Extract(result.Transcript)
	outcome.RunID = runID

	if outcome.Fallback && err == nil {
		logger.Warn().Msg("No valid category found in formatting agent response")
	}

	logger.Info().
		Str("category", string(outcome.Category)).
		Float64("confidence", outcome.Confidence).
		Int("turns", result.Turns).
		Str("stop_reason", string(result.StopReason)).
		Dur("duration", time.Since(start)).
		Msg("Category detected")

	return outcome, nil
}
