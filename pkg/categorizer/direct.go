package categorizer

import (
	"context"
	"fmt"
	"strings"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/rs/xid"
	"github.com/rs/zerolog/log"
)

const directPrompt = `Analyze the following transaction description and determine the most appropriate category. The category must be one of the following:
%s

Transaction description: "%s"

Return only the category name without any explanation.`

const directMaxTokens = 10

// DirectClassifier asks the model once for a category, without research
type DirectClassifier struct {
	model provider.LanguageModel
}

var _ Classifier = (*DirectClassifier)(nil)

func NewDirectClassifier(model provider.LanguageModel) *DirectClassifier {
	return &DirectClassifier{model: model}
}

func (c *DirectClassifier) Mode() Mode {
	return ModeDirect
}

// Classify returns the model's answer when it names a category exactly. Unlike
// the agentic path a failed model call is returned to the caller.
func (c *DirectClassifier) Classify(ctx context.Context, description string) (Outcome, error) {
	if err := ValidateDescription(description); err != nil {
		return Outcome{}, err
	}

	runID := xid.New().String()
	logger := log.With().Str("run_id", runID).Str("mode", string(ModeDirect)).Logger()

	logger.Info().Str("description", description).Msg("Sending direct classification request")

	resp, err := c.model.Generate(ctx, provider.GenerateRequest{
		Messages:    []types.Message{types.UserMessage(DirectPrompt(description))},
		Temperature: provider.Float32(0),
		MaxTokens:   directMaxTokens,
	})
	if err != nil {
		logger.Error().Err(err).Msg("Direct classification failed")
		return Outcome{}, fmt.Errorf("direct classification: %w", err)
	}

	answer := strings.TrimSpace(resp.Content)

	if !IsValid(answer) {
		logger.Error().Str("answer", answer).Msg("Invalid category received")

		outcome := FallbackOutcome(nil)
		outcome.RunID = runID
		return outcome, nil
	}

	confidence := ConfidenceDirectTruncated
	if resp.FinishReason == types.FinishReasonStop {
		confidence = ConfidenceDirectStop
	}

	logger.Info().
		Str("category", answer).
		Float64("confidence", confidence).
		Str("finish_reason", resp.FinishReason).
		Msg("Category detected")

	return Outcome{
		Category:     Category(answer),
		Confidence:   confidence,
		Conversation: []Message{},
		RunID:        runID,
	}, nil
}

// DirectPrompt renders the single-shot prompt for description
func DirectPrompt(description string) string {
	return fmt.Sprintf(directPrompt, Listing(), description)
}
