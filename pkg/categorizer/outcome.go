package categorizer

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
)

// Confidence values are fixed by policy, they are not model probabilities
const (
	ConfidenceFallback        = 0.5
	ConfidenceDirectTruncated = 0.8
	ConfidenceExtracted       = 0.9
	ConfidenceDirectStop      = 1.0
)

const MaxDescriptionLength = 500

var ErrInvalidDescription = errors.New("invalid transaction description")

type Mode string

const (
	ModeAgentic Mode = "agentic"
	ModeDirect  Mode = "direct"
)

func (m Mode) IsValid() bool {
	return m == ModeAgentic || m == ModeDirect
}

// Message is one entry of the conversation returned to callers
type Message struct {
	Agent   string `json:"agent"`
	Content string `json:"content"`
}

type Outcome struct {
	Category     Category  `json:"category"`
	Confidence   float64   `json:"confidence"`
	Conversation []Message `json:"conversation"`

	RunID    string       `json:"run_id,omitempty"`
	Fallback bool         `json:"-"`
	Turns    []types.Turn `json:"-"`
}

// Classifier assigns a category to a transaction description
type Classifier interface {
	Classify(ctx context.Context, description string) (Outcome, error)
	Mode() Mode
}

func FallbackOutcome(turns []types.Turn) Outcome {
	return Outcome{
		Category:     Other,
		Confidence:   ConfidenceFallback,
		Conversation: Conversation(turns),
		Fallback:     true,
		Turns:        turns,
	}
}

// Conversation flattens transcript turns into caller facing messages
func Conversation(turns []types.Turn) []Message {
	messages := make([]Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, Message{
			Agent:   turn.Speaker,
			Content: turn.Content,
		})
	}
	return messages
}

// ValidateDescription enforces 1..500 characters. Whitespace counts as
// characters, so a blank description is accepted.
func ValidateDescription(description string) error {
	if description == "" {
		return fmt.Errorf("%w: description is empty", ErrInvalidDescription)
	}

	if n := utf8.RuneCountInString(description); n > MaxDescriptionLength {
		return fmt.Errorf("%w: description has %d characters, at most %d allowed", ErrInvalidDescription, n, MaxDescriptionLength)
	}

	return nil
}
