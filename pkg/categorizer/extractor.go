package categorizer

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/santhosh-tekuri/jsonschema/v5"
)

const formattingRecordSchema = `{
	"type": "object",
	"required": ["category"],
	"properties": {
		"category": {"type": "string", "minLength": 1}
	}
}`

var formattingRecord = jsonschema.MustCompileString("formatting_record.json", formattingRecordSchema)

var (
	ErrNoFormattingTurn = errors.New("no formatting turn in transcript")
	ErrUnknownCategory  = errors.New("category is not in the taxonomy")
)

// Extract reads the decision from the last formatting turn of a transcript.
// Anything short of a valid identifier yields the OTHER fallback.
func Extract(turns []types.Turn) Outcome {
	category, err := ExtractCategory(turns)
	if err != nil {
		return FallbackOutcome(turns)
	}

	return Outcome{
		Category:     category,
		Confidence:   ConfidenceExtracted,
		Conversation: Conversation(turns),
		Turns:        turns,
	}
}

// ExtractCategory returns the category of the last formatting turn, or why
// there is none
func ExtractCategory(turns []types.Turn) (Category, error) {
	for i := len(turns) - 1; i >= 0; i-- {
		turn := turns[i]
		if turn.IsMessage() && turn.Speaker == FormattingAgent {
			return ParseFormattingRecord(turn.Content)
		}
	}

	return "", ErrNoFormattingTurn
}

// ParseFormattingRecord decodes a {"category": "<ID>"} record, tolerating
// surrounding whitespace and a markdown code fence
func ParseFormattingRecord(content string) (Category, error) {
	payload := stripCodeFence(content)

	var record any
	if err := json.Unmarshal([]byte(payload), &record); err != nil {
		return "", fmt.Errorf("formatting record is not valid JSON: %w", err)
	}

	if err := formattingRecord.Validate(record); err != nil {
		return "", fmt.Errorf("formatting record has the wrong shape: %w", err)
	}

	raw := record.(map[string]any)["category"].(string)

	category, ok := Parse(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownCategory, raw)
	}

	return category, nil
}

func stripCodeFence(content string) string {
	s := strings.TrimSpace(content)
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}

	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")

	// Drop the language tag on the opening fence
	if newline := strings.IndexByte(s, '\n'); newline >= 0 && !strings.Contains(s[:newline], "{") {
		s = s[newline+1:]
	}

	return strings.TrimSpace(s)
}
