package provider

import (
	"context"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
)

// LanguageModel defines the interface that all LLM providers must implement.
// Implementations must be safe for concurrent use.
type LanguageModel interface {
	// Generate produces a complete response (blocking)
	Generate(ctx context.Context, req GenerateRequest) (*types.GenerateResponse, error)

	// ID returns the unique identifier for this model
	ID() string
}

// GenerateRequest contains all parameters for generating text
type GenerateRequest struct {
	// Messages is the conversation history
	Messages []types.Message `json:"messages"`

	// System is an optional system prompt
	System string `json:"system,omitempty"`

	// Tools is a list of tools available to the model
	Tools []types.Tool `json:"tools,omitempty"`

	// Temperature controls randomness, nil keeps the provider default
	Temperature *float32 `json:"temperature,omitempty"`

	// MaxTokens caps the length of the reply, zero keeps the provider default
	MaxTokens int `json:"max_tokens,omitempty"`

	// Stop sequences where generation should stop
	Stop []string `json:"stop,omitempty"`
}

// Float32 returns a pointer to v, for optional request parameters
func Float32(v float32) *float32 {
	return &v
}
