package types

// GenerateResponse represents a response from text generation
type GenerateResponse struct {
	Content      string     `json:"content"`
	ToolCalls    []ToolCall `json:"tool_calls,omitempty"`
	Usage        Usage      `json:"usage"`
	FinishReason string     `json:"finish_reason"`
	Model        string     `json:"model"`
}

// HasToolCalls reports whether the model asked for at least one tool invocation
func (r *GenerateResponse) HasToolCalls() bool {
	return len(r.ToolCalls) > 0
}

// FinishReason constants
const (
	FinishReasonStop          = "stop"
	FinishReasonLength        = "length"
	FinishReasonToolCalls     = "tool_calls"
	FinishReasonContentFilter = "content_filter"
	FinishReasonError         = "error"
)

// Usage represents token usage information
type Usage struct {
	PromptTokens      int `json:"prompt_tokens"`
	CompletionTokens  int `json:"completion_tokens"`
	TotalTokens       int `json:"total_tokens"`
	CachedInputTokens int `json:"cached_input_tokens,omitempty"`
}

// Add calculates the sum of two usage instances
func (u Usage) Add(other Usage) Usage {
	return Usage{
		PromptTokens:      u.PromptTokens + other.PromptTokens,
		CompletionTokens:  u.CompletionTokens + other.CompletionTokens,
		TotalTokens:       u.TotalTokens + other.TotalTokens,
		CachedInputTokens: u.CachedInputTokens + other.CachedInputTokens,
	}
}
