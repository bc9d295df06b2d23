package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/rs/zerolog/log"
)

// Anthropic requires max_tokens on every request
const defaultMaxTokens = 1024

// Provider implements the LanguageModel interface for Anthropic Claude
type Provider struct {
	client anthropic.Client
	model  string
	config Config
}

// Config holds Anthropic-specific configuration
type Config struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float32
	MaxTokens   int
}

// NewWithConfig creates a new Anthropic provider with custom configuration
func NewWithConfig(config Config) *Provider {
	opts := []option.RequestOption{option.WithAPIKey(config.APIKey)}

	if config.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(config.BaseURL))
	}

	return &Provider{
		client: anthropic.NewClient(opts...),
		model:  config.Model,
		config: config,
	}
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("anthropic:%s", p.model)
}

// Generate implements the Generate method of the LanguageModel interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	messages, system := convertMessages(req.Messages, req.System)

	msgReq := anthropic.MessageNewParams{
		Model:     anthropic.Model(p.model),
		Messages:  messages,
		MaxTokens: int64(defaultMaxTokens),
	}

	if len(system) > 0 {
		msgReq.System = system
	}

	if req.MaxTokens > 0 {
		msgReq.MaxTokens = int64(req.MaxTokens)
	} else if p.config.MaxTokens > 0 {
		msgReq.MaxTokens = int64(p.config.MaxTokens)
	}

	temperature := req.Temperature
	if temperature == nil {
		temperature = p.config.Temperature
	}

	if temperature != nil {
		msgReq.Temperature = anthropic.Float(float64(*temperature))
	}

	if len(req.Stop) > 0 {
		msgReq.StopSequences = req.Stop
	}

	if tools := convertTools(req.Tools); len(tools) > 0 {
		msgReq.Tools = tools
	}

	log.Debug().
		Str("provider", "anthropic").
		Str("model", p.model).
		Int("messages", len(messages)).
		Int("tools", len(req.Tools)).
		Msg("Sending messages request")

	resp, err := p.client.Messages.New(ctx, msgReq)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	response := &types.GenerateResponse{
		Model:        string(resp.Model),
		FinishReason: mapStopReason(resp.StopReason),
		Usage: types.Usage{
			PromptTokens:      int(resp.Usage.InputTokens),
			CompletionTokens:  int(resp.Usage.OutputTokens),
			TotalTokens:       int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
			CachedInputTokens: int(resp.Usage.CacheReadInputTokens),
		},
	}

	var textContent strings.Builder
	var toolCalls []types.ToolCall

	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			textContent.WriteString(block.Text)
		case "tool_use":
			args := make(map[string]any)
			if len(block.Input) > 0 {
				if err := json.Unmarshal(block.Input, &args); err != nil {
					log.Warn().Err(err).Str("tool", block.Name).Msg("Tool use input is not a JSON object")
				}
			}
			toolCalls = append(toolCalls, types.ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}

	response.Content = textContent.String()
	response.ToolCalls = toolCalls

	if len(toolCalls) == 0 && response.Content == "" {
		return nil, types.ErrEmptyResponse
	}

	return response, nil
}

// convertMessages converts SDK messages to Anthropic format and folds system
// messages into the system prompt
func convertMessages(messages []types.Message, systemPrompt string) ([]anthropic.MessageParam, []anthropic.TextBlockParam) {
	result := make([]anthropic.MessageParam, 0, len(messages))

	var systemTexts []string
	if systemPrompt != "" {
		systemTexts = append(systemTexts, systemPrompt)
	}

	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			systemTexts = append(systemTexts, msg.Content)
			continue
		}

		var contentBlocks []anthropic.ContentBlockParamUnion

		if msg.Content != "" {
			contentBlocks = append(contentBlocks, anthropic.NewTextBlock(msg.Content))
		}

		if msg.Role == types.RoleAssistant {
			for _, tc := range msg.ToolCalls {
				input := tc.Arguments
				if input == nil {
					input = make(map[string]any)
				}
				contentBlocks = append(contentBlocks, anthropic.NewToolUseBlock(tc.ID, input, tc.Name))
			}
		}

		for _, tr := range msg.ToolResults {
			contentBlocks = append(contentBlocks, anthropic.NewToolResultBlock(tr.ToolCallID, tr.Content, tr.IsError))
		}

		if len(contentBlocks) == 0 {
			continue
		}

		// Tool results travel as user messages in Anthropic
		role := anthropic.MessageParamRole(msg.Role)
		if msg.Role == types.RoleTool {
			role = anthropic.MessageParamRoleUser
		}

		result = append(result, anthropic.MessageParam{
			Role:    role,
			Content: contentBlocks,
		})
	}

	var system []anthropic.TextBlockParam
	if len(systemTexts) > 0 {
		system = []anthropic.TextBlockParam{{
			Text: strings.Join(systemTexts, "\n\n"),
			Type: "text",
		}}
	}

	return result, system
}

func convertTools(tools []types.Tool) []anthropic.ToolUnionParam {
	if len(tools) == 0 {
		return nil
	}

	result := make([]anthropic.ToolUnionParam, len(tools))
	for i, tool := range tools {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: "object",
		}

		if properties, ok := tool.Parameters["properties"]; ok {
			inputSchema.Properties = properties
		}

		inputSchema.Required = requiredFields(tool.Parameters["required"])

		extra := make(map[string]any)
		for key, value := range tool.Parameters {
			if key != "type" && key != "properties" && key != "required" {
				extra[key] = value
			}
		}
		if len(extra) > 0 {
			inputSchema.ExtraFields = extra
		}

		result[i] = anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        tool.Name,
				Description: anthropic.String(tool.Description),
				InputSchema: inputSchema,
			},
		}
	}
	return result
}

func requiredFields(value any) []string {
	switch required := value.(type) {
	case []string:
		return required
	case []any:
		fields := make([]string, 0, len(required))
		for _, r := range required {
			if s, ok := r.(string); ok {
				fields = append(fields, s)
			}
		}
		return fields
	default:
		return nil
	}
}

func mapStopReason(reason anthropic.StopReason) string {
	switch reason {
	case anthropic.StopReasonEndTurn, anthropic.StopReasonStopSequence:
		return types.FinishReasonStop
	case anthropic.StopReasonMaxTokens:
		return types.FinishReasonLength
	case anthropic.StopReasonToolUse:
		return types.FinishReasonToolCalls
	default:
		return string(reason)
	}
}
