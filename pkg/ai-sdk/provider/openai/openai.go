package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/rs/zerolog/log"
	"github.com/sashabaranov/go-openai"
)

// Provider implements the LanguageModel interface for OpenAI and Azure OpenAI
type Provider struct {
	client *openai.Client
	name   string

	RequestSettings RequestSettings
}

type RequestSettings struct {
	Model       string
	Temperature *float32
	MaxTokens   int
}

// AzureConfig holds the settings of an Azure OpenAI deployment
type AzureConfig struct {
	Endpoint   string
	APIKey     string
	Deployment string
	APIVersion string
}

// New creates a new OpenAI provider
func New(apiKey, model string) *Provider {
	clientConfig := openai.DefaultConfig(apiKey)

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		name:   "openai",
		RequestSettings: RequestSettings{
			Model: model,
		},
	}
}

// NewAzure creates a provider bound to a single Azure OpenAI deployment
func NewAzure(config AzureConfig) *Provider {
	clientConfig := openai.DefaultAzureConfig(config.APIKey, config.Endpoint)

	if config.APIVersion != "" {
		clientConfig.APIVersion = config.APIVersion
	}

	deployment := config.Deployment
	clientConfig.AzureModelMapperFunc = func(model string) string {
		return deployment
	}

	return &Provider{
		client: openai.NewClientWithConfig(clientConfig),
		name:   "azure",
		RequestSettings: RequestSettings{
			Model: deployment,
		},
	}
}

// Generate implements the Generate method of the LanguageModel interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	chatReq := p.buildRequest(req)

	log.Debug().
		Str("provider", p.name).
		Str("model", chatReq.Model).
		Int("messages", len(chatReq.Messages)).
		Int("tools", len(chatReq.Tools)).
		Msg("Sending chat completion request")

	resp, err := p.client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%s api error: %w", p.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, types.ErrEmptyResponse
	}

	choice := resp.Choices[0]
	response := &types.GenerateResponse{
		Content:      choice.Message.Content,
		FinishReason: string(choice.FinishReason),
		Model:        resp.Model,
		Usage: types.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}

	if resp.Usage.PromptTokensDetails != nil {
		response.Usage.CachedInputTokens = resp.Usage.PromptTokensDetails.CachedTokens
	}

	if len(choice.Message.ToolCalls) > 0 {
		response.ToolCalls = make([]types.ToolCall, len(choice.Message.ToolCalls))
		for i, tc := range choice.Message.ToolCalls {
			args := map[string]any{}
			if tc.Function.Arguments != "" {
				if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
					log.Warn().Err(err).Str("tool", tc.Function.Name).Msg("Tool call arguments are not valid JSON")
				}
			}
			response.ToolCalls[i] = types.ToolCall{
				ID:        tc.ID,
				Name:      tc.Function.Name,
				Arguments: args,
			}
		}
	}

	return response, nil
}

func (p *Provider) buildRequest(req provider.GenerateRequest) openai.ChatCompletionRequest {
	chatReq := openai.ChatCompletionRequest{
		Model:    p.RequestSettings.Model,
		Messages: convertMessages(req.Messages, req.System),
		Tools:    convertTools(req.Tools),
		Stop:     req.Stop,
	}

	temperature := req.Temperature
	if temperature == nil {
		temperature = p.RequestSettings.Temperature
	}

	if temperature != nil {
		// go-openai drops a zero temperature from the payload
		chatReq.Temperature = *temperature
		if chatReq.Temperature == 0 {
			chatReq.Temperature = math.SmallestNonzeroFloat32
		}
	}

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = p.RequestSettings.MaxTokens
	}

	if maxTokens > 0 {
		if isMaxCompletionTokensModel(chatReq.Model) {
			chatReq.MaxCompletionTokens = maxTokens
		} else {
			chatReq.MaxTokens = maxTokens
		}
	}

	return chatReq
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("%s:%s", p.name, p.RequestSettings.Model)
}

func convertMessages(messages []types.Message, system string) []openai.ChatCompletionMessage {
	result := make([]openai.ChatCompletionMessage, 0, len(messages)+1)

	if system != "" {
		result = append(result, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}

	for _, msg := range messages {
		// Tool results become one tool message per call
		if len(msg.ToolResults) > 0 {
			for _, toolResult := range msg.ToolResults {
				result = append(result, openai.ChatCompletionMessage{
					Role:       openai.ChatMessageRoleTool,
					Content:    toolResult.Content,
					ToolCallID: toolResult.ToolCallID,
				})
			}
			continue
		}

		oaiMsg := openai.ChatCompletionMessage{
			Role:    string(msg.Role),
			Content: msg.Content,
			Name:    msg.Name,
		}

		if len(msg.ToolCalls) > 0 {
			toolCalls := make([]openai.ToolCall, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				argsJSON, _ := json.Marshal(tc.Arguments)
				toolCalls[i] = openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(argsJSON),
					},
				}
			}
			oaiMsg.ToolCalls = toolCalls
		}

		result = append(result, oaiMsg)
	}

	return result
}

func convertTools(tools []types.Tool) []openai.Tool {
	if len(tools) == 0 {
		return nil
	}

	result := make([]openai.Tool, len(tools))
	for i, tool := range tools {
		result[i] = openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  tool.Parameters,
			},
		}
	}
	return result
}

var maxCompletionTokensModels = map[string]bool{
	"o1": true, "o1-mini": true, "o3": true, "o3-mini": true, "o4-mini": true,
	"gpt-5": true, "gpt-5-mini": true, "gpt-5-nano": true,
}

func isMaxCompletionTokensModel(model string) bool {
	return maxCompletionTokensModels[model]
}
