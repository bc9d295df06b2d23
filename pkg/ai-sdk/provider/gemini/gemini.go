package gemini

import (
	"context"
	"fmt"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"google.golang.org/genai"
)

// Provider implements the LanguageModel interface for Google Gemini
type Provider struct {
	client *genai.Client

	RequestSettings RequestSettings
}

type RequestSettings struct {
	Model           string
	MaxOutputTokens int32
	Temperature     *float32
}

// New creates a new Gemini provider
func New(ctx context.Context, apiKey, model string) (*Provider, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &Provider{
		client: client,
		RequestSettings: RequestSettings{
			Model:           model,
			MaxOutputTokens: 1024,
		},
	}, nil
}

// ID returns the model identifier
func (p *Provider) ID() string {
	return fmt.Sprintf("gemini:%s", p.RequestSettings.Model)
}

// Generate implements the Generate method of the LanguageModel interface
func (p *Provider) Generate(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
	config := &genai.GenerateContentConfig{
		MaxOutputTokens: p.RequestSettings.MaxOutputTokens,
	}

	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}

	temperature := req.Temperature
	if temperature == nil {
		temperature = p.RequestSettings.Temperature
	}
	if temperature != nil {
		config.Temperature = genai.Ptr(*temperature)
	}

	if len(req.Stop) > 0 {
		config.StopSequences = req.Stop
	}

	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{genai.NewPartFromText(req.System)},
		}
	}

	if tools := convertTools(req.Tools); len(tools) > 0 {
		config.Tools = tools
	}

	contents := convertMessages(req.Messages)

	log.Debug().
		Str("provider", "gemini").
		Str("model", p.RequestSettings.Model).
		Int("contents", len(contents)).
		Int("tools", len(req.Tools)).
		Msg("Sending generate content request")

	resp, err := p.client.Models.GenerateContent(ctx, p.RequestSettings.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("gemini api error: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, types.ErrEmptyResponse
	}

	candidate := resp.Candidates[0]

	response := &types.GenerateResponse{
		FinishReason: mapFinishReason(candidate.FinishReason),
		Model:        p.RequestSettings.Model,
	}

	if resp.UsageMetadata != nil {
		response.Usage = types.Usage{
			PromptTokens:      int(resp.UsageMetadata.PromptTokenCount),
			CompletionTokens:  int(resp.UsageMetadata.CandidatesTokenCount),
			TotalTokens:       int(resp.UsageMetadata.TotalTokenCount),
			CachedInputTokens: int(resp.UsageMetadata.CachedContentTokenCount),
		}
	}

	if candidate.Content != nil {
		for _, part := range candidate.Content.Parts {
			if part.Text != "" && !part.Thought {
				response.Content += part.Text
			}
			if part.FunctionCall != nil {
				// Gemini doesn't provide call ids
				toolCall := types.ToolCall{
					ID:        uuid.New().String(),
					Name:      part.FunctionCall.Name,
					Arguments: part.FunctionCall.Args,
				}
				if len(part.ThoughtSignature) > 0 {
					toolCall.Metadata = map[string]any{
						"thought_signature": part.ThoughtSignature,
					}
				}
				response.ToolCalls = append(response.ToolCalls, toolCall)
			}
		}
	}

	if len(response.ToolCalls) > 0 {
		response.FinishReason = types.FinishReasonToolCalls
	}

	return response, nil
}

// convertMessages converts types.Message to Gemini content format
func convertMessages(messages []types.Message) []*genai.Content {
	var result []*genai.Content

	calls := make(map[string]types.ToolCall)
	for _, msg := range messages {
		for _, tc := range msg.ToolCalls {
			calls[tc.ID] = tc
		}
	}

	for _, msg := range messages {
		if msg.Role == types.RoleSystem {
			continue
		}

		var parts []*genai.Part

		// Gemini uses "user" or "model"
		role := "user"
		if msg.Role == types.RoleAssistant {
			role = "model"
		}

		if msg.Content != "" && msg.Role != types.RoleTool {
			parts = append(parts, genai.NewPartFromText(msg.Content))
		}

		for _, tc := range msg.ToolCalls {
			part := &genai.Part{
				FunctionCall: &genai.FunctionCall{
					Name: tc.Name,
					Args: tc.Arguments,
				},
			}
			if sig, ok := tc.Metadata["thought_signature"].([]byte); ok && len(sig) > 0 {
				part.ThoughtSignature = sig
			}
			parts = append(parts, part)
		}

		for _, tr := range msg.ToolResults {
			name := tr.Name
			call, known := calls[tr.ToolCallID]
			if name == "" && known {
				name = call.Name
			}

			part := &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name: name,
					Response: map[string]any{
						"result":   tr.Content,
						"is_error": tr.IsError,
					},
				},
			}
			if sig, ok := call.Metadata["thought_signature"].([]byte); known && ok && len(sig) > 0 {
				part.ThoughtSignature = sig
			}
			parts = append(parts, part)
		}

		if len(parts) > 0 {
			result = append(result, &genai.Content{
				Role:  role,
				Parts: parts,
			})
		}
	}

	return result
}

// convertTools converts types.Tool to Gemini tool format
func convertTools(tools []types.Tool) []*genai.Tool {
	if len(tools) == 0 {
		return nil
	}

	var functionDeclarations []*genai.FunctionDeclaration
	for _, tool := range tools {
		functionDeclarations = append(functionDeclarations, &genai.FunctionDeclaration{
			Name:        tool.Name,
			Description: tool.Description,
			Parameters:  convertParametersToSchema(tool.Parameters),
		})
	}

	return []*genai.Tool{{
		FunctionDeclarations: functionDeclarations,
	}}
}

// convertParametersToSchema converts a JSON schema map to genai.Schema
func convertParametersToSchema(params map[string]any) *genai.Schema {
	if params == nil {
		return nil
	}

	schema := &genai.Schema{
		Type: genai.TypeObject,
	}

	if typeVal, ok := params["type"].(string); ok {
		schema.Type = mapSchemaType(typeVal)
	}

	if desc, ok := params["description"].(string); ok {
		schema.Description = desc
	}

	if props, ok := params["properties"].(map[string]any); ok {
		schema.Properties = make(map[string]*genai.Schema)
		for name, propVal := range props {
			if propMap, ok := propVal.(map[string]any); ok {
				schema.Properties[name] = convertParametersToSchema(propMap)
			}
		}
	}

	schema.Required = stringList(params["required"])

	if items, ok := params["items"].(map[string]any); ok {
		schema.Items = convertParametersToSchema(items)
	}

	schema.Enum = stringList(params["enum"])

	return schema
}

func stringList(value any) []string {
	switch list := value.(type) {
	case []string:
		return list
	case []any:
		var out []string
		for _, v := range list {
			if s, ok := v.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// mapSchemaType converts JSON schema type to genai.Type
func mapSchemaType(t string) genai.Type {
	switch t {
	case "string":
		return genai.TypeString
	case "number":
		return genai.TypeNumber
	case "integer":
		return genai.TypeInteger
	case "boolean":
		return genai.TypeBoolean
	case "array":
		return genai.TypeArray
	case "object":
		return genai.TypeObject
	default:
		return genai.TypeUnspecified
	}
}

// mapFinishReason maps Gemini finish reasons to standard format
func mapFinishReason(reason genai.FinishReason) string {
	switch reason {
	case genai.FinishReasonMaxTokens:
		return types.FinishReasonLength
	case genai.FinishReasonSafety, genai.FinishReasonRecitation:
		return types.FinishReasonContentFilter
	default:
		return types.FinishReasonStop
	}
}
