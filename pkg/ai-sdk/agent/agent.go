package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/tool"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
)

const DefaultMaxToolRounds = 3

// Agent is a named participant that answers one turn of a shared transcript.
// It holds no per-run state and can be reused across concurrent runs.
type Agent struct {
	name          string
	SystemPrompt  string
	Model         provider.LanguageModel
	Tools         []tool.Tool
	MaxToolRounds int
	MaxTokens     int
	Temperature   *float32

	hooks Hooks
}

type Hooks struct {
	OnBeforeGenerate   func(ctx context.Context, agent string, req *provider.GenerateRequest)
	OnGenerationFailed func(ctx context.Context, agent string, req *provider.GenerateRequest, err error)

	OnToolCallStart    func(ctx context.Context, agent string, toolCall types.ToolCall)
	OnToolCallComplete func(ctx context.Context, agent string, toolCall types.ToolCall, toolResult types.ToolResult)
}

func New(name string, opts ...Option) (*Agent, error) {
	if strings.TrimSpace(name) == "" {
		return nil, errors.New("agent name is required")
	}

	agent := &Agent{
		name:          name,
		MaxToolRounds: DefaultMaxToolRounds,
	}

	for _, opt := range opts {
		opt(agent)
	}

	if agent.Model == nil {
		return nil, types.ErrModelNotSet
	}

	if agent.MaxToolRounds < 0 {
		agent.MaxToolRounds = 0
	}

	return agent, nil
}

func (a *Agent) Name() string {
	return a.name
}

// Respond produces the agent's next message for the transcript. Every tool
// exchange is appended to the transcript as it completes; the returned message
// turn is left for the caller to record. When the tool round budget is spent the
// model is asked once more without tools so the turn always ends in text.
func (a *Agent) Respond(ctx context.Context, transcript *types.Transcript) (types.Turn, error) {
	messages := a.BuildMessages(transcript.Turns())

	for round := 0; ; round++ {
		if err := ctx.Err(); err != nil {
			return types.Turn{}, fmt.Errorf("%w: %s before model call: %v", types.ErrContextCanceled, a.name, err)
		}

		req := provider.GenerateRequest{
			Messages:    messages,
			System:      a.SystemPrompt,
			Temperature: a.Temperature,
			MaxTokens:   a.MaxTokens,
		}

		if round < a.MaxToolRounds {
			req.Tools = a.toolDefinitions()
		}

		a.OnBeforeGenerate(ctx, &req)

		resp, err := a.Model.Generate(ctx, req)
		if err != nil {
			a.OnGenerationFailed(ctx, &req, err)
			return types.Turn{}, fmt.Errorf("agent %s: generate: %w", a.name, err)
		}

		if !resp.HasToolCalls() || len(req.Tools) == 0 {
			return types.MessageTurn(a.name, strings.TrimSpace(resp.Content)), nil
		}

		messages = append(messages, types.AssistantMessage(resp.Content, resp.ToolCalls))

		results := make([]types.ToolResult, 0, len(resp.ToolCalls))

		for _, toolCall := range resp.ToolCalls {
			if err := ctx.Err(); err != nil {
				return types.Turn{}, fmt.Errorf("%w: %s before tool %s: %v", types.ErrContextCanceled, a.name, toolCall.Name, err)
			}

			toolResult := a.HandleToolCall(ctx, toolCall)
			transcript.Append(types.ToolTurn(a.name, toolCall, toolResult))
			results = append(results, toolResult)
		}

		messages = append(messages, types.ToolResultsMessage(results))
	}
}

// HandleToolCall executes a single tool call. Failures are reported to the model
// as error results instead of aborting the turn.
func (a *Agent) HandleToolCall(ctx context.Context, toolCall types.ToolCall) types.ToolResult {
	a.OnToolCallStart(ctx, toolCall)

	toolResult := types.ToolResult{
		ToolCallID: toolCall.ID,
		Name:       toolCall.Name,
	}

	content, err := a.executeTool(ctx, toolCall)
	if err != nil {
		toolResult.Content = fmt.Sprintf("Error: %v", err)
		toolResult.IsError = true
	} else {
		toolResult.Content = content
	}

	a.OnToolCallComplete(ctx, toolCall, toolResult)

	return toolResult
}

func (a *Agent) executeTool(ctx context.Context, toolCall types.ToolCall) (string, error) {
	t, exists := a.GetTool(toolCall.Name)
	if !exists {
		return "", fmt.Errorf("%w: %s", types.ErrToolNotFound, toolCall.Name)
	}

	args := toolCall.Arguments
	if args == nil {
		args = map[string]any{}
	}

	argsJSON, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("failed to marshal tool call arguments: %w", err)
	}

	return t.Execute(ctx, string(argsJSON))
}

func (a *Agent) GetTool(toolName string) (tool.Tool, bool) {
	for _, t := range a.Tools {
		if t.Name() == toolName {
			return t, true
		}
	}

	return nil, false
}

// BuildMessages renders the shared transcript from this agent's point of view.
// Its own utterances are assistant messages, everything said by others arrives as
// a user message prefixed with the speaker. Tool exchanges from earlier turns are
// summarized by the utterances that followed them and are not replayed.
func (a *Agent) BuildMessages(turns []types.Turn) []types.Message {
	messages := make([]types.Message, 0, len(turns))

	for _, turn := range turns {
		switch turn.Kind {
		case types.TurnKindTask:
			messages = append(messages, types.UserMessage(turn.Content))
		case types.TurnKindMessage:
			if turn.Speaker == a.name {
				messages = append(messages, types.AssistantMessage(turn.Content, nil))
				continue
			}

			messages = append(messages, types.UserMessage(fmt.Sprintf("%s: %s", turn.Speaker, turn.Content)))
		}
	}

	return messages
}

func (a *Agent) toolDefinitions() []types.Tool {
	if len(a.Tools) == 0 {
		return nil
	}

	definitions := make([]types.Tool, 0, len(a.Tools))
	for _, t := range a.Tools {
		definitions = append(definitions, tool.ToTypesTool(t))
	}

	return definitions
}

func (a *Agent) OnBeforeGenerate(ctx context.Context, req *provider.GenerateRequest) {
	if a.hooks.OnBeforeGenerate != nil {
		a.hooks.OnBeforeGenerate(ctx, a.name, req)
	}
}

func (a *Agent) OnGenerationFailed(ctx context.Context, req *provider.GenerateRequest, err error) {
	if a.hooks.OnGenerationFailed != nil {
		a.hooks.OnGenerationFailed(ctx, a.name, req, err)
	}
}

func (a *Agent) OnToolCallStart(ctx context.Context, toolCall types.ToolCall) {
	if a.hooks.OnToolCallStart != nil {
		a.hooks.OnToolCallStart(ctx, a.name, toolCall)
	}
}

func (a *Agent) OnToolCallComplete(ctx context.Context, toolCall types.ToolCall, toolResult types.ToolResult) {
	if a.hooks.OnToolCallComplete != nil {
		a.hooks.OnToolCallComplete(ctx, a.name, toolCall, toolResult)
	}
}
