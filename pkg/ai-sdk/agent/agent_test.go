package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider/mock"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/tool"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoTool(name string) tool.Tool {
	return tool.Define(name, "echoes its arguments", tool.ObjectSchema(map[string]any{}),
		func(ctx context.Context, args string) (string, error) {
			return "echo " + args, nil
		})
}

func failingTool(name string) tool.Tool {
	return tool.Define(name, "always fails", tool.ObjectSchema(map[string]any{}),
		func(ctx context.Context, args string) (string, error) {
			return "", errors.New("provider unreachable")
		})
}

func seededTranscript(task string) *types.Transcript {
	transcript := types.NewTranscript()
	transcript.Append(types.TaskTurn(task))
	return transcript
}

func TestNew(t *testing.T) {
	_, err := New("Writer")
	assert.ErrorIs(t, err, types.ErrModelNotSet)

	_, err = New(" ", WithModel(mock.New()))
	assert.Error(t, err)

	a, err := New("Writer", WithModel(mock.New()))
	require.NoError(t, err)
	assert.Equal(t, "Writer", a.Name())
	assert.Equal(t, DefaultMaxToolRounds, a.MaxToolRounds)
}

func TestAgent_Respond_PlainText(t *testing.T) {
	model := mock.New(mock.Text("  hello there \n"))
	a, err := New("Writer", WithModel(model), WithSystemPrompt("be brief"), WithMaxTokens(50), WithTemperature(0))
	require.NoError(t, err)

	transcript := seededTranscript("say hello")

	turn, err := a.Respond(context.Background(), transcript)
	require.NoError(t, err)

	assert.Equal(t, "Writer", turn.Speaker)
	assert.Equal(t, types.TurnKindMessage, turn.Kind)
	assert.Equal(t, "hello there", turn.Content)
	assert.Equal(t, 1, transcript.Len(), "message turn is recorded by the caller")

	requests := model.Requests()
	require.Len(t, requests, 1)
	assert.Equal(t, "be brief", requests[0].System)
	assert.Equal(t, 50, requests[0].MaxTokens)
	require.NotNil(t, requests[0].Temperature)
	assert.Equal(t, float32(0), *requests[0].Temperature)
	assert.Empty(t, requests[0].Tools)
}

func TestAgent_Respond_ToolRound(t *testing.T) {
	model := mock.New(
		mock.CallTool("lookup", map[string]any{"q": "starbucks"}),
		mock.Text("found it"),
	)
	a, err := New("Researcher", WithModel(model), WithTools(echoTool("lookup")))
	require.NoError(t, err)

	transcript := seededTranscript("STARBUCKS PARIS")

	turn, err := a.Respond(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "found it", turn.Content)

	turns := transcript.Turns()
	require.Len(t, turns, 2)
	toolTurn := turns[1]
	assert.True(t, toolTurn.IsTool())
	assert.Equal(t, "lookup", toolTurn.Speaker)
	assert.Equal(t, "Researcher", toolTurn.Caller)
	assert.Equal(t, `echo {"q":"starbucks"}`, toolTurn.Content)
	assert.False(t, toolTurn.IsError)

	requests := model.Requests()
	require.Len(t, requests, 2)
	require.Len(t, requests[0].Tools, 1)
	assert.Equal(t, "lookup", requests[0].Tools[0].Name)

	second := requests[1].Messages
	require.Len(t, second, 3)
	assert.Equal(t, types.RoleAssistant, second[1].Role)
	require.Len(t, second[1].ToolCalls, 1)
	require.Len(t, second[2].ToolResults, 1)
	assert.Equal(t, "call_lookup", second[2].ToolResults[0].ToolCallID)
}

func TestAgent_Respond_ToolFailureIsRecovered(t *testing.T) {
	tests := []struct {
		name       string
		tools      []tool.Tool
		call       string
		wantPrefix string
	}{
		{
			name:       "tool returns an error",
			tools:      []tool.Tool{failingTool("web_search")},
			call:       "web_search",
			wantPrefix: "Error: provider unreachable",
		},
		{
			name:       "unknown tool",
			tools:      []tool.Tool{echoTool("web_search")},
			call:       "delete_everything",
			wantPrefix: "Error: tool not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := mock.New(mock.CallTool(tt.call, nil), mock.Text("no reliable information found"))
			a, err := New("Researcher", WithModel(model), WithTools(tt.tools...))
			require.NoError(t, err)

			transcript := seededTranscript("XYZ 123")

			turn, err := a.Respond(context.Background(), transcript)
			require.NoError(t, err)
			assert.Equal(t, "no reliable information found", turn.Content)

			turns := transcript.Turns()
			require.Len(t, turns, 2)
			assert.True(t, turns[1].IsError)
			assert.Contains(t, turns[1].Content, tt.wantPrefix)
		})
	}
}

func TestAgent_Respond_ToolRoundBudget(t *testing.T) {
	model := mock.New(
		mock.CallTool("lookup", nil),
		mock.CallTool("lookup", nil),
		mock.Text("giving up on tools"),
	)
	a, err := New("Researcher", WithModel(model), WithTools(echoTool("lookup")), WithMaxToolRounds(2))
	require.NoError(t, err)

	transcript := seededTranscript("task")

	turn, err := a.Respond(context.Background(), transcript)
	require.NoError(t, err)
	assert.Equal(t, "giving up on tools", turn.Content)

	requests := model.Requests()
	require.Len(t, requests, 3)
	assert.NotEmpty(t, requests[0].Tools)
	assert.NotEmpty(t, requests[1].Tools)
	assert.Empty(t, requests[2].Tools, "last round is offered no tools")
	assert.Equal(t, 3, transcript.Len())
}

func TestAgent_Respond_ModelFailure(t *testing.T) {
	boom := errors.New("quota exceeded")
	model := mock.New(mock.Fail(boom))

	var failed error
	a, err := New("Writer", WithModel(model), WithHooks(Hooks{
		OnGenerationFailed: func(ctx context.Context, agent string, req *provider.GenerateRequest, err error) {
			failed = err
		},
	}))
	require.NoError(t, err)

	_, err = a.Respond(context.Background(), seededTranscript("task"))
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, failed, boom)
}

func TestAgent_Respond_CanceledContext(t *testing.T) {
	model := mock.New(mock.Text("never sent"))
	a, err := New("Writer", WithModel(model))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = a.Respond(ctx, seededTranscript("task"))
	assert.ErrorIs(t, err, types.ErrContextCanceled)
	assert.Empty(t, model.Requests())
}

func TestAgent_BuildMessages(t *testing.T) {
	a, err := New("ClassificationAgent", WithModel(mock.New()))
	require.NoError(t, err)

	turns := []types.Turn{
		types.TaskTurn("STARBUCKS PARIS 08/03"),
		types.MessageTurn("ResearchAgent", "a coffee chain"),
		types.ToolTurn("ClassificationAgent", types.ToolCall{ID: "1", Name: "get_available_categories"}, types.ToolResult{ToolCallID: "1", Content: "{}"}),
		types.MessageTurn("ClassificationAgent", "FOOD"),
	}

	messages := a.BuildMessages(turns)
	require.Len(t, messages, 3)

	assert.Equal(t, types.RoleUser, messages[0].Role)
	assert.Equal(t, "STARBUCKS PARIS 08/03", messages[0].Content)
	assert.Equal(t, types.RoleUser, messages[1].Role)
	assert.Equal(t, "ResearchAgent: a coffee chain", messages[1].Content)
	assert.Equal(t, types.RoleAssistant, messages[2].Role)
	assert.Equal(t, "FOOD", messages[2].Content)
}
