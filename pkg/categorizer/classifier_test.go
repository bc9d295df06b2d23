package categorizer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider/mock"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/flowbaker/categorizer/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type teamScript struct {
	research       mock.Responder
	classification mock.Responder
	formatting     mock.Responder
}

// teamModel plays the three roles: tool-using roles call their tool first and
// answer once the tool result is in
func teamModel(script teamScript) *mock.Model {
	return mock.NewRouted(func(req provider.GenerateRequest) mock.Responder {
		last := req.Messages[len(req.Messages)-1]
		toolAnswered := len(last.ToolResults) > 0

		switch req.System {
		case researchPrompt:
			if !toolAnswered && len(req.Tools) > 0 {
				return mock.CallTool(WebSearchToolName, map[string]any{"query": req.Messages[0].Content})
			}
			return script.research
		case classificationPrompt:
			if !toolAnswered && len(req.Tools) > 0 {
				return mock.CallTool(TaxonomyToolName, nil)
			}
			return script.classification
		case formattingPrompt:
			return script.formatting
		}

		return nil
	})
}

func newTestClassifier(t *testing.T, model provider.LanguageModel, searcher search.Searcher, mutate func(*AgenticConfig), opts ...AgenticOption) *AgenticClassifier {
	t.Helper()

	config := DefaultAgenticConfig()
	if mutate != nil {
		mutate(&config)
	}

	c, err := NewAgenticClassifier(model, searcher, config, opts...)
	require.NoError(t, err)
	return c
}

func speakers(turns []types.Turn, kind types.TurnKind) []string {
	var out []string
	for _, turn := range turns {
		if turn.Kind == kind {
			out = append(out, turn.Speaker)
		}
	}
	return out
}

func TestAgenticClassifier_CoffeeShop(t *testing.T) {
	searcher := &fakeSearcher{respond: coffeeShopResults}
	model := teamModel(teamScript{
		research:       mock.Text("Based on my research, this appears to be a coffee shop chain."),
		classification: mock.Text("Based on the research showing this is a coffee shop, I recommend the FOOD category."),
		formatting:     mock.Text(`{"category": "FOOD"}`),
	})

	c := newTestClassifier(t, model, searcher, nil)
	assert.Equal(t, ModeAgentic, c.Mode())

	outcome, err := c.Classify(context.Background(), "STARBUCKS PARIS 08/03")
	require.NoError(t, err)

	assert.Equal(t, Food, outcome.Category)
	assert.Equal(t, ConfidenceExtracted, outcome.Confidence)
	assert.False(t, outcome.Fallback)
	assert.NotEmpty(t, outcome.RunID)

	assert.Equal(t,
		[]string{ResearchAgent, ClassificationAgent, FormattingAgent, ResearchAgent, ClassificationAgent, FormattingAgent},
		speakers(outcome.Turns, types.TurnKindMessage))
	assert.Equal(t,
		[]string{WebSearchToolName, TaxonomyToolName, WebSearchToolName, TaxonomyToolName},
		speakers(outcome.Turns, types.TurnKindTool))

	assert.Len(t, outcome.Conversation, 11)
	assert.Equal(t, Message{Agent: types.SpeakerUser, Content: "STARBUCKS PARIS 08/03"}, outcome.Conversation[0])

	require.NotEmpty(t, searcher.calls)
	assert.Equal(t, "STARBUCKS PARIS 08/03", searcher.calls[0].Query)
}

func TestAgenticClassifier_SearchAlwaysFails(t *testing.T) {
	tests := []struct {
		name       string
		formatting mock.Responder
		category   Category
		confidence float64
	}{
		{
			name:       "formatting encodes OTHER",
			formatting: mock.Text(`{"category": "OTHER"}`),
			category:   Other,
			confidence: ConfidenceExtracted,
		},
		{
			name:       "formatting also fails",
			formatting: mock.Text("I cannot determine a category."),
			category:   Other,
			confidence: ConfidenceFallback,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{respond: func(string, int) (search.Response, error) {
				return search.Response{}, errors.New("search provider unreachable")
			}}
			model := teamModel(teamScript{
				research:       mock.Text("No reliable information was found about this merchant."),
				classification: mock.Text("The research is inconclusive, I recommend the OTHER category."),
				formatting:     tt.formatting,
			})

			outcome, err := newTestClassifier(t, model, searcher, nil).Classify(context.Background(), "XJ-4471 PAYMENT")
			require.NoError(t, err)

			assert.Equal(t, tt.category, outcome.Category)
			assert.Equal(t, tt.confidence, outcome.Confidence)

			for _, turn := range outcome.Turns {
				if turn.IsTool() && turn.Speaker == WebSearchToolName {
					assert.True(t, turn.IsError)
					assert.Contains(t, turn.Content, "search provider unreachable")
				}
			}
		})
	}
}

func TestAgenticClassifier_ModelFailureFallsBack(t *testing.T) {
	model := teamModel(teamScript{
		research:       mock.Text("Based on my research, this appears to be a pharmacy."),
		classification: mock.Fail(errors.New("quota exceeded")),
		formatting:     mock.Text(`{"category": "PHARMACY"}`),
	})

	outcome, err := newTestClassifier(t, model, &fakeSearcher{respond: coffeeShopResults}, nil).
		Classify(context.Background(), "PHARMACIE DU CENTRE")
	require.NoError(t, err)

	assert.Equal(t, Other, outcome.Category)
	assert.Equal(t, ConfidenceFallback, outcome.Confidence)
	assert.True(t, outcome.Fallback)

	// task, research tool call, research answer, classification tool call
	assert.Equal(t, []string{ResearchAgent}, speakers(outcome.Turns, types.TurnKindMessage))
	assert.Len(t, outcome.Conversation, 4)
}

func TestAgenticClassifier_Cancellation(t *testing.T) {
	t.Run("canceled before start", func(t *testing.T) {
		model := teamModel(teamScript{
			research:       mock.Text("unused"),
			classification: mock.Text("unused"),
			formatting:     mock.Text(`{"category": "FOOD"}`),
		})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		outcome, err := newTestClassifier(t, model, &fakeSearcher{respond: coffeeShopResults}, nil).Classify(ctx, "STARBUCKS")
		require.NoError(t, err)

		assert.Equal(t, Other, outcome.Category)
		assert.Equal(t, ConfidenceFallback, outcome.Confidence)
		assert.Len(t, outcome.Conversation, 1)
		assert.Empty(t, model.Requests())
	})

	t.Run("run timeout", func(t *testing.T) {
		blocking := func(ctx context.Context, req provider.GenerateRequest) (*types.GenerateResponse, error) {
			<-ctx.Done()
			return nil, ctx.Err()
		}
		model := mock.NewRouted(func(req provider.GenerateRequest) mock.Responder {
			return blocking
		})

		c := newTestClassifier(t, model, &fakeSearcher{respond: coffeeShopResults}, nil, WithRunTimeout(20*time.Millisecond))

		outcome, err := c.Classify(context.Background(), "STARBUCKS")
		require.NoError(t, err)
		assert.Equal(t, Other, outcome.Category)
		assert.True(t, outcome.Fallback)
	})
}

func TestAgenticClassifier_StopAfterFormat(t *testing.T) {
	model := teamModel(teamScript{
		research:       mock.Text("Based on my research, this appears to be a taxi company."),
		classification: mock.Text("I recommend the TAXI category."),
		formatting:     mock.Text(`{"category": "TAXI"}`),
	})

	c := newTestClassifier(t, model, &fakeSearcher{respond: coffeeShopResults}, func(config *AgenticConfig) {
		config.StopAfterFormat = true
	})

	outcome, err := c.Classify(context.Background(), "G7 TAXI PARIS")
	require.NoError(t, err)

	assert.Equal(t, Taxi, outcome.Category)
	assert.Equal(t, []string{ResearchAgent, ClassificationAgent, FormattingAgent}, speakers(outcome.Turns, types.TurnKindMessage))
}

func TestAgenticClassifier_RejectsInvalidDescription(t *testing.T) {
	model := mock.New()
	c := newTestClassifier(t, model, &fakeSearcher{respond: coffeeShopResults}, nil)

	_, err := c.Classify(context.Background(), "")
	assert.ErrorIs(t, err, ErrInvalidDescription)
	assert.Empty(t, model.Requests())
}

func TestAgenticClassifier_RequestShape(t *testing.T) {
	model := teamModel(teamScript{
		research:       mock.Text("a bakery"),
		classification: mock.Text("FOOD"),
		formatting:     mock.Text(`{"category": "FOOD"}`),
	})

	c := newTestClassifier(t, model, &fakeSearcher{respond: coffeeShopResults}, func(config *AgenticConfig) {
		config.MaxTurns = 3
	})

	_, err := c.Classify(context.Background(), "BOULANGERIE PAUL")
	require.NoError(t, err)

	for _, req := range model.Requests() {
		require.NotNil(t, req.Temperature)
		assert.Equal(t, float32(0), *req.Temperature)

		switch req.System {
		case formattingPrompt:
			assert.Equal(t, 30, req.MaxTokens)
			assert.Empty(t, req.Tools)
		case researchPrompt:
			assert.Equal(t, 300, req.MaxTokens)
		}
	}
}
