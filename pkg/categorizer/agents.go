package categorizer

import (
	"context"
	"fmt"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/agent"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/team"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/types"
	"github.com/flowbaker/categorizer/pkg/search"
	"github.com/rs/zerolog"
)

// Speakers of the classification team, in turn order
const (
	ResearchAgent       = "ResearchAgent"
	ClassificationAgent = "ClassificationAgent"
	FormattingAgent     = "FormattingAgent"
)

const researchPrompt = `You are a research assistant specialized in browsing the internet.
You are given the description of a bank transaction and must find the main activity of the company linked to the expense.
Use the web_search tool. Focus on the first result, then on https://www.societe.com/, then on https://annuaire-entreprises.data.gouv.fr/.

Always explain what you found before handing over to the next agent.
Example: "Based on my research, this appears to be a pub/restaurant in Bordeaux..."
If the search fails or returns nothing useful, say that no reliable information was found about this merchant.`

const classificationPrompt = `You are an assistant that turns web research about an expense into a budget category.
Your job is to:
1. Review the research results from the previous agent
2. Get the list of available categories with the get_available_categories tool, never rely on categories you remember
3. Select exactly one category identifier from that list
4. State the identifier and justify it in one sentence before handing over to the next agent

Example: "Based on the research showing this is a {business type}, I recommend the {category} category because..."
When the research is inconclusive, recommend OTHER.`

const formattingPrompt = `You are a formatting agent. Your job is to:
1. Review the category recommended by the previous agent
2. Output it as JSON with a single field "category", using the identifier exactly as recommended
3. Output only valid JSON in this format: {"category": "CATEGORY_NAME"}

Do not add any other text or explanation.`

// AgenticConfig holds the tuning of the agent team
type AgenticConfig struct {
	MaxTurns        int
	MaxToolRounds   int
	AgentMaxTokens  int
	FormatMaxTokens int
	Temperature     *float32
	StopAfterFormat bool
	Search          WebSearchConfig
}

func DefaultAgenticConfig() AgenticConfig {
	return AgenticConfig{
		MaxTurns:        team.DefaultMaxTurns,
		MaxToolRounds:   agent.DefaultMaxToolRounds,
		AgentMaxTokens:  300,
		FormatMaxTokens: 30,
		Temperature:     provider.Float32(0),
		Search: WebSearchConfig{
			MaxResults:       search.DefaultMaxResults,
			PreferredDomains: DefaultPreferredDomains,
		},
	}
}

// NewTeam wires the research, classification and formatting agents into a
// round-robin team sharing one model
func NewTeam(model provider.LanguageModel, searcher search.Searcher, config AgenticConfig) (*team.RoundRobin, error) {
	hooks := agentHooks()

	common := []agent.Option{
		agent.WithModel(model),
		agent.WithMaxToolRounds(config.MaxToolRounds),
		agent.WithHooks(hooks),
	}
	if config.Temperature != nil {
		common = append(common, agent.WithTemperature(*config.Temperature))
	}

	withCommon := func(opts ...agent.Option) []agent.Option {
		return append(append([]agent.Option{}, common...), opts...)
	}

	researcher, err := agent.New(ResearchAgent, withCommon(
		agent.WithSystemPrompt(researchPrompt),
		agent.WithTools(NewWebSearchTool(searcher, config.Search)),
		agent.WithMaxTokens(config.AgentMaxTokens),
	)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create research agent: %w", err)
	}

	classifier, err := agent.New(ClassificationAgent, withCommon(
		agent.WithSystemPrompt(classificationPrompt),
		agent.WithTools(NewTaxonomyTool()),
		agent.WithMaxTokens(config.AgentMaxTokens),
	)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create classification agent: %w", err)
	}

	formatter, err := agent.New(FormattingAgent, withCommon(
		agent.WithSystemPrompt(formattingPrompt),
		agent.WithMaxTokens(config.FormatMaxTokens),
	)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create formatting agent: %w", err)
	}

	opts := []team.Option{
		team.WithParticipants(researcher, classifier, formatter),
		team.WithMaxTurns(config.MaxTurns),
		team.WithHooks(teamHooks()),
	}

	if config.StopAfterFormat {
		opts = append(opts, team.WithTermination(team.SpeakerSaid(FormattingAgent, func(content string) bool {
			_, err := ParseFormattingRecord(content)
			return err == nil
		})))
	}

	return team.NewRoundRobin(opts...)
}

func agentHooks() agent.Hooks {
	return agent.Hooks{
		OnGenerationFailed: func(ctx context.Context, name string, req *provider.GenerateRequest, err error) {
			zerolog.Ctx(ctx).Error().Err(err).Str("agent", name).Msg("Model call failed")
		},
		OnToolCallComplete: func(ctx context.Context, name string, toolCall types.ToolCall, toolResult types.ToolResult) {
			event := zerolog.Ctx(ctx).Debug()
			if toolResult.IsError {
				event = zerolog.Ctx(ctx).Warn()
			}

			event.
				Str("agent", name).
				Str("tool", toolCall.Name).
				Bool("is_error", toolResult.IsError).
				Msg("Tool call completed")
		},
	}
}

func teamHooks() team.Hooks {
	return team.Hooks{
		OnTurnComplete: func(ctx context.Context, turn int, recorded types.Turn) {
			zerolog.Ctx(ctx).Debug().
				Int("turn", turn+1).
				Str("speaker", recorded.Speaker).
				Str("content", recorded.Content).
				Msg("Agent turn recorded")
		},
	}
}
