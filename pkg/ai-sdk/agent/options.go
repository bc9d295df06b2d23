package agent

import (
	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/tool"
)

type Option func(*Agent)

func WithModel(m provider.LanguageModel) Option {
	return func(a *Agent) {
		a.Model = m
	}
}

func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.SystemPrompt = prompt
	}
}

// WithMaxToolRounds caps how many times a single turn may go back to its tools
func WithMaxToolRounds(rounds int) Option {
	return func(a *Agent) {
		a.MaxToolRounds = rounds
	}
}

func WithMaxTokens(tokens int) Option {
	return func(a *Agent) {
		a.MaxTokens = tokens
	}
}

func WithTemperature(temperature float32) Option {
	return func(a *Agent) {
		a.Temperature = provider.Float32(temperature)
	}
}

func WithTools(tools ...tool.Tool) Option {
	return func(a *Agent) {
		a.Tools = append(a.Tools, tools...)
	}
}

func WithHooks(hooks Hooks) Option {
	return func(a *Agent) {
		a.hooks = hooks
	}
}
