package categorizer

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flowbaker/categorizer/pkg/ai-sdk/tool"
	"github.com/flowbaker/categorizer/pkg/search"
)

const (
	WebSearchToolName = "web_search"
	TaxonomyToolName  = "get_available_categories"
	maxSearchResults  = 10
	maxSnippetRunes   = 1000
)

var DefaultPreferredDomains = []string{
	"www.societe.com",
	"annuaire-entreprises.data.gouv.fr",
}

var webSearchSchema = tool.ObjectSchema(map[string]any{
	"query": map[string]any{
		"type":        "string",
		"description": "What to search for, usually the merchant or company name from the transaction",
	},
	"max_results": map[string]any{
		"type":        "integer",
		"description": "Number of results to return, defaults to 3",
	},
}, "query")

type webSearchArgs struct {
	Query      string `json:"query"`
	MaxResults int    `json:"max_results"`
}

type webSearchOutput struct {
	Query   string            `json:"query"`
	Answer  string            `json:"answer,omitempty"`
	Results []webSearchResult `json:"results"`
}

type webSearchResult struct {
	Title   string `json:"title"`
	Snippet string `json:"snippet"`
	URL     string `json:"url"`
}

// WebSearchConfig tunes the web search tool
type WebSearchConfig struct {
	MaxResults       int
	PreferredDomains []string
}

// NewWebSearchTool exposes a searcher to agents. Results keep the provider's
// first hit in front followed by company registry pages.
func NewWebSearchTool(searcher search.Searcher, config WebSearchConfig) tool.Tool {
	defaultMax := config.MaxResults
	if defaultMax <= 0 {
		defaultMax = search.DefaultMaxResults
	}

	preferred := config.PreferredDomains
	if preferred == nil {
		preferred = DefaultPreferredDomains
	}

	description := fmt.Sprintf("Search the web for the business behind a transaction. "+
		"Focus on the first result, then on the company registries (%s), to find the main activity of the company.", strings.Join(preferred, ", "))

	return tool.Define(WebSearchToolName, description, webSearchSchema, func(ctx context.Context, argsJSON string) (string, error) {
		var args webSearchArgs
		if err := json.Unmarshal([]byte(argsJSON), &args); err != nil {
			return "", fmt.Errorf("invalid arguments: %w", err)
		}

		limit := args.MaxResults
		if limit <= 0 {
			limit = defaultMax
		}
		if limit > maxSearchResults {
			limit = maxSearchResults
		}

		resp, err := searcher.Search(ctx, args.Query, limit)
		if err != nil {
			return "", fmt.Errorf("web search failed: %w", err)
		}

		output := webSearchOutput{
			Query:   resp.Query,
			Answer:  resp.Answer,
			Results: make([]webSearchResult, 0, len(resp.Results)),
		}

		for _, r := range search.Prioritize(resp.Results, preferred) {
			snippet := r.Snippet
			if snippet == "" {
				snippet = truncateRunes(r.RawContent, maxSnippetRunes)
			}

			output.Results = append(output.Results, webSearchResult{
				Title:   r.Title,
				Snippet: snippet,
				URL:     r.SourceURL,
			})
		}

		encoded, err := json.Marshal(output)
		if err != nil {
			return "", fmt.Errorf("failed to encode search results: %w", err)
		}

		return string(encoded), nil
	})
}

type taxonomyOutput struct {
	Categories []TaxonomyEntry `json:"categories"`
}

// NewTaxonomyTool lists every category with its description, in declaration order
func NewTaxonomyTool() tool.Tool {
	return tool.Define(TaxonomyToolName, "Get the available transaction categories and what each one covers",
		tool.ObjectSchema(map[string]any{}),
		func(ctx context.Context, argsJSON string) (string, error) {
			encoded, err := json.Marshal(taxonomyOutput{Categories: Entries()})
			if err != nil {
				return "", fmt.Errorf("failed to encode categories: %w", err)
			}
			return string(encoded), nil
		})
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
