package categorizer

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/flowbaker/categorizer/pkg/search"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSearcher struct {
	calls   []fakeSearchCall
	respond func(query string, maxResults int) (search.Response, error)
}

type fakeSearchCall struct {
	Query      string
	MaxResults int
}

func (f *fakeSearcher) Search(ctx context.Context, query string, maxResults int) (search.Response, error) {
	f.calls = append(f.calls, fakeSearchCall{Query: query, MaxResults: maxResults})
	return f.respond(query, maxResults)
}

func coffeeShopResults(query string, maxResults int) (search.Response, error) {
	return search.Response{
		Query:  query,
		Answer: "Starbucks is a chain of coffeehouses.",
		Results: []search.Result{
			{Title: "Starbucks France", Snippet: "Coffee shop chain", SourceURL: "https://www.starbucks.fr"},
			{Title: "Blog", Snippet: "Best lattes in Paris", SourceURL: "https://blog.example.com"},
			{Title: "STARBUCKS COFFEE FRANCE", Snippet: "Restauration rapide", SourceURL: "https://www.societe.com/societe/starbucks"},
			{Title: "Raw only", RawContent: "Full page text", SourceURL: "https://annuaire-entreprises.data.gouv.fr/entreprise/x"},
		},
	}, nil
}

func TestWebSearchTool(t *testing.T) {
	searcher := &fakeSearcher{respond: coffeeShopResults}
	webSearch := NewWebSearchTool(searcher, WebSearchConfig{})

	assert.Equal(t, WebSearchToolName, webSearch.Name())
	assert.Contains(t, webSearch.Description(), "www.societe.com")

	out, err := webSearch.Execute(context.Background(), `{"query": "STARBUCKS PARIS"}`)
	require.NoError(t, err)

	require.Len(t, searcher.calls, 1)
	assert.Equal(t, fakeSearchCall{Query: "STARBUCKS PARIS", MaxResults: search.DefaultMaxResults}, searcher.calls[0])

	var decoded webSearchOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, "Starbucks is a chain of coffeehouses.", decoded.Answer)
	require.Len(t, decoded.Results, 4)
	assert.Equal(t, "https://www.starbucks.fr", decoded.Results[0].URL)
	assert.Equal(t, "https://www.societe.com/societe/starbucks", decoded.Results[1].URL)
	assert.Equal(t, "Full page text", decoded.Results[2].Snippet)
	assert.Equal(t, "https://blog.example.com", decoded.Results[3].URL)
}

func TestWebSearchTool_MaxResults(t *testing.T) {
	tests := []struct {
		name     string
		args     string
		config   WebSearchConfig
		expected int
	}{
		{name: "configured default", args: `{"query": "x"}`, config: WebSearchConfig{MaxResults: 5}, expected: 5},
		{name: "explicit", args: `{"query": "x", "max_results": 2}`, expected: 2},
		{name: "clamped", args: `{"query": "x", "max_results": 50}`, expected: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			searcher := &fakeSearcher{respond: coffeeShopResults}

			_, err := NewWebSearchTool(searcher, tt.config).Execute(context.Background(), tt.args)
			require.NoError(t, err)
			require.Len(t, searcher.calls, 1)
			assert.Equal(t, tt.expected, searcher.calls[0].MaxResults)
		})
	}
}

func TestWebSearchTool_Failures(t *testing.T) {
	boom := errors.New("connection refused")
	searcher := &fakeSearcher{respond: func(string, int) (search.Response, error) {
		return search.Response{}, boom
	}}
	webSearch := NewWebSearchTool(searcher, WebSearchConfig{})

	_, err := webSearch.Execute(context.Background(), `{"query": "x"}`)
	assert.ErrorIs(t, err, boom)

	_, err = webSearch.Execute(context.Background(), `not json`)
	assert.Error(t, err)
}

func TestTaxonomyTool(t *testing.T) {
	taxonomyTool := NewTaxonomyTool()
	assert.Equal(t, TaxonomyToolName, taxonomyTool.Name())

	out, err := taxonomyTool.Execute(context.Background(), `{}`)
	require.NoError(t, err)

	var decoded taxonomyOutput
	require.NoError(t, json.Unmarshal([]byte(out), &decoded))

	assert.Equal(t, Entries(), decoded.Categories)
}
