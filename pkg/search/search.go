// Package search models web search results independently of the provider that
// produced them.
package search

import (
	"context"
	"errors"
	"net/url"
	"strings"
)

var (
	// ErrNoResults is returned when a provider answered but found nothing
	ErrNoResults = errors.New("search returned no results")

	// ErrEmptyQuery is returned for a blank query
	ErrEmptyQuery = errors.New("search query is empty")
)

const DefaultMaxResults = 3

type Result struct {
	Title      string  `json:"title"`
	Snippet    string  `json:"snippet"`
	SourceURL  string  `json:"url"`
	Score      float64 `json:"score,omitempty"`
	RawContent string  `json:"-"`
}

// Host returns the lowercased host of the result url
func (r Result) Host() string {
	return Host(r.SourceURL)
}

type Response struct {
	Query   string   `json:"query"`
	Answer  string   `json:"answer,omitempty"`
	Results []Result `json:"results"`
}

// Searcher is implemented by web search providers. Implementations must be safe
// for concurrent use.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) (Response, error)
}

func Host(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return ""
	}

	return strings.ToLower(u.Hostname())
}

// Prioritize keeps the provider's first hit in front, moves results from the
// preferred hosts right behind it and leaves the rest in provider order. A
// preferred host also matches its subdomains.
func Prioritize(results []Result, preferredHosts []string) []Result {
	if len(results) <= 1 || len(preferredHosts) == 0 {
		out := make([]Result, len(results))
		copy(out, results)
		return out
	}

	out := make([]Result, 0, len(results))
	out = append(out, results[0])

	var rest []Result
	for _, result := range results[1:] {
		if IsPreferred(result.Host(), preferredHosts) {
			out = append(out, result)
			continue
		}
		rest = append(rest, result)
	}

	return append(out, rest...)
}

func IsPreferred(host string, preferredHosts []string) bool {
	if host == "" {
		return false
	}

	for _, preferred := range preferredHosts {
		preferred = strings.ToLower(strings.TrimSpace(preferred))
		if preferred == "" {
			continue
		}

		if host == preferred || strings.HasSuffix(host, "."+preferred) {
			return true
		}
	}

	return false
}
