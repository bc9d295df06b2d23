// Package tavily is a client for the Tavily web search API.
package tavily

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/flowbaker/categorizer/pkg/search"
	"github.com/rs/zerolog/log"
)

const maxResultsLimit = 20

type searchRequest struct {
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
	MaxResults        int    `json:"max_results"`
}

type searchResponse struct {
	Query        string         `json:"query"`
	Answer       string         `json:"answer"`
	Results      []searchResult `json:"results"`
	ResponseTime float64        `json:"response_time"`
}

type searchResult struct {
	Title      string  `json:"title"`
	URL        string  `json:"url"`
	Content    string  `json:"content"`
	RawContent string  `json:"raw_content"`
	Score      float64 `json:"score"`
}

// Client implements search.Searcher on top of the Tavily REST API
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
}

var _ search.Searcher = (*Client)(nil)

// NewClient creates a new Tavily client with the given options
func NewClient(options ...ClientOption) *Client {
	config := DefaultConfig()

	for _, option := range options {
		option(config)
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: config.Timeout,
		}
	}

	return &Client{
		config:     config,
		httpClient: httpClient,
	}
}

// Search runs an advanced search and asks for the inline answer alongside the
// raw results
func (c *Client) Search(ctx context.Context, query string, maxResults int) (search.Response, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return search.Response{}, search.ErrEmptyQuery
	}

	if maxResults <= 0 {
		maxResults = search.DefaultMaxResults
	}
	if maxResults > maxResultsLimit {
		maxResults = maxResultsLimit
	}

	body := searchRequest{
		Query:             query,
		SearchDepth:       c.config.SearchDepth,
		IncludeAnswer:     true,
		IncludeRawContent: true,
		MaxResults:        maxResults,
	}

	resp, err := c.doRequest(ctx, http.MethodPost, "/search", body)
	if err != nil {
		return search.Response{}, err
	}

	var decoded searchResponse
	if err := c.handleResponse(resp, &decoded); err != nil {
		return search.Response{}, err
	}

	if len(decoded.Results) == 0 {
		return search.Response{Query: query, Answer: decoded.Answer}, fmt.Errorf("%w: %q", search.ErrNoResults, query)
	}

	response := search.Response{
		Query:   query,
		Answer:  decoded.Answer,
		Results: make([]search.Result, 0, len(decoded.Results)),
	}

	for _, r := range decoded.Results {
		response.Results = append(response.Results, search.Result{
			Title:      r.Title,
			Snippet:    r.Content,
			SourceURL:  r.URL,
			Score:      r.Score,
			RawContent: r.RawContent,
		})
	}

	log.Debug().
		Str("query", query).
		Int("results", len(response.Results)).
		Float64("response_time", decoded.ResponseTime).
		Msg("Tavily search completed")

	return response, nil
}

// doRequest sends the request, retrying transport failures, rate limiting and
// server errors. Other client errors are returned as is.
func (c *Client) doRequest(ctx context.Context, method, path string, body any) (*http.Response, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + path

	var lastErr error
	for attempt := 0; attempt <= c.config.RetryAttempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("tavily request canceled: %w", ctx.Err())
			case <-time.After(c.config.RetryDelay):
			}

			log.Debug().Int("attempt", attempt).Err(lastErr).Msg("Retrying Tavily request")
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(bodyBytes))
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}

		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.config.APIKey)
		if c.config.UserAgent != "" {
			req.Header.Set("User-Agent", c.config.UserAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("tavily request canceled: %w", ctx.Err())
			}
			lastErr = err
			continue
		}

		if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
			apiErr := readError(resp)

			log.Warn().
				Int("status_code", apiErr.StatusCode).
				Str("message", apiErr.Message).
				Msg("Tavily server error")

			lastErr = apiErr
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("tavily request failed after %d retries: %w", c.config.RetryAttempts, lastErr)
}

// handleResponse processes the HTTP response and unmarshals JSON if successful
func (c *Client) handleResponse(resp *http.Response, result any) error {
	if resp.StatusCode >= 400 {
		return readError(resp)
	}

	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if err := json.Unmarshal(body, result); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return nil
}

func readError(resp *http.Response) *Error {
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	apiErr := &Error{
		StatusCode: resp.StatusCode,
		Message:    fmt.Sprintf("HTTP %d", resp.StatusCode),
		Body:       string(body),
	}

	// Tavily reports errors as {"detail": {"error": "..."}} or {"detail": "..."}
	var errorResponse struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}

	if json.Unmarshal(body, &errorResponse) != nil {
		return apiErr
	}

	if errorResponse.Error != "" {
		apiErr.Message = errorResponse.Error
		return apiErr
	}

	var nested struct {
		Error string `json:"error"`
	}
	var plain string

	switch {
	case json.Unmarshal(errorResponse.Detail, &nested) == nil && nested.Error != "":
		apiErr.Message = nested.Error
	case json.Unmarshal(errorResponse.Detail, &plain) == nil && plain != "":
		apiErr.Message = plain
	}

	return apiErr
}
