package tavily

import (
	"net/http"
	"time"
)

// ClientOption represents an option for configuring the Tavily client
type ClientOption func(*ClientConfig)

// ClientConfig holds the configuration for the Tavily client
type ClientConfig struct {
	APIKey        string
	BaseURL       string
	SearchDepth   string
	Timeout       time.Duration
	RetryAttempts int
	RetryDelay    time.Duration
	HTTPClient    *http.Client
	UserAgent     string
}

// DefaultConfig returns the configuration used when no option overrides it
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:       "https://api.tavily.com",
		SearchDepth:   "advanced",
		Timeout:       20 * time.Second,
		RetryAttempts: 2,
		RetryDelay:    500 * time.Millisecond,
		UserAgent:     "categorizer/1.0",
	}
}

func WithAPIKey(apiKey string) ClientOption {
	return func(c *ClientConfig) {
		c.APIKey = apiKey
	}
}

func WithBaseURL(baseURL string) ClientOption {
	return func(c *ClientConfig) {
		c.BaseURL = baseURL
	}
}

// WithSearchDepth sets "basic" or "advanced"
func WithSearchDepth(depth string) ClientOption {
	return func(c *ClientConfig) {
		c.SearchDepth = depth
	}
}

func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithRetryAttempts sets how many extra attempts follow a retryable failure
func WithRetryAttempts(attempts int) ClientOption {
	return func(c *ClientConfig) {
		c.RetryAttempts = attempts
	}
}

func WithRetryDelay(delay time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.RetryDelay = delay
	}
}

func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *ClientConfig) {
		c.HTTPClient = client
	}
}
