package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const (
	ProviderAzure     = "azure"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"

	DriverNone   = "none"
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Config holds all service configuration
type Config struct {
	Model    ModelConfig    `mapstructure:"model"`
	Search   SearchConfig   `mapstructure:"search"`
	Pipeline PipelineConfig `mapstructure:"pipeline"`
	Server   ServerConfig   `mapstructure:"server"`
	Cache    CacheConfig    `mapstructure:"cache"`
	History  HistoryConfig  `mapstructure:"history"`
}

type ModelConfig struct {
	Provider        string  `mapstructure:"provider"`
	AzureEndpoint   string  `mapstructure:"azure_endpoint"`
	AzureAPIKey     string  `mapstructure:"azure_api_key"`
	AzureDeployment string  `mapstructure:"azure_deployment"`
	AzureAPIVersion string  `mapstructure:"azure_api_version"`
	OpenAIAPIKey    string  `mapstructure:"openai_api_key"`
	AnthropicAPIKey string  `mapstructure:"anthropic_api_key"`
	GoogleAPIKey    string  `mapstructure:"google_api_key"`
	Name            string  `mapstructure:"name"`
	Temperature     float32 `mapstructure:"temperature"`
}

type SearchConfig struct {
	TavilyAPIKey     string        `mapstructure:"tavily_api_key"`
	BaseURL          string        `mapstructure:"base_url"`
	MaxResults       int           `mapstructure:"max_results"`
	Timeout          time.Duration `mapstructure:"timeout"`
	RetryAttempts    int           `mapstructure:"retry_attempts"`
	RetryDelay       time.Duration `mapstructure:"retry_delay"`
	PreferredDomains []string      `mapstructure:"preferred_domains"`
}

type PipelineConfig struct {
	Mode             string        `mapstructure:"mode"`
	MaxTurns         int           `mapstructure:"max_turns"`
	MaxToolRounds    int           `mapstructure:"max_tool_rounds"`
	Timeout          time.Duration `mapstructure:"timeout"`
	AgentMaxTokens   int           `mapstructure:"agent_max_tokens"`
	FormatMaxTokens  int           `mapstructure:"format_max_tokens"`
	StopAfterFormat  bool          `mapstructure:"stop_after_format"`
	BatchConcurrency int           `mapstructure:"batch_concurrency"`
}

type ServerConfig struct {
	Host        string   `mapstructure:"host"`
	Port        int      `mapstructure:"port"`
	CORSOrigins []string `mapstructure:"cors_origins"`
}

var defaultModelNames = map[string]string{
	ProviderOpenAI:    "gpt-4o",
	ProviderAnthropic: "claude-sonnet-4-5",
	ProviderGemini:    "gemini-2.5-flash",
}

// ModelName returns the configured model or the provider's default. Azure
// routes every request to the deployment, so the name is informational there.
func (m ModelConfig) ModelName() string {
	if m.Name != "" {
		return m.Name
	}
	if m.Provider == ProviderAzure {
		return m.AzureDeployment
	}
	return defaultModelNames[m.Provider]
}

// Address returns host:port for the HTTP listener
func (s ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

type CacheConfig struct {
	Driver   string        `mapstructure:"driver"`
	RedisURL string        `mapstructure:"redis_url"`
	TTL      time.Duration `mapstructure:"ttl"`
	Capacity int           `mapstructure:"capacity"`
}

type HistoryConfig struct {
	Driver   string        `mapstructure:"driver"`
	Capacity int           `mapstructure:"capacity"`
	TTL      time.Duration `mapstructure:"ttl"`
}

var envMappings = map[string]string{
	"model.provider":             "MODEL_PROVIDER",
	"model.azure_endpoint":       "AZURE_OPENAI_ENDPOINT",
	"model.azure_api_key":        "AZURE_OPENAI_API_KEY",
	"model.azure_deployment":     "AZURE_OPENAI_DEPLOYMENT",
	"model.azure_api_version":    "AZURE_OPENAI_API_VERSION",
	"model.openai_api_key":       "OPENAI_API_KEY",
	"model.anthropic_api_key":    "ANTHROPIC_API_KEY",
	"model.google_api_key":       "GOOGLE_API_KEY",
	"model.name":                 "MODEL_NAME",
	"model.temperature":          "MODEL_TEMPERATURE",
	"search.tavily_api_key":      "TAVILY_API_KEY",
	"search.base_url":            "TAVILY_BASE_URL",
	"search.max_results":         "SEARCH_MAX_RESULTS",
	"search.timeout":             "SEARCH_TIMEOUT",
	"search.retry_attempts":      "SEARCH_RETRY_ATTEMPTS",
	"search.retry_delay":         "SEARCH_RETRY_DELAY",
	"search.preferred_domains":   "SEARCH_PREFERRED_DOMAINS",
	"pipeline.mode":              "CLASSIFIER_MODE",
	"pipeline.max_turns":         "PIPELINE_MAX_TURNS",
	"pipeline.max_tool_rounds":   "PIPELINE_MAX_TOOL_ROUNDS",
	"pipeline.timeout":           "PIPELINE_TIMEOUT",
	"pipeline.agent_max_tokens":  "PIPELINE_AGENT_MAX_TOKENS",
	"pipeline.format_max_tokens": "PIPELINE_FORMAT_MAX_TOKENS",
	"pipeline.stop_after_format": "PIPELINE_STOP_AFTER_FORMAT",
	"pipeline.batch_concurrency": "PIPELINE_BATCH_CONCURRENCY",
	"server.host":                "API_HOST",
	"server.port":                "API_PORT",
	"server.cors_origins":        "BACKEND_CORS_ORIGINS",
	"cache.driver":               "CACHE_DRIVER",
	"cache.redis_url":            "REDIS_URL",
	"cache.ttl":                  "CACHE_TTL",
	"cache.capacity":             "CACHE_CAPACITY",
	"history.driver":             "HISTORY_DRIVER",
	"history.capacity":           "HISTORY_CAPACITY",
	"history.ttl":                "HISTORY_TTL",
}

// Load reads configuration from defaults, an optional YAML file and the
// environment, in increasing order of precedence. An empty configFile searches
// the usual locations for categorizer.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	for configKey, envVar := range envMappings {
		if err := v.BindEnv(configKey, envVar); err != nil {
			log.Warn().Err(err).Msgf("Failed to bind environment variable %s for %s", envVar, configKey)
		}
	}

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("categorizer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
		v.AddConfigPath("$HOME/.categorizer")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		log.Debug().Msg("Config file not found, using environment variables and defaults")
	} else {
		log.Info().Msgf("Using config file: %s", v.ConfigFileUsed())
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	log.Debug().
		Str("provider", config.Model.Provider).
		Str("mode", config.Pipeline.Mode).
		Str("cache", config.Cache.Driver).
		Msg("Config loaded")

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("model.provider", ProviderAzure)
	v.SetDefault("model.azure_deployment", "gpt-4")
	v.SetDefault("model.azure_api_version", "2024-02-15-preview")
	v.SetDefault("model.temperature", 0)

	v.SetDefault("search.base_url", "https://api.tavily.com")
	v.SetDefault("search.max_results", 3)
	v.SetDefault("search.timeout", 20*time.Second)
	v.SetDefault("search.retry_attempts", 2)
	v.SetDefault("search.retry_delay", 500*time.Millisecond)
	v.SetDefault("search.preferred_domains", []string{"www.societe.com", "annuaire-entreprises.data.gouv.fr"})

	v.SetDefault("pipeline.mode", "agentic")
	v.SetDefault("pipeline.max_turns", 6)
	v.SetDefault("pipeline.max_tool_rounds", 3)
	v.SetDefault("pipeline.timeout", 90*time.Second)
	v.SetDefault("pipeline.agent_max_tokens", 300)
	v.SetDefault("pipeline.format_max_tokens", 30)
	v.SetDefault("pipeline.stop_after_format", false)
	v.SetDefault("pipeline.batch_concurrency", 4)

	v.SetDefault("server.host", "localhost")
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.cors_origins", []string{
		"http://localhost:5173",
		"http://localhost:5174",
		"http://127.0.0.1:5173",
		"http://127.0.0.1:5174",
		"https://tracking-budget-cti1yf10f-arctusols-projects.vercel.app",
		"https://tracking-budget-ten.vercel.app",
	})

	v.SetDefault("cache.driver", DriverNone)
	v.SetDefault("cache.ttl", 24*time.Hour)
	v.SetDefault("cache.capacity", 10000)

	v.SetDefault("history.driver", DriverMemory)
	v.SetDefault("history.capacity", 500)
	v.SetDefault("history.ttl", 24*time.Hour)
}

// Validate checks that the settings needed by the selected provider, mode and
// backends are present
func (c *Config) Validate() error {
	var missingVars []string
	var problems []string

	switch c.Model.Provider {
	case ProviderAzure:
		if c.Model.AzureEndpoint == "" {
			missingVars = append(missingVars, "AZURE_OPENAI_ENDPOINT")
		}
		if c.Model.AzureAPIKey == "" {
			missingVars = append(missingVars, "AZURE_OPENAI_API_KEY")
		}
		if c.Model.AzureDeployment == "" {
			missingVars = append(missingVars, "AZURE_OPENAI_DEPLOYMENT")
		}
	case ProviderOpenAI:
		if c.Model.OpenAIAPIKey == "" {
			missingVars = append(missingVars, "OPENAI_API_KEY")
		}
	case ProviderAnthropic:
		if c.Model.AnthropicAPIKey == "" {
			missingVars = append(missingVars, "ANTHROPIC_API_KEY")
		}
	case ProviderGemini:
		if c.Model.GoogleAPIKey == "" {
			missingVars = append(missingVars, "GOOGLE_API_KEY")
		}
	default:
		problems = append(problems, fmt.Sprintf("unknown model provider %q", c.Model.Provider))
	}

	switch c.Pipeline.Mode {
	case "agentic":
		if c.Search.TavilyAPIKey == "" {
			missingVars = append(missingVars, "TAVILY_API_KEY")
		}
	case "direct":
	default:
		problems = append(problems, fmt.Sprintf("unknown classifier mode %q", c.Pipeline.Mode))
	}

	if c.Pipeline.MaxTurns <= 0 {
		problems = append(problems, "pipeline.max_turns must be positive")
	}

	if c.Pipeline.BatchConcurrency <= 0 {
		problems = append(problems, "pipeline.batch_concurrency must be positive")
	}

	backends := []struct {
		name   string
		driver string
	}{
		{"cache", c.Cache.Driver},
		{"history", c.History.Driver},
	}

	for _, backend := range backends {
		name, driver := backend.name, backend.driver

		switch driver {
		case DriverNone, DriverMemory:
		case DriverRedis:
			if c.Cache.RedisURL == "" {
				missingVars = append(missingVars, "REDIS_URL")
			}
		default:
			problems = append(problems, fmt.Sprintf("unknown %s driver %q", name, driver))
		}
	}

	if len(missingVars) > 0 {
		problems = append(problems, "missing required environment variables: "+strings.Join(dedupe(missingVars), ", "))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	return nil
}

func dedupe(values []string) []string {
	seen := make(map[string]bool, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	return out
}
