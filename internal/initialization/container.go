package initialization

import (
	"context"
	"fmt"

	"github.com/flowbaker/categorizer/internal/cache"
	"github.com/flowbaker/categorizer/internal/config"
	"github.com/flowbaker/categorizer/internal/controllers"
	"github.com/flowbaker/categorizer/internal/managers"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/memory"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/memory/inmemory"
	redismemory "github.com/flowbaker/categorizer/pkg/ai-sdk/memory/redis"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider/anthropic"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider/gemini"
	"github.com/flowbaker/categorizer/pkg/ai-sdk/provider/openai"
	"github.com/flowbaker/categorizer/pkg/categorizer"
	"github.com/flowbaker/categorizer/pkg/search/tavily"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

const historyKeyPrefix = "categorizer"

// Container owns the long lived dependencies built from the configuration
type Container struct {
	Config                *config.Config
	Model                 provider.LanguageModel
	ClassificationManager managers.ClassificationManager
	CategoryController    *controllers.CategoryController

	redisClient *redis.Client
}

func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	log.Info().Msg("Building categorizer dependencies")

	model, err := NewLanguageModel(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}

	c := &Container{
		Config: cfg,
		Model:  model,
	}

	if cfg.Cache.Driver == config.DriverRedis || cfg.History.Driver == config.DriverRedis {
		c.redisClient, err = cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			return nil, err
		}
	}

	classifiers := []categorizer.Classifier{categorizer.NewDirectClassifier(model)}

	// The agentic pipeline needs a search credential; direct only deployments run without one
	if cfg.Search.TavilyAPIKey != "" {
		agentic, err := c.newAgenticClassifier(model)
		if err != nil {
			c.Close()
			return nil, err
		}
		classifiers = append(classifiers, agentic)
	}

	manager, err := managers.NewClassificationManager(managers.ClassificationManagerDependencies{
		Classifiers:      classifiers,
		DefaultMode:      categorizer.Mode(cfg.Pipeline.Mode),
		Cache:            c.newCache(),
		CacheTTL:         cfg.Cache.TTL,
		History:          c.newHistory(),
		BatchConcurrency: cfg.Pipeline.BatchConcurrency,
	})
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to create classification manager: %w", err)
	}

	c.ClassificationManager = manager
	c.CategoryController = controllers.NewCategoryController(controllers.CategoryControllerDependencies{
		ClassificationManager: manager,
	})

	log.Info().
		Str("model", model.ID()).
		Str("mode", cfg.Pipeline.Mode).
		Str("cache", cfg.Cache.Driver).
		Str("history", cfg.History.Driver).
		Msg("Categorizer dependencies ready")

	return c, nil
}

// NewLanguageModel builds the chat model of the configured provider
func NewLanguageModel(ctx context.Context, cfg config.ModelConfig) (provider.LanguageModel, error) {
	temperature := provider.Float32(cfg.Temperature)

	switch cfg.Provider {
	case config.ProviderAzure:
		model := openai.NewAzure(openai.AzureConfig{
			Endpoint:   cfg.AzureEndpoint,
			APIKey:     cfg.AzureAPIKey,
			Deployment: cfg.AzureDeployment,
			APIVersion: cfg.AzureAPIVersion,
		})
		model.RequestSettings.Temperature = temperature
		return model, nil
	case config.ProviderOpenAI:
		model := openai.New(cfg.OpenAIAPIKey, cfg.ModelName())
		model.RequestSettings.Temperature = temperature
		return model, nil
	case config.ProviderAnthropic:
		return anthropic.NewWithConfig(anthropic.Config{
			APIKey:      cfg.AnthropicAPIKey,
			Model:       cfg.ModelName(),
			Temperature: temperature,
		}), nil
	case config.ProviderGemini:
		model, err := gemini.New(ctx, cfg.GoogleAPIKey, cfg.ModelName())
		if err != nil {
			return nil, err
		}
		model.RequestSettings.Temperature = temperature
		return model, nil
	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

func (c *Container) newAgenticClassifier(model provider.LanguageModel) (*categorizer.AgenticClassifier, error) {
	searchCfg := c.Config.Search
	pipelineCfg := c.Config.Pipeline

	searcher := tavily.NewClient(
		tavily.WithAPIKey(searchCfg.TavilyAPIKey),
		tavily.WithBaseURL(searchCfg.BaseURL),
		tavily.WithTimeout(searchCfg.Timeout),
		tavily.WithRetryAttempts(searchCfg.RetryAttempts),
		tavily.WithRetryDelay(searchCfg.RetryDelay),
	)

	agenticCfg := categorizer.DefaultAgenticConfig()
	agenticCfg.MaxTurns = pipelineCfg.MaxTurns
	agenticCfg.StopAfterFormat = pipelineCfg.StopAfterFormat
	agenticCfg.Temperature = provider.Float32(c.Config.Model.Temperature)
	agenticCfg.Search.PreferredDomains = searchCfg.PreferredDomains

	if pipelineCfg.MaxToolRounds > 0 {
		agenticCfg.MaxToolRounds = pipelineCfg.MaxToolRounds
	}
	if pipelineCfg.AgentMaxTokens > 0 {
		agenticCfg.AgentMaxTokens = pipelineCfg.AgentMaxTokens
	}
	if pipelineCfg.FormatMaxTokens > 0 {
		agenticCfg.FormatMaxTokens = pipelineCfg.FormatMaxTokens
	}
	if searchCfg.MaxResults > 0 {
		agenticCfg.Search.MaxResults = searchCfg.MaxResults
	}

	return categorizer.NewAgenticClassifier(model, searcher, agenticCfg,
		categorizer.WithRunTimeout(pipelineCfg.Timeout),
	)
}

func (c *Container) newCache() cache.Store {
	switch c.Config.Cache.Driver {
	case config.DriverMemory:
		return cache.NewMemory(c.Config.Cache.Capacity)
	case config.DriverRedis:
		return cache.NewRedis(c.redisClient)
	default:
		return cache.NoOp{}
	}
}

func (c *Container) newHistory() memory.Store {
	switch c.Config.History.Driver {
	case config.DriverMemory:
		return inmemory.New(c.Config.History.Capacity)
	case config.DriverRedis:
		return redismemory.New(c.redisClient, redismemory.Opts{
			KeyPrefix: historyKeyPrefix,
			TTL:       c.Config.History.TTL,
		})
	default:
		return &memory.NoOpMemoryStore{}
	}
}

func (c *Container) Close() {
	if c.redisClient == nil {
		return
	}

	if err := c.redisClient.Close(); err != nil {
		log.Warn().Err(err).Msg("Failed to close redis client")
	}
}
