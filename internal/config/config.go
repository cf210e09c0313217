// Package config loads the application configuration from file and
// environment, and initializes the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration. The retry, circuit, and
// cache constants are consolidated here as the single tuning surface.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini     GeminiConfig     `yaml:"gemini" mapstructure:"gemini"`
	Perplexity PerplexityConfig `yaml:"perplexity" mapstructure:"perplexity"`
	Providers  ProvidersConfig  `yaml:"providers" mapstructure:"providers"`
	Retry      RetryConfig      `yaml:"retry" mapstructure:"retry"`
	Circuit    CircuitConfig    `yaml:"circuit" mapstructure:"circuit"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Scheduler  SchedulerConfig  `yaml:"scheduler" mapstructure:"scheduler"`
	Knowledge  KnowledgeConfig  `yaml:"knowledge" mapstructure:"knowledge"`
	Report     ReportConfig     `yaml:"report" mapstructure:"report"`
	Pricing    PricingConfig    `yaml:"pricing" mapstructure:"pricing"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the run-history database backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// GeminiConfig holds Google Gemini API settings.
type GeminiConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// PerplexityConfig holds Perplexity API settings. Perplexity doubles as the
// knowledge source for benchmark retrieval.
type PerplexityConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
	Model   string `yaml:"model" mapstructure:"model"`
}

// ProvidersConfig orders the fallback chain and paces provider calls.
type ProvidersConfig struct {
	// Chain lists provider ids in strict fallback order.
	Chain []string `yaml:"chain" mapstructure:"chain"`
	// AttemptTimeoutSecs bounds each individual provider attempt.
	AttemptTimeoutSecs int `yaml:"attempt_timeout_secs" mapstructure:"attempt_timeout_secs"`
	// RatePerSec throttles requests per provider; zero disables pacing.
	RatePerSec float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	// MaxTokens is the generation budget per narrative call.
	MaxTokens int `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// RetryConfig holds the retry/backoff constants.
type RetryConfig struct {
	MaxAttempts    int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseDelayMs    int     `yaml:"base_delay_ms" mapstructure:"base_delay_ms"`
	MaxDelayMs     int     `yaml:"max_delay_ms" mapstructure:"max_delay_ms"`
	Multiplier     float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
}

// CircuitConfig holds the circuit breaker thresholds.
type CircuitConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	CooldownSecs     int `yaml:"cooldown_secs" mapstructure:"cooldown_secs"`
}

// CacheConfig configures the semantic query cache.
type CacheConfig struct {
	TTLMinutes int  `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
	MaxEntries int  `yaml:"max_entries" mapstructure:"max_entries"`
	Persist    bool `yaml:"persist" mapstructure:"persist"`
}

// SchedulerConfig configures the analysis task scheduler.
type SchedulerConfig struct {
	Width           int  `yaml:"width" mapstructure:"width"`
	TaskTimeoutSecs int  `yaml:"task_timeout_secs" mapstructure:"task_timeout_secs"`
	Sequential      bool `yaml:"sequential" mapstructure:"sequential"`
}

// KnowledgeConfig configures benchmark knowledge retrieval.
type KnowledgeConfig struct {
	MaxParallel int `yaml:"max_parallel" mapstructure:"max_parallel"`
	QueryLimit  int `yaml:"query_limit" mapstructure:"query_limit"`
}

// ReportConfig configures report assembly.
type ReportConfig struct {
	TopN int `yaml:"top_n" mapstructure:"top_n"`
}

// PricingConfig holds per-provider pricing rates.
type PricingConfig struct {
	Models       map[string]ModelPricing `yaml:"models" mapstructure:"models"`
	QueryCostUSD float64                 `yaml:"query_cost_usd" mapstructure:"query_cost_usd"`
}

// ModelPricing holds per-model token pricing (USD per million tokens).
type ModelPricing struct {
	Input  float64 `yaml:"input" mapstructure:"input"`
	Output float64 `yaml:"output" mapstructure:"output"`
}

// ServerConfig configures the webhook server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ADINSIGHTS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "adinsights.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("perplexity.base_url", "https://api.perplexity.ai")
	v.SetDefault("perplexity.model", "sonar-pro")
	v.SetDefault("providers.chain", []string{"anthropic", "gemini", "perplexity"})
	v.SetDefault("providers.attempt_timeout_secs", 60)
	v.SetDefault("providers.max_tokens", 2048)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.base_delay_ms", 2000)
	v.SetDefault("retry.max_delay_ms", 30000)
	v.SetDefault("retry.multiplier", 2.0)
	v.SetDefault("retry.jitter_fraction", 0.25)
	v.SetDefault("circuit.failure_threshold", 5)
	v.SetDefault("circuit.cooldown_secs", 60)
	v.SetDefault("cache.ttl_minutes", 60)
	v.SetDefault("cache.max_entries", 512)
	v.SetDefault("scheduler.width", 4)
	v.SetDefault("scheduler.task_timeout_secs", 30)
	v.SetDefault("knowledge.max_parallel", 4)
	v.SetDefault("knowledge.query_limit", 6)
	v.SetDefault("report.top_n", 5)
	v.SetDefault("pricing.query_cost_usd", 0.005)
	v.SetDefault("pricing.models", map[string]any{
		"claude-haiku-4-5-20251001": map[string]any{"input": 0.80, "output": 4.00},
		"gemini-2.5-flash":          map[string]any{"input": 0.30, "output": 2.50},
		"sonar-pro":                 map[string]any{"input": 3.00, "output": 15.00},
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
