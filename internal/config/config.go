package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Log          LogConfig          `yaml:"log" mapstructure:"log"`
	Fetch        FetchConfig        `yaml:"fetch" mapstructure:"fetch"`
	Maps         MapsConfig         `yaml:"maps" mapstructure:"maps"`
	Pipeline     PipelineConfig     `yaml:"pipeline" mapstructure:"pipeline"`
	Disambiguate DisambiguateConfig `yaml:"disambiguate" mapstructure:"disambiguate"`
	Anthropic    AnthropicConfig    `yaml:"anthropic" mapstructure:"anthropic"`
	Gemini       GeminiConfig       `yaml:"gemini" mapstructure:"gemini"`
	Store        StoreConfig        `yaml:"store" mapstructure:"store"`
	Server       ServerConfig       `yaml:"server" mapstructure:"server"`
	Output       OutputConfig       `yaml:"output" mapstructure:"output"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// FetchConfig configures the shared HTTP client.
type FetchConfig struct {
	UserAgent          string  `yaml:"user_agent" mapstructure:"user_agent"`
	AcceptLanguage     string  `yaml:"accept_language" mapstructure:"accept_language"`
	TimeoutSecs        int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxBodyBytes       int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	Attempts           int     `yaml:"attempts" mapstructure:"attempts"`
	BackoffMs          int     `yaml:"backoff_ms" mapstructure:"backoff_ms"`
	MaxBackoffMs       int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	HostRPS            float64 `yaml:"host_rps" mapstructure:"host_rps"`
	HostBurst          int     `yaml:"host_burst" mapstructure:"host_burst"`
	BreakerThreshold   int     `yaml:"breaker_threshold" mapstructure:"breaker_threshold"`
	BreakerCooldownSec int     `yaml:"breaker_cooldown_secs" mapstructure:"breaker_cooldown_secs"`
}

// MapsConfig configures the search endpoint.
type MapsConfig struct {
	BaseURL  string `yaml:"base_url" mapstructure:"base_url"`
	Language string `yaml:"language" mapstructure:"language"`
	Region   string `yaml:"region" mapstructure:"region"`
}

// PipelineConfig configures enrichment.
type PipelineConfig struct {
	// Concurrency 0 sizes the pool from the available CPUs.
	Concurrency    int     `yaml:"concurrency" mapstructure:"concurrency"`
	SearchRPS      float64 `yaml:"search_rps" mapstructure:"search_rps"`
	WebsiteDelayMs int     `yaml:"website_delay_ms" mapstructure:"website_delay_ms"`
	ContactPath    string  `yaml:"contact_path" mapstructure:"contact_path"`
	MaxResults     int     `yaml:"max_results" mapstructure:"max_results"`
}

// DisambiguateConfig selects the address decision backend.
type DisambiguateConfig struct {
	// Backend is anthropic, gemini, local or none. Empty picks anthropic
	// when a key is set and local otherwise.
	Backend       string `yaml:"backend" mapstructure:"backend"`
	LocalFallback bool   `yaml:"local_fallback" mapstructure:"local_fallback"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key       string `yaml:"key" mapstructure:"key"`
	Model     string `yaml:"model" mapstructure:"model"`
	MaxTokens int64  `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// GeminiConfig holds Gemini API settings.
type GeminiConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	Model   string `yaml:"model" mapstructure:"model"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// StoreConfig configures the run store.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// OutputConfig configures the result file.
type OutputConfig struct {
	Path   string `yaml:"path" mapstructure:"path"`
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
	v.SetEnvPrefix("SCRAPER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
	v.SetDefault("fetch.user_agent", "")
	v.SetDefault("fetch.accept_language", "fr-MA,fr;q=0.9,en;q=0.8")
	v.SetDefault("fetch.timeout_secs", 15)
	v.SetDefault("fetch.max_body_bytes", 4<<20)
	v.SetDefault("fetch.attempts", 1)
	v.SetDefault("fetch.backoff_ms", 1000)
	v.SetDefault("fetch.max_backoff_ms", 10000)
	v.SetDefault("fetch.host_rps", 2.0)
	v.SetDefault("fetch.host_burst", 2)
	v.SetDefault("fetch.breaker_threshold", 5)
	v.SetDefault("fetch.breaker_cooldown_secs", 60)
	v.SetDefault("maps.base_url", "https://www.google.com/maps/search/")
	v.SetDefault("maps.language", "fr")
	v.SetDefault("maps.region", "ma")
	v.SetDefault("pipeline.concurrency", 0)
	v.SetDefault("pipeline.search_rps", 0.5)
	v.SetDefault("pipeline.website_delay_ms", 1000)
	v.SetDefault("pipeline.contact_path", "contact")
	v.SetDefault("pipeline.max_results", 100)
	v.SetDefault("disambiguate.backend", "")
	v.SetDefault("disambiguate.local_fallback", false)
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("gemini.key", "")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "")
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "contact-scraper.db")
	v.SetDefault("store.max_conns", 4)
	v.SetDefault("store.min_conns", 1)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("output.path", "scraping_results.json")
	v.SetDefault("output.format", "")

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

// Backend returns the disambiguation backend to use, resolving the empty
// setting from the configured keys.
func (c *Config) Backend() string {
	b := strings.ToLower(strings.TrimSpace(c.Disambiguate.Backend))
	if b != "" {
		return b
	}
	if c.Anthropic.Key != "" {
		return "anthropic"
	}
	return "local"
}

// Validate checks the settings a command mode depends on. Modes are
// "scrape" and "serve".
func (c *Config) Validate(mode string) error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	switch mode {
	case "scrape", "serve":
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if c.Pipeline.Concurrency < 0 || c.Pipeline.Concurrency > 32 {
		add("pipeline.concurrency must be between 0 (auto) and 32 (got %d)", c.Pipeline.Concurrency)
	}
	if c.Pipeline.SearchRPS < 0 {
		add("pipeline.search_rps must be >= 0")
	}
	if c.Fetch.Attempts < 1 {
		add("fetch.attempts must be >= 1")
	}

	switch b := c.Backend(); b {
	case "anthropic":
		if c.Anthropic.Key == "" {
			add("anthropic.key is required for the anthropic backend")
		}
	case "gemini":
		if c.Gemini.Key == "" {
			add("gemini.key is required for the gemini backend")
		}
	case "local", "none":
	default:
		add("disambiguate.backend %q is not one of anthropic, gemini, local, none", b)
	}

	switch c.Store.Driver {
	case "sqlite", "postgres":
		if c.Store.DatabaseURL == "" {
			add("store.database_url is required")
		}
	case "", "none":
	default:
		add("store.driver %q is not one of sqlite, postgres, none", c.Store.Driver)
	}

	if mode == "serve" {
		if c.Server.Port <= 0 {
			add("server.port must be > 0")
		}
		if c.Store.Driver == "" || c.Store.Driver == "none" {
			add("store.driver is required to serve")
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("config: invalid: %v", errors.Join(errs...))
	}
	return nil
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
