package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck
	return dir
}

func TestLoadDefaults(t *testing.T) {
	// Change to temp dir so no config.yaml is found
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 15, cfg.Fetch.TimeoutSecs)
	assert.Equal(t, 1, cfg.Fetch.Attempts)
	assert.InDelta(t, 2.0, cfg.Fetch.HostRPS, 0.001)
	assert.Equal(t, "https://www.google.com/maps/search/", cfg.Maps.BaseURL)
	assert.Equal(t, "fr", cfg.Maps.Language)
	assert.Zero(t, cfg.Pipeline.Concurrency, "auto")
	assert.InDelta(t, 0.5, cfg.Pipeline.SearchRPS, 0.001)
	assert.Equal(t, 1000, cfg.Pipeline.WebsiteDelayMs)
	assert.Equal(t, "contact", cfg.Pipeline.ContactPath)
	assert.Equal(t, 100, cfg.Pipeline.MaxResults)
	assert.Equal(t, "claude-haiku-4-5-20251001", cfg.Anthropic.Model)
	assert.Equal(t, int64(4096), cfg.Anthropic.MaxTokens)
	assert.Equal(t, "gemini-2.5-flash", cfg.Gemini.Model)
	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, []string{"*"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "scraping_results.json", cfg.Output.Path)
	assert.False(t, cfg.Disambiguate.LocalFallback)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: postgres
  database_url: postgres://localhost/scraper
log:
  level: debug
  format: json
pipeline:
  concurrency: 8
disambiguate:
  backend: gemini
  local_fallback: true
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/scraper", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8, cfg.Pipeline.Concurrency)
	assert.Equal(t, "gemini", cfg.Disambiguate.Backend)
	assert.True(t, cfg.Disambiguate.LocalFallback)
	// Defaults still apply for unset values
	assert.Equal(t, 100, cfg.Pipeline.MaxResults)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o644))

	t.Setenv("SCRAPER_STORE_DRIVER", "postgres")
	t.Setenv("SCRAPER_LOG_LEVEL", "warn")
	t.Setenv("SCRAPER_ANTHROPIC_KEY", "sk-ant-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "sk-ant-test", cfg.Anthropic.Key)
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("log: [unclosed"), 0o644))

	_, err := Load()
	assert.Error(t, err)
}

func TestBackend(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, "local", cfg.Backend())

	cfg.Anthropic.Key = "k"
	assert.Equal(t, "anthropic", cfg.Backend())

	cfg.Disambiguate.Backend = " Gemini "
	assert.Equal(t, "gemini", cfg.Backend())
}

func validDefaults() *Config {
	cfg := &Config{}
	cfg.Pipeline.Concurrency = 4
	cfg.Fetch.Attempts = 1
	cfg.Store.Driver = "sqlite"
	cfg.Store.DatabaseURL = "test.db"
	cfg.Server.Port = 8080
	return cfg
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validDefaults().Validate("scrape"))
	assert.NoError(t, validDefaults().Validate("serve"))

	err := validDefaults().Validate("unknown")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown mode")
}

func TestValidate_AutoConcurrency(t *testing.T) {
	cfg := validDefaults()
	cfg.Pipeline.Concurrency = 0
	assert.NoError(t, cfg.Validate("scrape"))

	cfg.Pipeline.Concurrency = -1
	assert.Error(t, cfg.Validate("scrape"))
}

func TestValidate_Errors(t *testing.T) {
	cfg := validDefaults()
	cfg.Pipeline.Concurrency = 33
	cfg.Disambiguate.Backend = "anthropic"
	cfg.Store.Driver = "mysql"
	cfg.Server.Port = 0

	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline.concurrency must be between 0 (auto) and 32")
	assert.Contains(t, err.Error(), "anthropic.key is required")
	assert.Contains(t, err.Error(), "store.driver \"mysql\"")
	assert.Contains(t, err.Error(), "server.port must be > 0")
}

func TestValidate_ServeNeedsStore(t *testing.T) {
	cfg := validDefaults()
	cfg.Store.Driver = "none"

	assert.NoError(t, cfg.Validate("scrape"))
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.driver is required to serve")
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "invalid", Format: "json"})
	assert.Error(t, err)
}
