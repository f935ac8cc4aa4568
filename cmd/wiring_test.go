package main

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/contact-scraper/internal/config"
	"github.com/sells-group/contact-scraper/internal/disambiguate"
	"github.com/sells-group/contact-scraper/internal/store"
)

func TestFetchConfig(t *testing.T) {
	got := fetchConfig(config.FetchConfig{
		UserAgent:          "ua",
		TimeoutSecs:        15,
		Attempts:           3,
		BackoffMs:          250,
		MaxBackoffMs:       2000,
		HostRPS:            2,
		HostBurst:          1,
		BreakerThreshold:   5,
		BreakerCooldownSec: 30,
	})

	assert.Equal(t, "ua", got.UserAgent)
	assert.Equal(t, 15*time.Second, got.Timeout)
	assert.Equal(t, 3, got.Attempts)
	assert.Equal(t, 250*time.Millisecond, got.Backoff)
	assert.Equal(t, 2*time.Second, got.MaxBackoff)
	assert.InDelta(t, 2.0, got.HostRPS, 0.001)
	assert.Equal(t, 30*time.Second, got.BreakerCooldown)
}

func TestEnricherOptions(t *testing.T) {
	opts := enricherOptions(config.PipelineConfig{WebsiteDelayMs: 1000, ContactPath: "contact"})
	assert.Equal(t, time.Second, opts.WebsiteDelay)
	assert.Equal(t, "contact", opts.ContactPath)

	// Zero would fall back to the enricher default.
	opts = enricherOptions(config.PipelineConfig{})
	assert.Negative(t, opts.WebsiteDelay)
}

func TestInitResolver(t *testing.T) {
	ctx := context.Background()

	r, err := initResolver(ctx, &config.Config{Disambiguate: config.DisambiguateConfig{Backend: "none"}})
	require.NoError(t, err)
	assert.Nil(t, r)

	r, err = initResolver(ctx, &config.Config{})
	require.NoError(t, err)
	require.NotNil(t, r)
	answers := r.Resolve(ctx, []disambiguate.Request{{Location: "fes", Candidates: []string{"Rue Talaa Kebira 12, Fès"}}})
	assert.Equal(t, []string{"Rue Talaa Kebira 12, Fès"}, answers)

	_, err = initResolver(ctx, &config.Config{Disambiguate: config.DisambiguateConfig{Backend: "anthropic"}})
	assert.Error(t, err)

	_, err = initResolver(ctx, &config.Config{Disambiguate: config.DisambiguateConfig{Backend: "oracle"}})
	assert.Error(t, err)
}

func TestInitResolver_AnthropicWithKey(t *testing.T) {
	r, err := initResolver(context.Background(), &config.Config{
		Anthropic:    config.AnthropicConfig{Key: "sk-test", Model: "claude-haiku-4-5", MaxTokens: 1024},
		Disambiguate: config.DisambiguateConfig{LocalFallback: true},
	})
	require.NoError(t, err)
	assert.NotNil(t, r)
}

func TestInitStore(t *testing.T) {
	prev := cfg
	t.Cleanup(func() { cfg = prev })
	ctx := context.Background()

	cfg = &config.Config{Store: config.StoreConfig{Driver: "none"}}
	st, err := initStore(ctx)
	require.NoError(t, err)
	assert.Nil(t, st)

	cfg = &config.Config{Store: config.StoreConfig{Driver: "sqlite", DatabaseURL: filepath.Join(t.TempDir(), "runs.db")}}
	st, err = initStore(ctx)
	require.NoError(t, err)
	require.NotNil(t, st)
	defer st.Close() //nolint:errcheck

	run, err := st.CreateRun(ctx, store.NewRun{Query: "dentiste fes", BusinessType: "dentiste", Location: "fes", MaxResults: 5})
	require.NoError(t, err)
	assert.NotEmpty(t, run.ID)

	cfg = &config.Config{Store: config.StoreConfig{Driver: "mysql"}}
	_, err = initStore(ctx)
	assert.Error(t, err)
}
