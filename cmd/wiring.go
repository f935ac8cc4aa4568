package main

import (
	"context"
	"time"

	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-scraper/internal/config"
	"github.com/sells-group/contact-scraper/internal/disambiguate"
	"github.com/sells-group/contact-scraper/internal/extract"
	"github.com/sells-group/contact-scraper/internal/fetch"
	"github.com/sells-group/contact-scraper/internal/maps"
	"github.com/sells-group/contact-scraper/internal/pipeline"
	"github.com/sells-group/contact-scraper/internal/store"
	anthropicpkg "github.com/sells-group/contact-scraper/pkg/anthropic"
)

// scraperEnv holds the components shared by the scrape, enrich and serve
// commands.
type scraperEnv struct {
	Fetcher   *fetch.Client
	Search    *maps.Client
	Extractor extract.Extractor
	Batch     *pipeline.Batch
	Scraper   *pipeline.Scraper
}

func fetchConfig(c config.FetchConfig) fetch.ClientConfig {
	return fetch.ClientConfig{
		UserAgent:        c.UserAgent,
		AcceptLanguage:   c.AcceptLanguage,
		Timeout:          time.Duration(c.TimeoutSecs) * time.Second,
		MaxBodyBytes:     c.MaxBodyBytes,
		Attempts:         c.Attempts,
		Backoff:          time.Duration(c.BackoffMs) * time.Millisecond,
		MaxBackoff:       time.Duration(c.MaxBackoffMs) * time.Millisecond,
		HostRPS:          c.HostRPS,
		HostBurst:        c.HostBurst,
		BreakerThreshold: c.BreakerThreshold,
		BreakerCooldown:  time.Duration(c.BreakerCooldownSec) * time.Second,
	}
}

func enricherOptions(c config.PipelineConfig) pipeline.Options {
	delay := time.Duration(c.WebsiteDelayMs) * time.Millisecond
	if c.WebsiteDelayMs <= 0 {
		delay = -1
	}
	return pipeline.Options{WebsiteDelay: delay, ContactPath: c.ContactPath}
}

// initScraper builds the pipeline from cfg. progress may be nil.
func initScraper(ctx context.Context, c *config.Config, progress func(done, total int, name string, err error)) (*scraperEnv, error) {
	f := fetch.New(fetchConfig(c.Fetch))
	search := maps.NewClient(f, maps.Options{
		BaseURL:  c.Maps.BaseURL,
		Language: c.Maps.Language,
		Region:   c.Maps.Region,
	})
	ex := extract.New()

	resolver, err := initResolver(ctx, c)
	if err != nil {
		return nil, err
	}

	enricher := pipeline.NewEnricher(search, f, ex, enricherOptions(c.Pipeline))
	batch := pipeline.NewBatch(enricher, resolver, pipeline.BatchOptions{
		Concurrency: c.Pipeline.Concurrency,
		SearchRPS:   c.Pipeline.SearchRPS,
		Progress:    progress,
	})

	return &scraperEnv{
		Fetcher:   f,
		Search:    search,
		Extractor: ex,
		Batch:     batch,
		Scraper:   pipeline.NewScraper(search, ex, batch),
	}, nil
}

// initResolver picks the address decision backend. A nil resolver keeps
// every interim address.
func initResolver(ctx context.Context, c *config.Config) (pipeline.AddressResolver, error) {
	var primary disambiguate.Resolver
	switch backend := c.Backend(); backend {
	case "anthropic":
		if c.Anthropic.Key == "" {
			return nil, eris.New("anthropic key is required (SCRAPER_ANTHROPIC_KEY)")
		}
		client := anthropicpkg.NewClient(c.Anthropic.Key, option.WithMaxRetries(2))
		primary = disambiguate.NewAnthropicResolver(client, c.Anthropic.Model, c.Anthropic.MaxTokens)
	case "gemini":
		g, err := disambiguate.NewGeminiResolver(ctx, c.Gemini.Key, c.Gemini.Model, c.Gemini.BaseURL)
		if err != nil {
			return nil, eris.Wrap(err, "init gemini")
		}
		primary = g
	case "local":
		primary = disambiguate.LocalResolver{}
	case "none":
		zap.L().Info("address disambiguation disabled")
		return nil, nil
	default:
		return nil, eris.Errorf("unknown disambiguation backend: %s", backend)
	}

	var fallback disambiguate.Resolver
	if c.Disambiguate.LocalFallback && primary.Name() != "local" {
		fallback = disambiguate.LocalResolver{}
	}
	zap.L().Debug("address disambiguation",
		zap.String("backend", primary.Name()),
		zap.Bool("local_fallback", fallback != nil),
	)
	return disambiguate.NewAdapter(primary, fallback), nil
}

// initStore opens the configured run store. A nil store means runs are not
// recorded.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "contact-scraper.db"
		}
		st, err = store.NewSQLite(dsn)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	case "", "none":
		return nil, nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}
