package pipeline

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sells-group/contact-scraper/internal/disambiguate"
	"github.com/sells-group/contact-scraper/internal/model"
	"github.com/sells-group/contact-scraper/internal/pool"
)

// BusinessEnricher enriches one business.
type BusinessEnricher interface {
	Enrich(ctx context.Context, name, location string) (*Outcome, error)
}

// AddressResolver answers a batch of address requests positionally.
type AddressResolver interface {
	Resolve(ctx context.Context, reqs []disambiguate.Request) []string
}

// BatchOptions tunes a Batch.
type BatchOptions struct {
	// Concurrency bounds parallel enrichments; <= 0 uses pool.DefaultLimit.
	Concurrency int
	// SearchRPS caps how many enrichments start per second; <= 0 disables.
	SearchRPS float64
	// Progress, when set, is called after each business completes.
	Progress func(done, total int, name string, err error)
}

// Batch enriches many businesses in parallel and then resolves all their
// addresses with a single decision call.
type Batch struct {
	enricher BusinessEnricher
	resolver AddressResolver
	opts     BatchOptions
}

// NewBatch returns a Batch. resolver may be nil to skip address resolution.
func NewBatch(enricher BusinessEnricher, resolver AddressResolver, opts BatchOptions) *Batch {
	return &Batch{enricher: enricher, resolver: resolver, opts: opts}
}

// Run enriches names for location and returns one record per business that
// could be researched, in input order. It never fails: businesses whose
// search failed are dropped and a failed address decision keeps the
// interim address.
func (b *Batch) Run(ctx context.Context, names []string, location string) []model.BusinessRecord {
	start := time.Now()

	opts := []pool.Option{pool.WithRateLimit(b.opts.SearchRPS)}
	if b.opts.Progress != nil {
		var mu sync.Mutex
		done := 0
		opts = append(opts, pool.WithObserver(func(i int, err error) {
			mu.Lock()
			defer mu.Unlock()
			done++
			b.opts.Progress(done, len(names), names[i], err)
		}))
	}

	results := pool.Run(ctx, names, b.opts.Concurrency, func(ctx context.Context, name string) (*Outcome, error) {
		return b.enricher.Enrich(ctx, name, location)
	}, opts...)

	records := make([]model.BusinessRecord, len(results))
	var reqs []disambiguate.Request
	for i, r := range results {
		if !r.OK || r.Value == nil {
			if r.Err != nil {
				zap.L().Warn("pipeline: business skipped", zap.String("business", names[i]), zap.Error(r.Err))
			}
			continue
		}
		records[i] = r.Value.Record
		if len(r.Value.Candidates) > 0 {
			reqs = append(reqs, disambiguate.Request{
				Index:      i,
				Name:       r.Value.Record.Name,
				Location:   location,
				Candidates: r.Value.Candidates,
			})
		}
	}

	if b.resolver != nil && len(reqs) > 0 {
		answers := b.resolver.Resolve(ctx, reqs)
		for k, addr := range answers {
			if addr != "" {
				records[reqs[k].Index].Address = addr
			}
		}
	}

	out := make([]model.BusinessRecord, 0, len(records))
	for i, r := range results {
		if r.OK && r.Value != nil {
			out = append(out, records[i])
		}
	}

	zap.L().Info("pipeline: batch complete",
		zap.Int("businesses", len(names)),
		zap.Int("records", len(out)),
		zap.Int("failed", pool.Failed(results)),
		zap.Int("address_requests", len(reqs)),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out
}
