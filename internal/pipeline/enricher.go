// Package pipeline enriches business names into contact records: a search
// payload per business, field extraction, an email fallback chain over the
// business website, and a batched address decision at the end.
package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-scraper/internal/extract"
	"github.com/sells-group/contact-scraper/internal/fetch"
	"github.com/sells-group/contact-scraper/internal/maps"
	"github.com/sells-group/contact-scraper/internal/model"
)

// DefaultWebsiteDelay precedes every website fetch.
const DefaultWebsiteDelay = time.Second

// Options tunes an Enricher.
type Options struct {
	// WebsiteDelay is slept before each website fetch. Negative disables it.
	WebsiteDelay time.Duration
	ContactPath  string
}

// Outcome is the result of enriching one business: the record plus the raw
// address candidates kept for the batch decision.
type Outcome struct {
	Record     model.BusinessRecord
	Candidates []string
}

// Enricher runs the per-business steps. It is safe for concurrent use.
type Enricher struct {
	search  maps.Searcher
	fetcher fetch.Fetcher
	ex      extract.Extractor
	opts    Options
}

// NewEnricher wires an Enricher. ex is shared by every call.
func NewEnricher(search maps.Searcher, fetcher fetch.Fetcher, ex extract.Extractor, opts Options) *Enricher {
	if opts.WebsiteDelay == 0 {
		opts.WebsiteDelay = DefaultWebsiteDelay
	}
	if opts.ContactPath == "" {
		opts.ContactPath = "contact"
	}
	return &Enricher{search: search, fetcher: fetcher, ex: ex, opts: opts}
}

// Enrich researches one business. It fails only when the search payload
// cannot be fetched; website problems leave the email list empty.
func (e *Enricher) Enrich(ctx context.Context, name, location string) (*Outcome, error) {
	log := zap.L().With(zap.String("business", name), zap.String("location", location))

	query := maps.BuildQuery(name, location)
	payload, err := e.search.Search(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "pipeline: search %q", name)
	}

	phones := e.ex.Phones(payload)
	names := e.ex.Names(payload)
	websites := e.ex.Websites(e.ex.FilterSocial(e.ex.Links(payload)))
	candidates := e.ex.Addresses(payload)

	rec := model.BusinessRecord{
		Name:    BestName(name, names),
		Emails:  []string{},
		Address: location,
	}
	if len(phones) > 0 {
		rec.Phone = phones[0]
	}
	if len(websites) > 0 {
		rec.Website = websites[0]
	}

	if rec.Website != "" {
		emails, err := RunChain(ctx, e.emailSteps(rec.Website))
		if err != nil {
			log.Info("pipeline: website unavailable, keeping emails found so far",
				zap.String("website", rec.Website),
				zap.Error(err),
			)
		}
		if emails != nil {
			rec.Emails = emails
		}
	}

	log.Debug("pipeline: business enriched",
		zap.String("name", rec.Name),
		zap.Bool("phone", rec.Phone != ""),
		zap.String("website", rec.Website),
		zap.Int("emails", len(rec.Emails)),
		zap.Int("address_candidates", len(candidates)),
	)
	return &Outcome{Record: rec, Candidates: candidates}, nil
}

// emailSteps is the website fallback chain: main page, then contact page.
func (e *Enricher) emailSteps(website string) []Step[[]string] {
	found := func(emails []string) bool { return len(emails) > 0 }
	return []Step[[]string]{
		{Name: "main page", Action: e.pageEmails(website), Done: found},
		{Name: "contact page", Action: e.pageEmails(ContactURL(website, e.opts.ContactPath)), Done: found},
	}
}

func (e *Enricher) pageEmails(pageURL string) func(context.Context) ([]string, error) {
	return func(ctx context.Context) ([]string, error) {
		if err := sleep(ctx, e.opts.WebsiteDelay); err != nil {
			return nil, err
		}
		body, err := e.fetcher.Fetch(ctx, pageURL)
		if err != nil {
			return nil, err
		}
		return e.ex.Emails(body), nil
	}
}

// ContactURL appends path to website, adding a "/" unless website already
// ends with one.
func ContactURL(website, path string) string {
	if strings.HasSuffix(website, "/") {
		return website + path
	}
	return website + "/" + path
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
