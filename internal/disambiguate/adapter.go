// Package disambiguate picks one postal address per business from its
// extracted candidates using a single batched decision call.
package disambiguate

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrUnavailable marks a failed or unparseable decision call.
var ErrUnavailable = eris.New("disambiguate: unavailable")

// Request is one business in a batch. Index is the business's position in
// the caller's record slice.
type Request struct {
	Index      int
	Name       string
	Location   string
	Candidates []string
}

// Resolver is a decision backend. It returns one answer per request, in
// request order; "" means no confident match.
type Resolver interface {
	Name() string
	Resolve(ctx context.Context, reqs []Request) ([]string, error)
}

// Adapter wraps a Resolver and never fails: a backend error degrades to an
// empty answer list, optionally after trying a fallback resolver.
type Adapter struct {
	primary  Resolver
	fallback Resolver
}

// NewAdapter returns an Adapter over primary. fallback may be nil.
func NewAdapter(primary, fallback Resolver) *Adapter {
	return &Adapter{primary: primary, fallback: fallback}
}

// Resolve returns at most len(reqs) answers aligned with reqs. An empty
// result means callers keep their interim addresses.
func (a *Adapter) Resolve(ctx context.Context, reqs []Request) []string {
	if len(reqs) == 0 || a.primary == nil {
		return []string{}
	}

	answers, err := a.primary.Resolve(ctx, reqs)
	if err != nil {
		zap.L().Warn("disambiguate: backend unavailable, keeping interim addresses",
			zap.String("backend", a.primary.Name()),
			zap.Int("requests", len(reqs)),
			zap.Error(err),
		)
		if a.fallback == nil {
			return []string{}
		}
		if answers, err = a.fallback.Resolve(ctx, reqs); err != nil {
			zap.L().Warn("disambiguate: fallback failed", zap.String("backend", a.fallback.Name()), zap.Error(err))
			return []string{}
		}
	}

	if len(answers) != len(reqs) {
		zap.L().Warn("disambiguate: answer count mismatch, applying positionally",
			zap.Int("requests", len(reqs)),
			zap.Int("answers", len(answers)),
		)
		answers = answers[:min(len(answers), len(reqs))]
	}
	return answers
}
