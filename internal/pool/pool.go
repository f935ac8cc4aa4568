// Package pool runs a function over a slice of inputs with bounded
// parallelism. Output order always matches input order and a failing task
// never affects its siblings.
package pool

import (
	"context"
	"runtime"
	"sync/atomic"

	"github.com/rotisserie/eris"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"
)

const (
	minDefaultLimit = 2
	maxDefaultLimit = 8
)

// Result is the outcome of one input item. OK is false when the task
// returned an error or panicked; Value is then the zero value.
type Result[R any] struct {
	Index int
	Value R
	Err   error
	OK    bool
}

// Option configures a Run.
type Option func(*options)

type options struct {
	rps      float64
	observer func(index int, err error)
}

// WithRateLimit gates task starts across all workers to rps per second.
// Values <= 0 disable the limiter.
func WithRateLimit(rps float64) Option {
	return func(o *options) { o.rps = rps }
}

// WithObserver registers fn to be called after each task completes, in
// completion order. fn must be safe for concurrent use.
func WithObserver(fn func(index int, err error)) Option {
	return func(o *options) { o.observer = fn }
}

// DefaultLimit is the parallelism used when Run receives limit <= 0: the
// CPU count clamped to [2, 8].
func DefaultLimit() int {
	return min(max(runtime.NumCPU(), minDefaultLimit), maxDefaultLimit)
}

// Run applies fn to every item using at most limit concurrent workers and
// returns exactly one Result per item, in input order.
//
// Workers claim the next unprocessed index from a shared cursor, so a slow
// task never holds back the others. Errors and panics are recorded in the
// task's own slot. Run does not cancel remaining tasks when one fails; it
// only stops claiming new work once ctx is done, marking unclaimed slots
// with ctx.Err().
func Run[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error), opts ...Option) []Result[R] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}
	if limit <= 0 {
		limit = DefaultLimit()
	}

	var limiter *rate.Limiter
	if o.rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(o.rps), 1)
	}

	var cursor atomic.Int64
	var g errgroup.Group
	for range min(limit, len(items)) {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				results[i] = runOne(ctx, i, items[i], fn, limiter)
				if o.observer != nil {
					o.observer(i, results[i].Err)
				}
			}
		})
	}
	_ = g.Wait()
	return results
}

func runOne[T, R any](ctx context.Context, i int, item T, fn func(context.Context, T) (R, error), limiter *rate.Limiter) (res Result[R]) {
	res.Index = i
	defer func() {
		if r := recover(); r != nil {
			var zero R
			res.Value = zero
			res.OK = false
			res.Err = eris.Errorf("pool: task %d panicked: %v", i, r)
		}
	}()

	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	if limiter != nil {
		if err := limiter.Wait(ctx); err != nil {
			res.Err = eris.Wrap(err, "pool: rate limit wait")
			return res
		}
	}

	v, err := fn(ctx, item)
	if err != nil {
		res.Err = err
		return res
	}
	res.Value = v
	res.OK = true
	return res
}

// Values returns the values of successful results, preserving order.
func Values[R any](results []Result[R]) []R {
	out := make([]R, 0, len(results))
	for _, r := range results {
		if r.OK {
			out = append(out, r.Value)
		}
	}
	return out
}

// Failed counts results that did not complete successfully.
func Failed[R any](results []Result[R]) int {
	n := 0
	for _, r := range results {
		if !r.OK {
			n++
		}
	}
	return n
}
