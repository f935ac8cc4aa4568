package pipeline

import (
	"context"

	"go.uber.org/zap"
)

// Step is one link of a fallback chain: Action produces a value and Done
// decides whether that value ends the chain.
type Step[T any] struct {
	Name   string
	Action func(ctx context.Context) (T, error)
	Done   func(T) bool
}

// RunChain runs steps in order until one's Done predicate holds. An Action
// error stops the chain; the value of the last successful step is returned
// with that error. With no satisfied step, the last value wins.
func RunChain[T any](ctx context.Context, steps []Step[T]) (T, error) {
	var cur T
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return cur, err
		}
		v, err := s.Action(ctx)
		if err != nil {
			zap.L().Debug("pipeline: chain step failed", zap.String("step", s.Name), zap.Error(err))
			return cur, err
		}
		cur = v
		if s.Done == nil || s.Done(v) {
			return cur, nil
		}
	}
	return cur, nil
}
