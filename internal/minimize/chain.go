package minimize

import (
	"context"

	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal/instance"
)

// ReduceChain searches for a shorter mutation chain that still reproduces
// the bug. Windows of chunk positions are undone from the end of the chain
// towards the seed; the chunk halves after each pass until it reaches zero.
// The returned group always reproduces if g did.
func (r *Reducer) ReduceChain(ctx context.Context, g *instance.Group) (*instance.Group, error) {
	bound := g.Len()
	for chunk := bound / 2; chunk > 0; chunk /= 2 {
		r.logger.Debug("Chain reduction pass", zap.Int("chunk", chunk), zap.Int("length", g.Len()-1))

		for i := bound - 1; i > 0; i -= chunk {
			if err := ctx.Err(); err != nil {
				return g, err
			}
			from := max(i-chunk+1, 1)

			cand, err := Undo(ctx, r.catalog, g, from, i)
			if err != nil {
				r.logger.Debug("Undo failed, keeping window",
					zap.Int("from", from), zap.Int("to", i), zap.Error(err))
				continue
			}
			if cand.Len() >= g.Len() {
				continue
			}

			ok, err := r.repro.IsReproduced(ctx, cand.Last())
			if err != nil {
				r.logger.Debug("Reproduction check failed, keeping window",
					zap.Int("from", from), zap.Int("to", i), zap.Error(err))
				continue
			}
			if !ok {
				continue
			}

			removed := g.Len() - cand.Len()
			g = cand
			bound -= removed
			r.logger.Debug("Mutations removed",
				zap.Int("from", from), zap.Int("to", i), zap.Int("removed", removed))
		}
	}

	if r.opts.ReduceParameters {
		return r.reduceChainParameters(ctx, g)
	}
	return g, nil
}

// reduceChainParameters shrinks the index set of every simplification
// mutation left in g.
func (r *Reducer) reduceChainParameters(ctx context.Context, g *instance.Group) (*instance.Group, error) {
	for pos := 1; pos < g.Len(); pos++ {
		if !g.At(pos).Mutation.Type.IsSimplification() {
			continue
		}
		reduced, err := r.ReduceSimplifyParameters(ctx, g, pos)
		if err != nil {
			r.logger.Warn("Parameter reduction failed",
				zap.String("mutation", g.At(pos).Mutation.Name()), zap.Error(err))
			if ctx.Err() != nil {
				return g, err
			}
			continue
		}
		g = reduced
	}
	return g, nil
}
