package minimize

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal/instance"
	"github.com/chcfuzz/bugreduce/internal/mutation"
	"github.com/chcfuzz/bugreduce/internal/smt"
)

// ReduceInstance makes one pass over the clauses of inst, removing
// subexpressions top-down. A removal is kept when the result still
// reproduces and stays equivalent to seed; otherwise the removed node's
// children are tried instead. It reports whether the clauses changed.
//
// On an oracle fault the pass stops and the instance reduced so far is
// returned with the error.
func (r *Reducer) ReduceInstance(ctx context.Context, seed, inst *instance.Instance) (*instance.Instance, bool, error) {
	start := inst.Clauses.String()
	cur := inst

	changed := func() bool {
		return cur.Clauses.String() != start
	}

	for c := 0; c < cur.Clauses.Len(); c++ {
		r.logger.Debug("Reducing clause", zap.Int("clause", c), zap.Int("clauses", cur.Clauses.Len()))

		rootRemoved := false
		stack := []smt.NodeID{cur.Clauses.Root(c)}
		for len(stack) > 0 {
			if err := ctx.Err(); err != nil {
				return cur, changed(), err
			}
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]

			path, ok := cur.Clauses.PathOf(id)
			if !ok {
				continue
			}
			remove := &mutation.Mutation{Type: mutation.TypeRemove, Target: path}
			cand, err := cur.Derive(ctx, r.catalog, remove)
			if errors.Is(err, mutation.ErrNotApplicable) {
				stack = append(stack, cur.Clauses.Children(id)...)
				continue
			}
			if err != nil {
				return cur, changed(), err
			}

			accepted, err := r.accepts(ctx, seed, cand)
			if err != nil {
				return cur, changed(), err
			}
			if !accepted {
				stack = append(stack, cur.Clauses.Children(id)...)
				continue
			}

			// the removal is content, not provenance
			cand.Mutation = cur.Mutation
			cur = cand
			r.logger.Debug("Expression removed", zap.Stringer("path", path))
			if len(path.Steps) == 0 {
				rootRemoved = true
			}
		}
		if rootRemoved {
			c--
		}
	}

	return cur, changed(), nil
}

func (r *Reducer) accepts(ctx context.Context, seed, cand *instance.Instance) (bool, error) {
	ok, err := r.repro.IsReproduced(ctx, cand)
	if err != nil || !ok {
		return false, err
	}
	return r.oracle.Equivalent(ctx, seed.Problem(), cand.Problem())
}

// ReduceInstanceFully repeats ReduceInstance until a pass changes nothing,
// or until Options.MaxTreePasses passes ran.
func (r *Reducer) ReduceInstanceFully(ctx context.Context, seed, inst *instance.Instance) (*instance.Instance, error) {
	for pass := 1; ; pass++ {
		reduced, changed, err := r.ReduceInstance(ctx, seed, inst)
		inst = reduced
		if err != nil {
			return inst, err
		}
		r.logger.Debug("Tree reduction pass done",
			zap.Int("pass", pass), zap.Bool("changed", changed), zap.Int("size", inst.Clauses.Size()))
		if !changed || (r.opts.MaxTreePasses > 0 && pass >= r.opts.MaxTreePasses) {
			return inst, nil
		}
	}
}
