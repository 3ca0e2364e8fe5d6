package minimize

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal/instance"
	"github.com/chcfuzz/bugreduce/internal/mutation"
)

// ReduceSimplifyParameters shrinks the clause index set of the
// simplification mutation at position pos of g. Indices are dropped one at a
// time; a drop is kept when the chain, replayed with the smaller set, still
// reproduces. A set covering every clause is normalized to nil. It returns g
// itself when the index set is already minimal.
func (r *Reducer) ReduceSimplifyParameters(ctx context.Context, g *instance.Group, pos int) (*instance.Group, error) {
	if pos < 1 || pos >= g.Len() {
		return g, fmt.Errorf("no mutation at position %d", pos)
	}
	m := g.At(pos).Mutation
	if !m.Type.IsSimplification() {
		return g, fmt.Errorf("%s is not a simplification", m.Name())
	}

	full := make([]int, g.At(pos-1).Clauses.Len())
	for i := range full {
		full[i] = i
	}
	current := m.Indices
	if current == nil {
		current = full
	}

	// Mutations()[k] produced instance k+1
	tail := g.Mutations()[pos-1:]
	kept := slices.Clone(current)
	best := g
	for _, idx := range current {
		trial := slices.DeleteFunc(slices.Clone(kept), func(i int) bool { return i == idx })
		cand, ok, err := r.withIndices(ctx, g, pos, trial, tail)
		if err != nil {
			return g, err
		}
		if !ok {
			continue
		}
		reproduced, err := r.repro.IsReproduced(ctx, cand.Last())
		if err != nil {
			return g, err
		}
		if reproduced {
			kept, best = trial, cand
			r.logger.Debug("Simplification index dropped",
				zap.String("mutation", m.Type.String()), zap.Int("index", idx))
		}
	}

	if best != g || m.Indices == nil || !sameSet(kept, full) {
		return best, nil
	}

	// an explicit set naming every clause means the same as no set
	cand, ok, err := r.withIndices(ctx, g, pos, nil, tail)
	if err != nil || !ok {
		return g, err
	}
	return cand, nil
}

// withIndices rebuilds g from position pos with the mutation there
// restricted to indices, replaying the rest of the chain.
func (r *Reducer) withIndices(
	ctx context.Context,
	g *instance.Group,
	pos int,
	indices []int,
	tail []*mutation.Mutation,
) (*instance.Group, bool, error) {
	m := tail[0].Clone()
	m.Indices = indices

	base := g.Fork(pos)
	next, err := base.Last().Derive(ctx, r.catalog, m)
	if errors.Is(err, mutation.ErrNotApplicable) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	base.Push(next)
	return replay(ctx, r.catalog, base, tail[1:])
}

func sameSet(a, b []int) bool {
	as := slices.Clone(a)
	bs := slices.Clone(b)
	slices.Sort(as)
	slices.Sort(bs)
	return slices.Equal(slices.Compact(as), slices.Compact(bs))
}
