package minimize

import (
	"context"
	"errors"
	"fmt"

	"github.com/chcfuzz/bugreduce/internal/instance"
	"github.com/chcfuzz/bugreduce/internal/mutation"
)

// Undo drops the mutations at positions [from, to] of g and replays the
// mutations after the window onto the instance before it. The prefix is
// shared with g; replayed mutations are copies.
//
// When a replayed mutation no longer applies, Undo returns g itself. An
// oracle fault also returns g, together with the error.
func Undo(ctx context.Context, cat mutation.Catalog, g *instance.Group, from, to int) (*instance.Group, error) {
	if from < 1 || to < from || to >= g.Len() {
		return g, fmt.Errorf("invalid undo window [%d, %d] for a group of %d", from, to, g.Len())
	}

	tail := make([]*mutation.Mutation, 0, g.Len()-to-1)
	for i := to + 1; i < g.Len(); i++ {
		tail = append(tail, g.At(i).Mutation)
	}

	out, feasible, err := replay(ctx, cat, g.Fork(from), tail)
	if err != nil || !feasible {
		return g, err
	}
	return out, nil
}

// replay applies copies of tail onto the last instance of base, pushing the
// results. It reports false when a mutation is not applicable.
func replay(ctx context.Context, cat mutation.Catalog, base *instance.Group, tail []*mutation.Mutation) (*instance.Group, bool, error) {
	for _, m := range tail {
		next, err := base.Last().Derive(ctx, cat, m.Clone())
		if errors.Is(err, mutation.ErrNotApplicable) {
			return nil, false, nil
		}
		if err != nil {
			return nil, false, err
		}
		base.Push(next)
	}
	return base, true, nil
}
