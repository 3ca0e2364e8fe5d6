package instance

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/chcfuzz/bugreduce/internal/mutation"
)

// Group is the chain of instances from a seed (index 0) to its last mutant.
// For every i > 0, At(i).Mutation.Prev == i-1 and At(i).Mutation.Number == i.
type Group struct {
	ID string
	// SeedName is the seed path relative to the seed root.
	SeedName  string
	instances []*Instance
}

// NewGroup starts a group at seed.
func NewGroup(seedName string, seed *Instance) *Group {
	g := &Group{ID: uuid.NewString(), SeedName: seedName}
	g.Push(seed)
	return g
}

// Len returns the number of instances, seed included.
func (g *Group) Len() int {
	return len(g.instances)
}

// At returns the i-th instance.
func (g *Group) At(i int) *Instance {
	return g.instances[i]
}

// Seed returns the first instance.
func (g *Group) Seed() *Instance {
	return g.instances[0]
}

// Last returns the newest instance.
func (g *Group) Last() *Instance {
	return g.instances[len(g.instances)-1]
}

// Push appends inst and numbers its mutation by position.
func (g *Group) Push(inst *Instance) {
	pos := len(g.instances)
	if inst.Mutation != nil && (inst.Mutation.Number != pos || inst.Mutation.Prev != pos-1) {
		inst.Mutation.Number = pos
		inst.Mutation.Prev = pos - 1
	}
	if inst.GroupID == "" {
		inst.GroupID = g.ID
	}
	g.instances = append(g.instances, inst)
}

// Truncate keeps the first n instances.
func (g *Group) Truncate(n int) {
	if n < 1 {
		n = 1
	}
	if n < len(g.instances) {
		g.instances = g.instances[:n]
	}
}

// Fork returns a new group sharing the first n instances of g.
func (g *Group) Fork(n int) *Group {
	out := &Group{ID: uuid.NewString(), SeedName: g.SeedName}
	out.instances = append(make([]*Instance, 0, g.Len()), g.instances[:n]...)
	return out
}

// Mutations returns the mutation chain, oldest first.
func (g *Group) Mutations() []*mutation.Mutation {
	out := make([]*mutation.Mutation, 0, len(g.instances)-1)
	for _, inst := range g.instances[1:] {
		out = append(out, inst.Mutation)
	}
	return out
}

// Restore replays descs from seed and returns the resulting group.
func Restore(ctx context.Context, cat mutation.Catalog, seedName string, seed *Instance, descs []mutation.Descriptor) (*Group, error) {
	g := NewGroup(seedName, seed)
	for i, d := range descs {
		m := mutation.FromDescriptor(d, i+1)
		next, err := g.Last().Derive(ctx, cat, m)
		if err != nil {
			return nil, fmt.Errorf("failed to restore mutation %d of %s: %w", i+1, seedName, err)
		}
		g.Push(next)
	}
	return g, nil
}
