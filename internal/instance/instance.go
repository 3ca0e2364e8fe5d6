// Package instance holds CHC instances and the mutation groups that link a
// seed to the mutants derived from it.
package instance

import (
	"context"
	"fmt"

	"github.com/chcfuzz/bugreduce/internal/mutation"
	"github.com/chcfuzz/bugreduce/internal/oracle"
	"github.com/chcfuzz/bugreduce/internal/smt"
)

// ModelState is the outcome of the last model check of an instance.
type ModelState struct {
	Verdict    oracle.Verdict
	Checked    bool
	Diagnostic string
}

// Instance is one CHC system: the seed, or the result of applying a
// mutation to its predecessor. Instances in a group are never modified after
// they are pushed, so groups may share them.
type Instance struct {
	// Script carries logic, preamble and declarations shared by the group.
	Script   *smt.Script
	Clauses  *smt.ClauseSet
	Mutation *mutation.Mutation
	// Params are the solver options switched on along the chain.
	Params  []smt.Option
	GroupID string
	Model   ModelState
}

// New returns a seed instance for script.
func New(script *smt.Script) *Instance {
	return &Instance{
		Script:  script,
		Clauses: script.Clauses,
		Model:   ModelState{Verdict: oracle.Sat},
	}
}

// Problem returns the solver view of the instance.
func (in *Instance) Problem() smt.Problem {
	p := smt.Problem{
		Options: in.Params,
		Clauses: in.Clauses,
	}
	if in.Script != nil {
		p.Logic = in.Script.Logic
		p.Preamble = in.Script.Preamble
		p.Decls = in.Script.Decls
	}
	return p
}

// WithClauses returns a copy of in with cs as its clauses and a fresh model
// state. Script and Mutation stay shared.
func (in *Instance) WithClauses(cs *smt.ClauseSet) *Instance {
	out := *in
	out.Clauses = cs
	out.Params = append([]smt.Option(nil), in.Params...)
	out.Model = ModelState{Verdict: oracle.Sat}
	return &out
}

// AddParam switches on the solver option driven by a solving-parameter type.
// Other types are ignored.
func (in *Instance) AddParam(t mutation.Type) {
	if !t.IsSolvingParameter() {
		return
	}
	name, value := t.Option()
	for i, opt := range in.Params {
		if opt.Name == name {
			in.Params[i].Value = value
			return
		}
	}
	in.Params = append(in.Params, smt.Option{Name: name, Value: value})
}

// ResetModel forgets the outcome of the last model check.
func (in *Instance) ResetModel() {
	in.Model = ModelState{Verdict: oracle.Sat}
}

// Derive applies m to in and returns the resulting instance. m is owned by
// the result. It returns mutation.ErrNotApplicable when the precondition of m
// does not hold, and the catalog's error when applying faulted.
func (in *Instance) Derive(ctx context.Context, cat mutation.Catalog, m *mutation.Mutation) (*Instance, error) {
	res := cat.Apply(ctx, in.Problem(), m)
	switch res.Kind {
	case mutation.ResultApplied:
	case mutation.ResultNotApplicable:
		return nil, fmt.Errorf("%s: %w", m.Name(), mutation.ErrNotApplicable)
	default:
		return nil, fmt.Errorf("failed to apply %s: %w", m.Name(), res.Err)
	}

	out := in.WithClauses(res.Clauses)
	out.Mutation = m
	out.AddParam(m.Type)
	return out, nil
}
