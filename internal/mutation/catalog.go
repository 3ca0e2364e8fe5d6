package mutation

import (
	"context"
	"errors"
	"fmt"

	"github.com/chcfuzz/bugreduce/internal/smt"
)

// ErrNotApplicable reports that a mutation's structural precondition does
// not hold on its input.
var ErrNotApplicable = errors.New("mutation is not applicable")

// ResultKind represents the outcome of applying a mutation.
type ResultKind int

const (
	// ResultApplied indicates the mutation produced a new clause set.
	ResultApplied ResultKind = iota
	// ResultNotApplicable indicates the targeted structure does not exist.
	ResultNotApplicable
	// ResultFailed indicates an oracle fault while applying.
	ResultFailed
)

func (k ResultKind) String() string {
	switch k {
	case ResultApplied:
		return "Applied"
	case ResultNotApplicable:
		return "NotApplicable"
	case ResultFailed:
		return "Failed"
	default:
		return "?"
	}
}

// Result is the outcome of Catalog.Apply.
type Result struct {
	Kind    ResultKind
	Clauses *smt.ClauseSet // valid for Applied
	Err     error          // valid for Failed
}

func applied(cs *smt.ClauseSet) Result {
	return Result{Kind: ResultApplied, Clauses: cs}
}

func notApplicable() Result {
	return Result{Kind: ResultNotApplicable}
}

func failed(err error) Result {
	return Result{Kind: ResultFailed, Err: err}
}

// Catalog applies mutations to clause sets.
type Catalog interface {
	// Apply runs m on src. src.Clauses is never modified.
	Apply(ctx context.Context, src smt.Problem, m *Mutation) Result
}

// Simplifier rewrites one clause with solver-side simplification.
type Simplifier interface {
	Simplify(ctx context.Context, p smt.Problem, clause string, options []string) (string, error)
}

// Builtin is the catalog of mutation types known to this module.
type Builtin struct {
	simplifier Simplifier
}

// NewCatalog returns the built-in catalog. Simplification types need s.
func NewCatalog(s Simplifier) *Builtin {
	return &Builtin{simplifier: s}
}

func (b *Builtin) Apply(ctx context.Context, src smt.Problem, m *Mutation) Result {
	if src.Clauses == nil {
		return failed(errors.New("source has no clauses"))
	}
	if _, ok := typeTable[m.Type]; !ok {
		return failed(fmt.Errorf("unknown mutation type %d", int(m.Type)))
	}
	cs := src.Clauses.Clone()

	switch m.Type.Family() {
	case FamilySolvingParameter:
		return applied(cs)

	case FamilySimplification:
		return b.simplify(ctx, src, cs, m)

	default:
		if !applyStructural(cs, m) {
			return notApplicable()
		}
		return applied(cs)
	}
}

func (b *Builtin) simplify(ctx context.Context, src smt.Problem, cs *smt.ClauseSet, m *Mutation) Result {
	if b.simplifier == nil {
		return failed(fmt.Errorf("%s needs a simplifier", m.Type))
	}

	indices := m.Indices
	if indices == nil {
		indices = make([]int, cs.Len())
		for i := range indices {
			indices[i] = i
		}
	}

	var options []string
	if opt, _ := m.Type.Option(); opt != "" {
		options = append(options, opt)
	}

	header := smt.Problem{
		Logic:    src.Logic,
		Preamble: src.Preamble,
		Decls:    src.Decls,
	}
	for _, i := range indices {
		if i < 0 || i >= cs.Len() {
			return notApplicable()
		}
		out, err := b.simplifier.Simplify(ctx, header, cs.Clause(i), options)
		if err != nil {
			return failed(err)
		}
		parsed, root, err := smt.ParseTerm(out)
		if err != nil {
			return failed(fmt.Errorf("failed to parse simplified clause %d: %w", i, err))
		}
		cs.ReplaceClause(i, cs.CopySubtree(parsed, root))
	}
	return applied(cs)
}

func connective(t Type) string {
	switch t {
	case TypeSwapAnd, TypeDupAnd, TypeBreakAnd:
		return "and"
	case TypeSwapOr, TypeDupOr, TypeBreakOr:
		return "or"
	default:
		return ""
	}
}

// applyStructural edits cs in place and reports whether the precondition held.
func applyStructural(cs *smt.ClauseSet, m *Mutation) bool {
	id, ok := cs.Resolve(m.Target)
	if !ok {
		return false
	}

	if m.Type == TypeRemove {
		return remove(cs, m.Target, id)
	}

	conn := connective(m.Type)
	if conn == "" || cs.Head(id) != conn {
		return false
	}
	kids := append([]smt.NodeID(nil), cs.Children(id)...)
	op, args := kids[0], kids[1:]

	switch m.Type {
	case TypeSwapAnd, TypeSwapOr:
		if len(args) < 2 {
			return false
		}
		rotated := append([]smt.NodeID{op}, args[1:]...)
		rotated = append(rotated, args[0])
		cs.SetChildren(id, rotated)

	case TypeDupAnd, TypeDupOr:
		if len(args) < 1 {
			return false
		}
		dup := cs.CopySubtree(cs, args[0])
		cs.SetChildren(id, append(kids, dup))

	case TypeBreakAnd, TypeBreakOr:
		if len(args) < 3 {
			return false
		}
		inner := cs.NewList()
		cs.SetChildren(id, []smt.NodeID{op, args[0], inner})
		cs.SetChildren(inner, append([]smt.NodeID{cs.NewAtom(conn)}, args[1:]...))
	}
	return true
}

// remove drops a whole clause, or an argument of an and/or that keeps at
// least one other argument.
func remove(cs *smt.ClauseSet, target smt.Path, id smt.NodeID) bool {
	if len(target.Steps) == 0 {
		if cs.Len() < 2 {
			return false
		}
		cs.RemoveClause(target.Clause)
		return true
	}

	parent := cs.Parent(id)
	head := cs.Head(parent)
	if head != "and" && head != "or" {
		return false
	}
	pos := target.Steps[len(target.Steps)-1]
	if pos < 1 || len(cs.Children(parent)) < 3 {
		return false
	}
	cs.RemoveChild(parent, pos)
	return true
}
