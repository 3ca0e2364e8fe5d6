// Package oracle answers satisfiability, model, equivalence and
// simplification queries about CHC problems by delegating to an external
// solver.
package oracle

import (
	"context"
	"fmt"
	"strings"

	"github.com/chcfuzz/bugreduce/internal/smt"
)

// Verdict is the answer of a satisfiability check.
type Verdict int

const (
	_ Verdict = iota
	// Sat indicates the problem has a model.
	Sat
	// Unsat indicates the problem has no model.
	Unsat
	// Unknown indicates the solver gave up or timed out.
	Unknown
)

func (v Verdict) String() string {
	switch v {
	case Sat:
		return "sat"
	case Unsat:
		return "unsat"
	case Unknown:
		return "unknown"
	default:
		return "?"
	}
}

// ParseVerdict reads a solver answer line.
func ParseVerdict(s string) (Verdict, bool) {
	switch strings.TrimSpace(s) {
	case "sat":
		return Sat, true
	case "unsat":
		return Unsat, true
	case "unknown", "timeout":
		return Unknown, true
	default:
		return 0, false
	}
}

// Oracle is the set of solver services the reducers depend on.
type Oracle interface {
	// Solve checks satisfiability of p.
	Solve(ctx context.Context, p smt.Problem) (Verdict, error)
	// CheckModel validates the model of p and returns the solver's
	// diagnostic, or "" when no diagnostic was raised.
	CheckModel(ctx context.Context, p smt.Problem) (string, error)
	// Equivalent reports whether the conjunctions of the clauses of a and b
	// are logically equivalent.
	Equivalent(ctx context.Context, a, b smt.Problem) (bool, error)
	// Simplify rewrites one clause under the declarations of p.
	Simplify(ctx context.Context, p smt.Problem, clause string, options []string) (string, error)
}

// Error reports a solver fault: a crash, a timeout of the process itself,
// or output that could not be understood.
type Error struct {
	Op     string
	Output string
	Err    error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("oracle %s failed", e.Op)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if out := strings.TrimSpace(e.Output); out != "" {
		if len(out) > 200 {
			out = out[:200] + "..."
		}
		msg += fmt.Sprintf(" (output: %q)", out)
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Err
}
