package minimize

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/chcfuzz/bugreduce/internal/instance"
	"github.com/chcfuzz/bugreduce/internal/mutation"
	"github.com/chcfuzz/bugreduce/internal/oracle"
	"github.com/chcfuzz/bugreduce/internal/smt"
)

const diagX = "model check failed: X"

const seedText = `(set-logic HORN)
(declare-fun inv (Int) Bool)
(declare-fun b (Int) Bool)
(declare-fun keep (Int) Bool)
(assert (forall ((x Int)) (=> (and (= x 0) (> x 1) (keep x)) (inv x))))
(assert (forall ((x Int)) (=> (or (inv x) (b x) (< x 3)) (inv x))))
(assert (b x))
`

// fakeOracle answers queries from predicates over the rendered problem.
type fakeOracle struct {
	// verdict decides Solve; nil means always sat.
	verdict func(p smt.Problem) oracle.Verdict
	// bug decides whether CheckModel raises diagX.
	bug func(p smt.Problem) bool
	// simplify rewrites clauses; nil returns them unchanged.
	simplify func(clause string) string
	solveErr error

	solves int
	checks int
	equivs int
}

var _ oracle.Oracle = (*fakeOracle)(nil)

func (f *fakeOracle) Solve(ctx context.Context, p smt.Problem) (oracle.Verdict, error) {
	f.solves++
	if f.solveErr != nil {
		return 0, f.solveErr
	}
	if f.verdict == nil {
		return oracle.Sat, nil
	}
	return f.verdict(p), nil
}

func (f *fakeOracle) CheckModel(ctx context.Context, p smt.Problem) (string, error) {
	f.checks++
	if f.bug != nil && f.bug(p) {
		return diagX, nil
	}
	return "", nil
}

// Equivalent holds when every keep* symbol of a survives in b.
func (f *fakeOracle) Equivalent(ctx context.Context, a, b smt.Problem) (bool, error) {
	f.equivs++
	have := b.Clauses.Symbols()
	for sym := range a.Clauses.Symbols() {
		if strings.HasPrefix(sym, "keep") && !have[sym] {
			return false, nil
		}
	}
	return true, nil
}

func (f *fakeOracle) Simplify(ctx context.Context, p smt.Problem, clause string, options []string) (string, error) {
	if f.simplify == nil {
		return clause, nil
	}
	return f.simplify(clause), nil
}

func hasOption(name string) func(p smt.Problem) bool {
	return func(p smt.Problem) bool {
		for _, opt := range p.Options {
			if opt.Name == name {
				return true
			}
		}
		return false
	}
}

func contains(text string) func(p smt.Problem) bool {
	return func(p smt.Problem) bool {
		return strings.Contains(p.Clauses.String(), text)
	}
}

func seedInstance(t *testing.T, text string) *instance.Instance {
	t.Helper()
	script, err := smt.ParseScript(text)
	require.NoError(t, err)
	return instance.New(script)
}

func restore(t *testing.T, cat mutation.Catalog, seed *instance.Instance, chain string) *instance.Group {
	t.Helper()
	descs, err := mutation.DecodeChain([]byte(chain))
	require.NoError(t, err)
	g, err := instance.Restore(context.Background(), cat, "bench/seed.smt2", seed, descs)
	require.NoError(t, err)
	return g
}

func typesOf(g *instance.Group) []mutation.Type {
	var out []mutation.Type
	for _, m := range g.Mutations() {
		out = append(out, m.Type)
	}
	return out
}

func bugSignature() Signature {
	return Signature{Consistent: false, Diagnostic: diagX}
}
