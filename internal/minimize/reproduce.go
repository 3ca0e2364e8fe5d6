// Package minimize shrinks fuzzer bug reports: the mutation chain that
// produced a failing instance, the clauses of that instance, and the index
// sets of simplification mutations. It also groups reduced bugs by cause.
package minimize

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal/instance"
	"github.com/chcfuzz/bugreduce/internal/oracle"
)

// ErrNotReproduced reports that a bug no longer shows on its reconstructed
// instance.
var ErrNotReproduced = errors.New("bug not reproduced")

// Signature describes how a bug manifests.
type Signature struct {
	// Consistent is the expected outcome of comparing the instance's verdict
	// with the seed's verdict. Wrong-verdict bugs have Consistent == false.
	Consistent bool
	// Diagnostic is the expected model check diagnostic. Empty means none.
	Diagnostic string
}

// Reproducer decides whether an instance still shows a bug.
type Reproducer struct {
	oracle oracle.Oracle
	seed   *instance.Instance
	sig    Signature
	logger *zap.Logger

	seedVerdict oracle.Verdict
	seedSolved  bool
}

// NewReproducer returns a reproducer comparing instances against seed.
func NewReproducer(o oracle.Oracle, seed *instance.Instance, sig Signature, logger *zap.Logger) *Reproducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reproducer{oracle: o, seed: seed, sig: sig, logger: logger}
}

// Signature returns the bug signature the reproducer looks for.
func (r *Reproducer) Signature() Signature {
	return r.sig
}

// SeedVerdict solves the seed once and remembers the answer.
func (r *Reproducer) SeedVerdict(ctx context.Context) (oracle.Verdict, error) {
	if r.seedSolved {
		return r.seedVerdict, nil
	}
	v, err := r.oracle.Solve(ctx, r.seed.Problem())
	if err != nil {
		return 0, fmt.Errorf("failed to solve seed: %w", err)
	}
	r.seedVerdict, r.seedSolved = v, true
	return v, nil
}

// IsReproduced runs inst through the solver and the model check. A raised
// diagnostic decides on its own; an unsat verdict has no model and always
// counts as reproduced. Oracle faults are returned as errors. The model state
// of inst is reset before returning.
func (r *Reproducer) IsReproduced(ctx context.Context, inst *instance.Instance) (bool, error) {
	defer inst.ResetModel()

	seedVerdict, err := r.SeedVerdict(ctx)
	if err != nil {
		return false, err
	}

	p := inst.Problem()
	v, err := r.oracle.Solve(ctx, p)
	if err != nil {
		return false, err
	}
	ok := (v == seedVerdict) == r.sig.Consistent
	inst.Model = instance.ModelState{Verdict: v}

	switch v {
	case oracle.Sat:
		diag, err := r.oracle.CheckModel(ctx, p)
		if err != nil {
			return false, err
		}
		inst.Model.Checked = true
		inst.Model.Diagnostic = diag
		if diag != "" {
			ok = diag == r.sig.Diagnostic
		}
	case oracle.Unsat:
		ok = true
	}

	r.logger.Debug("reproduction probe",
		zap.Stringer("verdict", v),
		zap.Stringer("seed_verdict", seedVerdict),
		zap.String("diagnostic", inst.Model.Diagnostic),
		zap.Bool("reproduced", ok),
	)
	return ok, nil
}
