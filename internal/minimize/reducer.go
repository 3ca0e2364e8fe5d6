package minimize

import (
	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal/instance"
	"github.com/chcfuzz/bugreduce/internal/mutation"
	"github.com/chcfuzz/bugreduce/internal/oracle"
)

// Options tunes a Reducer.
type Options struct {
	// ReduceParameters shrinks the index sets of the simplification
	// mutations left after chain reduction.
	ReduceParameters bool
	// MaxTreePasses bounds the passes of ReduceInstanceFully. Zero means
	// until a fixed point.
	MaxTreePasses int
}

// DefaultOptions returns the options used by the command line.
func DefaultOptions() Options {
	return Options{ReduceParameters: true}
}

// Reducer shrinks one bug. It is bound to the bug's seed and signature and
// is not safe for concurrent use.
type Reducer struct {
	catalog mutation.Catalog
	oracle  oracle.Oracle
	repro   *Reproducer
	logger  *zap.Logger
	opts    Options
}

// NewReducer returns a reducer for the bug seen on mutants of seed.
func NewReducer(
	o oracle.Oracle,
	cat mutation.Catalog,
	seed *instance.Instance,
	sig Signature,
	logger *zap.Logger,
	opts Options,
) *Reducer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reducer{
		catalog: cat,
		oracle:  o,
		repro:   NewReproducer(o, seed, sig, logger),
		logger:  logger,
		opts:    opts,
	}
}

// Reproducer returns the reproduction oracle of the bug.
func (r *Reducer) Reproducer() *Reproducer {
	return r.repro
}
