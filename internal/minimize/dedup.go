package minimize

import (
	"context"
	"errors"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal/instance"
	"github.com/chcfuzz/bugreduce/internal/mutation"
	"github.com/chcfuzz/bugreduce/internal/oracle"
)

var errNoMutations = errors.New("no mutations recorded")

// Bug is a restored bug report.
type Bug struct {
	File      string
	Group     *instance.Group
	Signature Signature
}

// Loader restores the bug recorded in file.
type Loader func(ctx context.Context, file string) (*Bug, error)

// DedupReport groups bugs by the type of their last mutation.
type DedupReport struct {
	// Groups maps a lower-cased mutation type name to the bug files in it.
	Groups map[string][]string
	// Discarded lists files that were empty, failed to load or, for
	// single-mutation chains, did not reproduce, with the reason.
	Discarded map[string]string
}

// Keys returns the group names in alphabetical order.
func (r *DedupReport) Keys() []string {
	keys := make([]string, 0, len(r.Groups))
	for k := range r.Groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Count returns the number of bugs in group key.
func (r *DedupReport) Count(key string) int {
	return len(r.Groups[key])
}

// Deduplicator classifies bugs by root cause.
type Deduplicator struct {
	load    Loader
	oracle  oracle.Oracle
	catalog mutation.Catalog
	logger  *zap.Logger
	opts    Options
}

// NewDeduplicator returns a deduplicator reading bugs through load.
func NewDeduplicator(load Loader, o oracle.Oracle, cat mutation.Catalog, logger *zap.Logger, opts Options) *Deduplicator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Deduplicator{load: load, oracle: o, catalog: cat, logger: logger, opts: opts}
}

// Run groups every bug in files by the type of its last mutation. A bug with
// a single mutation is first checked and reduced, and dropped when it no
// longer reproduces.
// Per-file failures are recorded in the report, not returned; only a
// cancelled context stops the run.
func (d *Deduplicator) Run(ctx context.Context, files []string) (*DedupReport, error) {
	report := &DedupReport{
		Groups:    make(map[string][]string),
		Discarded: make(map[string]string),
	}

	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return report, err
		}
		key, err := d.classify(ctx, file)
		if err != nil {
			d.logger.Info("Bug discarded", zap.String("file", file), zap.Error(err))
			report.Discarded[file] = err.Error()
			continue
		}
		report.Groups[key] = append(report.Groups[key], file)
	}

	for _, k := range report.Keys() {
		sort.Strings(report.Groups[k])
	}
	return report, nil
}

func (d *Deduplicator) classify(ctx context.Context, file string) (string, error) {
	bug, err := d.load(ctx, file)
	if err != nil {
		return "", err
	}
	if bug.Group.Len() < 2 {
		return "", errNoMutations
	}

	g := bug.Group
	// longer chains are grouped by their recorded last mutation
	if g.Len() == 2 {
		r := NewReducer(d.oracle, d.catalog, g.Seed(), bug.Signature, d.logger, d.opts)
		ok, err := r.Reproducer().IsReproduced(ctx, g.Last())
		if err != nil {
			return "", err
		}
		if !ok {
			return "", ErrNotReproduced
		}
		if g, err = r.ReduceChain(ctx, g); err != nil {
			return "", err
		}
	}
	return strings.ToLower(g.Last().Mutation.Type.String()), nil
}
