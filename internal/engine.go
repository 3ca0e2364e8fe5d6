package internal

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal/bugfile"
	"github.com/chcfuzz/bugreduce/internal/fuzzlog"
	"github.com/chcfuzz/bugreduce/internal/instance"
	"github.com/chcfuzz/bugreduce/internal/minimize"
	"github.com/chcfuzz/bugreduce/internal/mutation"
	"github.com/chcfuzz/bugreduce/internal/oracle"
	"github.com/chcfuzz/bugreduce/internal/smt"
)

// Settings locate seeds and artifacts and tune the reducers.
type Settings struct {
	// SeedDirs are the top-level seed directory names. A bug path is split
	// at the first of them.
	SeedDirs []string
	// SeedRoot is the directory holding the seed directories.
	SeedRoot string
	// OutputDir is the fuzzer output root used when a bug path does not name
	// one.
	OutputDir string
	Reduce    minimize.Options
}

// Engine manages bug reduction. It runs one bug at a time.
type Engine struct {
	RunID string

	oracle   oracle.Oracle
	catalog  mutation.Catalog
	settings Settings
	logger   *zap.Logger

	watcher    *fsnotify.Watcher
	isWatching bool
	watchDirs  []string
	done       chan struct{}
}

// NewEngine creates an engine asking o. The engine closes o on Close when o
// is an io.Closer.
func NewEngine(o oracle.Oracle, settings Settings, logger *zap.Logger) *Engine {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.OutputDir == "" {
		settings.OutputDir = "output"
	}
	runID := uuid.NewString()
	return &Engine{
		RunID:    runID,
		oracle:   o,
		catalog:  mutation.NewCatalog(o),
		settings: settings,
		logger:   logger.With(zap.String("run", runID)),
	}
}

// Close stops watching and releases the oracle.
func (e *Engine) Close() error {
	var errs []error
	if e.isWatching {
		errs = append(errs, e.StopWatching())
	}
	if c, ok := e.oracle.(io.Closer); ok {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Outcome summarizes the processing of one bug file.
type Outcome struct {
	File string
	// Artifact is the path written, or "" when nothing was written.
	Artifact   string
	Reproduced bool
	// Chain lengths and clause tree sizes before and after reduction.
	ChainBefore, ChainAfter int
	NodesBefore, NodesAfter int
	// Last is the type of the last mutation of the final chain.
	Last string
}

// bug is a bug report restored against its seed.
type bug struct {
	file   string
	report *bugfile.Report
	loc    bugfile.Location
	seed   *instance.Instance
	group  *instance.Group
}

func (b *bug) signature() minimize.Signature {
	return minimize.Signature{Consistent: false, Diagnostic: b.report.Diagnostic}
}

// load reads file and its seed. With withChain the recorded mutations are
// replayed on the seed.
func (e *Engine) load(ctx context.Context, file string, withChain bool) (*bug, error) {
	report, err := bugfile.ReadFile(file)
	if err != nil {
		return nil, err
	}
	loc, err := bugfile.Locate(file, e.settings.SeedDirs, e.settings.OutputDir)
	if err != nil {
		return nil, err
	}

	seedPath := filepath.Join(e.settings.SeedRoot, filepath.FromSlash(loc.SeedName))
	data, err := os.ReadFile(seedPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read seed: %w", err)
	}
	script, err := smt.ParseScript(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse seed %s: %w", seedPath, err)
	}
	seed := instance.New(script)

	var descs []mutation.Descriptor
	if withChain {
		descs = report.Chain
	}
	group, err := instance.Restore(ctx, e.catalog, loc.SeedName, seed, descs)
	if err != nil {
		return nil, err
	}
	return &bug{file: file, report: report, loc: loc, seed: seed, group: group}, nil
}

func (e *Engine) reducer(b *bug) *minimize.Reducer {
	return minimize.NewReducer(e.oracle, e.catalog, b.seed, b.signature(), e.logger.With(zap.String("file", b.file)), e.settings.Reduce)
}

// Reduce shrinks the clauses of the instance stored in file, keeping the
// recorded chain as is, and writes the result under <output>/reduced.
func (e *Engine) Reduce(ctx context.Context, file string) (*Outcome, error) {
	b, err := e.load(ctx, file, false)
	if err != nil {
		return nil, err
	}
	script, err := b.report.Script()
	if err != nil {
		return nil, fmt.Errorf("failed to parse bug instance: %w", err)
	}
	inst := instance.New(script)
	for _, t := range b.report.SolvingParameters() {
		inst.AddParam(t)
	}

	chain := make([]*mutation.Mutation, len(b.report.Chain))
	for i, d := range b.report.Chain {
		chain[i] = mutation.FromDescriptor(d, i+1)
	}
	out := &Outcome{
		File:        file,
		ChainBefore: len(chain),
		ChainAfter:  len(chain),
		NodesBefore: inst.Clauses.Size(),
		Last:        lastType(chain),
	}

	r := e.reducer(b)
	ok, err := r.Reproducer().IsReproduced(ctx, inst)
	if err != nil {
		return nil, err
	}
	if !ok {
		e.logger.Warn("Bug not reproduced", zap.String("file", file))
		return out, nil
	}
	out.Reproduced = true

	return e.shrinkInstance(ctx, r, b, inst, chain, out)
}

// ReduceChain shrinks the recorded chain of file, then the clauses of the
// resulting instance, and writes the result under <output>/reduced.
func (e *Engine) ReduceChain(ctx context.Context, file string) (*Outcome, error) {
	b, err := e.load(ctx, file, true)
	if err != nil {
		return nil, err
	}
	out := &Outcome{
		File:        file,
		ChainBefore: b.group.Len() - 1,
		NodesBefore: b.group.Last().Clauses.Size(),
	}

	r := e.reducer(b)
	ok, err := r.Reproducer().IsReproduced(ctx, b.group.Last())
	if err != nil {
		return nil, err
	}
	if !ok {
		e.logger.Warn("Bug not reproduced", zap.String("file", file))
		out.ChainAfter = out.ChainBefore
		out.Last = lastType(b.group.Mutations())
		return out, nil
	}
	out.Reproduced = true

	g, err := r.ReduceChain(ctx, b.group)
	if err != nil {
		return nil, fmt.Errorf("failed to reduce chain: %w", err)
	}
	chain := g.Mutations()
	out.ChainAfter = len(chain)
	out.Last = lastType(chain)
	e.logger.Info("Chain reduced",
		zap.String("file", file),
		zap.Int("before", out.ChainBefore),
		zap.Int("after", out.ChainAfter),
		zap.String("chain", mutation.ChainString(chain)),
	)

	return e.shrinkInstance(ctx, r, b, g.Last(), chain, out)
}

func (e *Engine) shrinkInstance(
	ctx context.Context,
	r *minimize.Reducer,
	b *bug,
	inst *instance.Instance,
	chain []*mutation.Mutation,
	out *Outcome,
) (*Outcome, error) {
	reduced, rerr := r.ReduceInstanceFully(ctx, b.seed, inst)
	if reduced == nil {
		return nil, rerr
	}
	if rerr != nil {
		e.logger.Error("Instance reduction stopped early", zap.String("file", b.file), zap.Error(rerr))
	}
	out.NodesAfter = reduced.Clauses.Size()

	path := filepath.Join(b.loc.OutputDir, "reduced", filepath.FromSlash(b.loc.Relative))
	if err := artifact(reduced, chain, b.report.Diagnostic, true).Write(path); err != nil {
		return nil, err
	}
	out.Artifact = path
	e.logger.Info("Instance reduced",
		zap.String("file", b.file),
		zap.String("artifact", path),
		zap.Int("nodes_before", out.NodesBefore),
		zap.Int("nodes_after", out.NodesAfter),
	)
	return out, rerr
}

// Reproduce replays the chain of file and, when the bug shows, writes the
// restored instance under <output>/reproduced.
func (e *Engine) Reproduce(ctx context.Context, file string) (*Outcome, error) {
	b, err := e.load(ctx, file, true)
	if err != nil {
		return nil, err
	}
	last := b.group.Last()
	chain := b.group.Mutations()
	out := &Outcome{
		File:        file,
		ChainBefore: len(chain),
		ChainAfter:  len(chain),
		NodesBefore: last.Clauses.Size(),
		NodesAfter:  last.Clauses.Size(),
		Last:        lastType(chain),
	}

	ok, err := e.reducer(b).Reproducer().IsReproduced(ctx, last)
	if err != nil {
		return nil, err
	}
	if !ok {
		e.logger.Warn("Bug not reproduced", zap.String("file", file))
		return out, nil
	}
	out.Reproduced = true

	path := filepath.Join(b.loc.OutputDir, "reproduced", filepath.FromSlash(b.loc.Relative))
	if err := artifact(last, chain, b.report.Diagnostic, false).Write(path); err != nil {
		return nil, err
	}
	out.Artifact = path
	return out, nil
}

// Deduplicate groups files by the type of their last mutation, reducing
// single-mutation chains first. With no files, the bug entries of logfile are used.
func (e *Engine) Deduplicate(ctx context.Context, files []string, logfile string) (*minimize.DedupReport, error) {
	if len(files) == 0 && logfile != "" {
		var err error
		files, err = fuzzlog.ReadFile(logfile, e.settings.OutputDir, e.logger)
		if err != nil {
			return nil, err
		}
	}

	load := func(ctx context.Context, file string) (*minimize.Bug, error) {
		b, err := e.load(ctx, file, true)
		if err != nil {
			return nil, err
		}
		return &minimize.Bug{File: file, Group: b.group, Signature: b.signature()}, nil
	}
	d := minimize.NewDeduplicator(load, e.oracle, e.catalog, e.logger, e.settings.Reduce)
	return d.Run(ctx, files)
}

// Equivalent reports whether the clauses of the scripts in seedFile and
// mutantFile are logically equivalent.
func (e *Engine) Equivalent(ctx context.Context, seedFile, mutantFile string) (bool, error) {
	seed, err := readScript(seedFile)
	if err != nil {
		return false, err
	}
	mutant, err := readScript(mutantFile)
	if err != nil {
		return false, err
	}
	return e.oracle.Equivalent(ctx, instance.New(seed).Problem(), instance.New(mutant).Problem())
}

func readScript(path string) (*smt.Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	script, err := smt.ParseScript(string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return script, nil
}

// artifact prepares inst for writing. With prune, declarations of predicates
// the clauses no longer use are dropped.
func artifact(inst *instance.Instance, chain []*mutation.Mutation, diagnostic string, prune bool) *bugfile.Artifact {
	decls := inst.Script.DeclarationBlock()
	if prune {
		decls = smt.PruneDeclarations(decls, inst.Clauses.Symbols())
	}
	return &bugfile.Artifact{
		Chain:        chain,
		Diagnostic:   diagnostic,
		Logic:        inst.Script.Logic,
		Preamble:     inst.Script.Preamble,
		Declarations: decls,
		Clauses:      inst.Clauses,
	}
}

func lastType(chain []*mutation.Mutation) string {
	if len(chain) == 0 {
		return ""
	}
	return chain[len(chain)-1].Type.String()
}
