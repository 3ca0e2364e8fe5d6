package internal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/chcfuzz/bugreduce/internal/minimize"
	"github.com/chcfuzz/bugreduce/internal/oracle"
	"github.com/chcfuzz/bugreduce/internal/smt"
)

const diagnostic = "model check failed: X"

const seedText = `(set-logic HORN)
(declare-fun inv (Int) Bool)
(declare-fun keep (Int) Bool)
(declare-fun junk (Int) Bool)
(assert (forall ((x Int)) (=> (and (= x 0) (keep x)) (inv x))))
(assert (forall ((x Int)) (=> (junk x) (inv x))))
(check-sat)
`

const bugChain = `[{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null},` +
	`{"type":"SPACER_GLOBAL","clause":0,"indices":null},` +
	`{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null}]`

const bugBody = `(set-logic HORN)
(declare-fun inv (Int) Bool)
(declare-fun keep (Int) Bool)
(declare-fun junk (Int) Bool)
(assert (forall ((x Int)) (=> (and (keep x) (= x 0)) (inv x))))
(assert (forall ((x Int)) (=> (junk x) (inv x))))
(check-sat)
`

const reducedText = `; [{"type":"SPACER_GLOBAL","clause":0,"indices":null}]
; model check failed: X
(set-logic HORN)
(declare-fun inv (Int) Bool)
(declare-fun keep (Int) Bool)
(assert (forall ((x Int)) (=> (keep x) (inv x))))
(check-sat)
`

// bugOracle raises the diagnostic whenever spacer.global is on and treats
// clause sets as equivalent while every keep* predicate survives.
type bugOracle struct {
	closed bool
}

var _ oracle.Oracle = (*bugOracle)(nil)

func (o *bugOracle) Solve(ctx context.Context, p smt.Problem) (oracle.Verdict, error) {
	return oracle.Sat, nil
}

func (o *bugOracle) CheckModel(ctx context.Context, p smt.Problem) (string, error) {
	for _, opt := range p.Options {
		if opt.Name == "fp.spacer.global" {
			return diagnostic, nil
		}
	}
	return "", nil
}

func (o *bugOracle) Equivalent(ctx context.Context, a, b smt.Problem) (bool, error) {
	have := b.Clauses.Symbols()
	for sym := range a.Clauses.Symbols() {
		if strings.HasPrefix(sym, "keep") && !have[sym] {
			return false, nil
		}
	}
	return true, nil
}

func (o *bugOracle) Simplify(ctx context.Context, p smt.Problem, clause string, options []string) (string, error) {
	return clause, nil
}

func (o *bugOracle) Close() error {
	o.closed = true
	return nil
}

// fuzzTree lays out a seed root and a fuzzer output directory holding one
// bug report, and returns the engine settings and the bug path.
func fuzzTree(t *testing.T, chain string) (Settings, string) {
	t.Helper()
	root := t.TempDir()

	seed := filepath.Join(root, "seeds", "spacer-bench", "loop.smt2")
	require.NoError(t, os.MkdirAll(filepath.Dir(seed), 0o755))
	require.NoError(t, os.WriteFile(seed, []byte(seedText), 0o644))

	out := filepath.Join(root, "out")
	bug := writeBug(t, out, "loop_3.smt2", chain)

	return Settings{
		SeedDirs:  []string{"spacer-bench"},
		SeedRoot:  filepath.Join(root, "seeds"),
		OutputDir: out,
		Reduce:    minimize.DefaultOptions(),
	}, bug
}

func writeBug(t *testing.T, out, name, chain string) string {
	t.Helper()
	path := filepath.Join(out, "bugs", "spacer-bench", name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	text := "; " + chain + "\n; " + diagnostic + "\n" + bugBody
	require.NoError(t, os.WriteFile(path, []byte(text), 0o644))
	return path
}

func assertFileContent(t *testing.T, path, want string) {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, string(content))
}

func TestNewEngine(t *testing.T) {
	t.Parallel()
	o := &bugOracle{}
	e := NewEngine(o, Settings{}, nil)
	assert.NotEmpty(t, e.RunID)
	assert.Equal(t, "output", e.settings.OutputDir)

	require.NoError(t, e.Close())
	assert.True(t, o.closed)
}

func TestEngineReduceChain(t *testing.T) {
	t.Parallel()
	settings, bug := fuzzTree(t, bugChain)
	e := NewEngine(&bugOracle{}, settings, zaptest.NewLogger(t))

	out, err := e.ReduceChain(context.Background(), bug)
	require.NoError(t, err)
	assert.True(t, out.Reproduced)
	assert.Equal(t, 3, out.ChainBefore)
	assert.Equal(t, 1, out.ChainAfter)
	assert.Equal(t, "SPACER_GLOBAL", out.Last)
	assert.Less(t, out.NodesAfter, out.NodesBefore)

	want := filepath.Join(settings.OutputDir, "reduced", "spacer-bench", "loop_3.smt2")
	assert.Equal(t, want, out.Artifact)
	assertFileContent(t, want, reducedText)
}

func TestEngineReduce(t *testing.T) {
	t.Parallel()
	settings, bug := fuzzTree(t, bugChain)
	e := NewEngine(&bugOracle{}, settings, zaptest.NewLogger(t))

	out, err := e.Reduce(context.Background(), bug)
	require.NoError(t, err)
	assert.True(t, out.Reproduced)
	assert.Equal(t, 3, out.ChainAfter)

	content, err := os.ReadFile(out.Artifact)
	require.NoError(t, err)
	text := string(content)
	assert.True(t, strings.HasPrefix(text, "; "+bugChain+"\n"))
	assert.Contains(t, text, "(assert (forall ((x Int)) (=> (keep x) (inv x))))\n")
	assert.NotContains(t, text, "junk")
}

func TestEngineNotReproduced(t *testing.T) {
	t.Parallel()
	settings, bug := fuzzTree(t, `[{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null}]`)
	e := NewEngine(&bugOracle{}, settings, zaptest.NewLogger(t))
	ctx := context.Background()

	for name, run := range map[string]func(context.Context, string) (*Outcome, error){
		"reduce":    e.Reduce,
		"chain":     e.ReduceChain,
		"reproduce": e.Reproduce,
	} {
		out, err := run(ctx, bug)
		require.NoError(t, err, name)
		assert.False(t, out.Reproduced, name)
		assert.Empty(t, out.Artifact, name)
	}
	_, err := os.Stat(filepath.Join(settings.OutputDir, "reduced"))
	assert.True(t, os.IsNotExist(err))
}

func TestEngineReproduce(t *testing.T) {
	t.Parallel()
	settings, bug := fuzzTree(t, bugChain)
	e := NewEngine(&bugOracle{}, settings, zaptest.NewLogger(t))

	out, err := e.Reproduce(context.Background(), bug)
	require.NoError(t, err)
	assert.True(t, out.Reproduced)
	assert.Equal(t, filepath.Join(settings.OutputDir, "reproduced", "spacer-bench", "loop_3.smt2"), out.Artifact)

	content, err := os.ReadFile(out.Artifact)
	require.NoError(t, err)
	text := string(content)
	assert.True(t, strings.HasPrefix(text, "; "+bugChain+"\n; "+diagnostic+"\n"))
	assert.Contains(t, text, "(declare-fun junk (Int) Bool)")
	assert.Contains(t, text, "(=> (and (= x 0) (keep x)) (inv x))")
}

func TestEngineLoadErrors(t *testing.T) {
	t.Parallel()
	settings, bug := fuzzTree(t, bugChain)
	ctx := context.Background()

	e := NewEngine(&bugOracle{}, settings, nil)
	_, err := e.ReduceChain(ctx, filepath.Join(settings.OutputDir, "bugs", "spacer-bench", "missing_1.smt2"))
	assert.Error(t, err)

	settings.SeedRoot = t.TempDir()
	e = NewEngine(&bugOracle{}, settings, nil)
	_, err = e.ReduceChain(ctx, bug)
	assert.ErrorContains(t, err, "failed to read seed")

	settings.SeedDirs = []string{"other"}
	e = NewEngine(&bugOracle{}, settings, nil)
	_, err = e.Reproduce(ctx, bug)
	assert.Error(t, err)
}

func TestEngineDeduplicate(t *testing.T) {
	t.Parallel()
	settings, first := fuzzTree(t, bugChain)
	second := writeBug(t, settings.OutputDir, "loop_4.smt2",
		`[{"type":"SPACER_GLOBAL","clause":0,"indices":null},{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null}]`)
	lost := writeBug(t, settings.OutputDir, "loop_5.smt2",
		`[{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null}]`)
	single := writeBug(t, settings.OutputDir, "loop_6.smt2",
		`[{"type":"SPACER_GLOBAL","clause":0,"indices":null}]`)
	e := NewEngine(&bugOracle{}, settings, zaptest.NewLogger(t))
	ctx := context.Background()

	report, err := e.Deduplicate(ctx, []string{first, second, lost, single}, "")
	require.NoError(t, err)
	assert.Equal(t, map[string][]string{
		"spacer_global": {single},
		"swap_and":      {first, second},
	}, report.Groups)
	require.Len(t, report.Discarded, 1)
	assert.Equal(t, minimize.ErrNotReproduced.Error(), report.Discarded[lost])

	log := filepath.Join(t.TempDir(), "logfile")
	lines := `{"filename": "spacer-bench/loop.smt2", "id": 4, "status": "bug", "model_state": 0}
{"filename": "spacer-bench/loop.smt2", "id": 5, "status": "sat", "model_state": 1}
{"filename": "spacer-bench/loop.smt2", "id": 3, "status": "wrong_model", "model_state": -1}
`
	require.NoError(t, os.WriteFile(log, []byte(lines), 0o644))

	report, err = e.Deduplicate(ctx, nil, log)
	require.NoError(t, err)
	assert.Equal(t, []string{"swap_and"}, report.Keys())
	assert.Equal(t, []string{first, second}, report.Groups["swap_and"])
	assert.Empty(t, report.Discarded)
}

func TestEngineEquivalent(t *testing.T) {
	t.Parallel()
	settings, bug := fuzzTree(t, bugChain)
	e := NewEngine(&bugOracle{}, settings, nil)
	ctx := context.Background()

	out, err := e.ReduceChain(ctx, bug)
	require.NoError(t, err)

	seed := filepath.Join(settings.SeedRoot, "spacer-bench", "loop.smt2")
	eq, err := e.Equivalent(ctx, seed, out.Artifact)
	require.NoError(t, err)
	assert.True(t, eq)

	lost := filepath.Join(t.TempDir(), "lost.smt2")
	require.NoError(t, os.WriteFile(lost, []byte("(assert (inv 0))\n"), 0o644))
	eq, err = e.Equivalent(ctx, seed, lost)
	require.NoError(t, err)
	assert.False(t, eq)

	_, err = e.Equivalent(ctx, seed, filepath.Join(t.TempDir(), "missing.smt2"))
	assert.Error(t, err)
}

func TestEngineWatch(t *testing.T) {
	t.Parallel()
	settings, _ := fuzzTree(t, bugChain)
	e := NewEngine(&bugOracle{}, settings, zaptest.NewLogger(t))

	outcomes := make(chan *Outcome, 8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bugs := filepath.Join(settings.OutputDir, "bugs")
	require.NoError(t, e.StartWatching(ctx, []string{bugs}, func(out *Outcome, err error) {
		if err == nil {
			outcomes <- out
		}
	}))
	assert.Error(t, e.StartWatching(ctx, []string{bugs}, nil))

	path := writeBug(t, settings.OutputDir, "loop_9.smt2", bugChain)

	select {
	case out := <-outcomes:
		assert.Equal(t, path, out.File)
		assert.True(t, out.Reproduced)
	case <-time.After(10 * time.Second):
		t.Fatal("no bug reduced while watching")
	}

	require.NoError(t, e.StopWatching())
	assert.NoError(t, e.StopWatching())
}
