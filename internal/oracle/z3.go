package oracle

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal/smt"
)

// Config configures the solver process.
type Config struct {
	// Path is the solver binary. Defaults to "z3" on $PATH.
	Path string
	// Args are extra command line arguments passed before the script.
	Args []string
	// Timeout bounds a single query. Zero means no limit.
	Timeout time.Duration
}

// Z3 runs one solver process per query, feeding the script on stdin.
type Z3 struct {
	path    string
	args    []string
	timeout time.Duration
	logger  *zap.Logger
}

var _ Oracle = (*Z3)(nil)

// NewZ3 returns a process-backed oracle.
func NewZ3(cfg Config, logger *zap.Logger) *Z3 {
	if logger == nil {
		logger = zap.NewNop()
	}
	path := cfg.Path
	if path == "" {
		path = "z3"
	}
	return &Z3{
		path:    path,
		args:    append([]string(nil), cfg.Args...),
		timeout: cfg.Timeout,
		logger:  logger,
	}
}

func (z *Z3) Solve(ctx context.Context, p smt.Problem) (Verdict, error) {
	out, err := z.run(ctx, "solve", p.Render()+"(check-sat)\n")
	if err != nil {
		return 0, err
	}
	if msg, ok := firstError(out); ok {
		return 0, &Error{Op: "solve", Output: out, Err: errors.New(msg)}
	}
	v, ok := firstVerdict(out)
	if !ok {
		return 0, &Error{Op: "solve", Output: out, Err: errors.New("no verdict in solver output")}
	}
	return v, nil
}

func (z *Z3) CheckModel(ctx context.Context, p smt.Problem) (string, error) {
	validated := p
	validated.Options = append([]smt.Option{{Name: "model_validate", Value: "true"}}, p.Options...)

	out, err := z.run(ctx, "check-model", validated.Render()+"(check-sat)\n")
	if err != nil {
		return "", err
	}
	if msg, ok := firstError(out); ok {
		return msg, nil
	}
	if _, ok := firstVerdict(out); !ok {
		return "", &Error{Op: "check-model", Output: out, Err: errors.New("no verdict in solver output")}
	}
	return "", nil
}

func (z *Z3) Equivalent(ctx context.Context, a, b smt.Problem) (bool, error) {
	var sb strings.Builder
	for _, line := range a.Preamble {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	seen := make(map[string]bool)
	for _, decls := range [][]smt.Decl{a.Decls, b.Decls} {
		for _, d := range decls {
			if seen[d.Name] {
				continue
			}
			seen[d.Name] = true
			sb.WriteString(d.Text)
			sb.WriteByte('\n')
		}
	}
	fmt.Fprintf(&sb, "(assert (not (= %s %s)))\n(check-sat)\n", conjunction(a.Clauses), conjunction(b.Clauses))

	out, err := z.run(ctx, "equivalent", sb.String())
	if err != nil {
		return false, err
	}
	if msg, ok := firstError(out); ok {
		return false, &Error{Op: "equivalent", Output: out, Err: errors.New(msg)}
	}
	v, ok := firstVerdict(out)
	if !ok {
		return false, &Error{Op: "equivalent", Output: out, Err: errors.New("no verdict in solver output")}
	}
	if v == Unknown {
		z.logger.Debug("equivalence undecided, treating as not equivalent")
	}
	return v == Unsat, nil
}

func (z *Z3) Simplify(ctx context.Context, p smt.Problem, clause string, options []string) (string, error) {
	var sb strings.Builder
	sb.WriteString(p.Header())
	sb.WriteString("(simplify ")
	sb.WriteString(clause)
	for _, opt := range options {
		fmt.Fprintf(&sb, " :%s true", opt)
	}
	sb.WriteString(")\n")

	out, err := z.run(ctx, "simplify", sb.String())
	if err != nil {
		return "", err
	}
	if msg, ok := firstError(out); ok {
		return "", &Error{Op: "simplify", Output: out, Err: errors.New(msg)}
	}
	result := strings.TrimSpace(out)
	if result == "" {
		return "", &Error{Op: "simplify", Err: errors.New("empty solver output")}
	}
	return result, nil
}

func (z *Z3) run(ctx context.Context, op, script string) (string, error) {
	args := append([]string{"-in", "-smt2"}, z.args...)
	if z.timeout > 0 {
		secs := int(math.Ceil(z.timeout.Seconds()))
		args = append(args, fmt.Sprintf("-T:%d", secs))

		// the solver enforces -T itself; the context only catches a hung process
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, z.timeout+5*time.Second)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, z.path, args...)
	cmd.Stdin = strings.NewReader(script)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = time.Second

	start := time.Now()
	err := cmd.Run()
	z.logger.Debug("solver query",
		zap.String("op", op),
		zap.Int("script_bytes", len(script)),
		zap.Duration("elapsed", time.Since(start)),
	)

	out := stdout.String()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return "", &Error{Op: op, Output: out, Err: ctxErr}
	}
	if err != nil {
		// z3 exits non-zero after reporting (error ...) lines; keep that output
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) || strings.TrimSpace(out) == "" {
			return "", &Error{Op: op, Output: out + stderr.String(), Err: err}
		}
	}
	return out, nil
}

func conjunction(cs *smt.ClauseSet) string {
	if cs == nil || cs.Len() == 0 {
		return "true"
	}
	if cs.Len() == 1 {
		return cs.Clause(0)
	}
	var sb strings.Builder
	sb.WriteString("(and")
	for i := 0; i < cs.Len(); i++ {
		sb.WriteByte(' ')
		sb.WriteString(cs.Clause(i))
	}
	sb.WriteByte(')')
	return sb.String()
}

func firstVerdict(out string) (Verdict, bool) {
	for _, line := range strings.Split(out, "\n") {
		if v, ok := ParseVerdict(line); ok {
			return v, true
		}
	}
	return 0, false
}

// firstError extracts the message of the first (error "...") line.
func firstError(out string) (string, bool) {
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, "(error ") {
			continue
		}
		msg := strings.TrimPrefix(line, "(error ")
		msg = strings.TrimSuffix(msg, ")")
		msg = strings.TrimSpace(msg)
		if len(msg) >= 2 && msg[0] == '"' && msg[len(msg)-1] == '"' {
			msg = strings.ReplaceAll(msg[1:len(msg)-1], `""`, `"`)
		}
		return msg, true
	}
	return "", false
}
