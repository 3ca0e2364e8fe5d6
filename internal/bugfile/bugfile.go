// Package bugfile reads and writes fuzzer bug reports: SMT-LIB files whose
// first two comment lines carry the mutation chain and the expected
// diagnostic.
package bugfile

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/chcfuzz/bugreduce/internal/mutation"
	"github.com/chcfuzz/bugreduce/internal/smt"
)

// Report is a parsed bug report.
type Report struct {
	// Chain is the recorded mutation chain, oldest first. Empty when the
	// first line carries no chain.
	Chain []mutation.Descriptor
	// Diagnostic is the expected model check diagnostic, or "".
	Diagnostic string
	// Body is the full file text. Header lines are SMT-LIB comments, so it
	// parses as is.
	Body string
}

// Parse reads the header of a bug report.
func Parse(text string) (*Report, error) {
	r := &Report{Body: text}

	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)

	for line := 1; line <= 2 && sc.Scan(); line++ {
		content, ok := headerLine(sc.Text())
		if !ok {
			continue
		}
		switch line {
		case 1:
			if !strings.HasPrefix(content, "[") {
				continue
			}
			chain, err := mutation.DecodeChain([]byte(content))
			if err != nil {
				return nil, fmt.Errorf("line 1: %w", err)
			}
			r.Chain = chain
		case 2:
			r.Diagnostic = content
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	return r, nil
}

// headerLine returns the text after the comment marker of line.
func headerLine(line string) (string, bool) {
	if !strings.HasPrefix(line, ";") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(line, ";")), true
}

// ReadFile reads and parses the bug report at path.
func ReadFile(path string) (*Report, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read bug file: %w", err)
	}
	r, err := Parse(string(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}

// Script parses the SMT-LIB body of the report.
func (r *Report) Script() (*smt.Script, error) {
	return smt.ParseScript(r.Body)
}

// SolvingParameters returns the solving-parameter types in the chain.
func (r *Report) SolvingParameters() []mutation.Type {
	var out []mutation.Type
	for _, d := range r.Chain {
		if d.Type.IsSolvingParameter() {
			out = append(out, d.Type)
		}
	}
	return out
}

// Artifact is a report to be written to disk.
type Artifact struct {
	Chain        []*mutation.Mutation
	Diagnostic   string
	Logic        string
	Preamble     []string
	Declarations string
	Clauses      *smt.ClauseSet
}

// Render returns the file text: the two header lines, then the script.
func (a *Artifact) Render() (string, error) {
	chain, err := mutation.EncodeChain(a.Chain)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "; %s\n", chain)
	fmt.Fprintf(&sb, "; %s\n", a.Diagnostic)
	if a.Logic != "" {
		fmt.Fprintf(&sb, "(set-logic %s)\n", a.Logic)
	}
	for _, line := range a.Preamble {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}
	sb.WriteString(a.Declarations)
	if a.Declarations != "" && !strings.HasSuffix(a.Declarations, "\n") {
		sb.WriteByte('\n')
	}
	for i := 0; i < a.Clauses.Len(); i++ {
		fmt.Fprintf(&sb, "(assert %s)\n", a.Clauses.Clause(i))
	}
	sb.WriteString("(check-sat)\n")
	return sb.String(), nil
}

// Write renders a into path, creating parent directories.
func (a *Artifact) Write(path string) error {
	text, err := a.Render()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
