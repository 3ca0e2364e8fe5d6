// Package fuzzlog reads the aggregated fuzzing log and lists the bug reports
// it mentions.
package fuzzlog

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// Entry is one line of the fuzzing log. Unknown fields are ignored.
type Entry struct {
	Filename   string      `json:"filename"`
	ID         json.Number `json:"id"`
	Status     string      `json:"status"`
	ModelState int         `json:"model_state"`
}

// wrongModel is the model_state value the fuzzer records when the solver
// returned a model that fails validation.
const wrongModel = -1

// IsBug reports whether e records a bug worth reducing.
func (e Entry) IsBug() bool {
	return e.Status == "bug" || e.ModelState == wrongModel
}

// BugFile returns the bug report path of e under outputDir:
// <outputDir>/bugs/<filename without .smt2>_<id>.smt2. A fractional id is
// truncated towards zero, as the fuzzer only writes whole ids.
func (e Entry) BugFile(outputDir string) (string, error) {
	id, err := e.ID.Int64()
	if err != nil {
		f, ferr := e.ID.Float64()
		if ferr != nil {
			return "", fmt.Errorf("invalid mutant id %q: %w", e.ID, err)
		}
		id = int64(f)
	}
	stem := strings.TrimSuffix(e.Filename, ".smt2")
	return filepath.Join(outputDir, "bugs", filepath.FromSlash(fmt.Sprintf("%s_%d.smt2", stem, id))), nil
}

// Read scans the JSON lines of r and returns the bug files of all bug
// entries, in log order and without repeats. Malformed lines are skipped.
func Read(r io.Reader, outputDir string, logger *zap.Logger) ([]string, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var files []string
	seen := make(map[string]bool)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for n := 1; sc.Scan(); n++ {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var e Entry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			logger.Debug("Skipping malformed log line", zap.Int("line", n), zap.Error(err))
			continue
		}
		if !e.IsBug() || e.Filename == "" {
			continue
		}
		file, err := e.BugFile(outputDir)
		if err != nil {
			logger.Debug("Skipping log entry", zap.Int("line", n), zap.Error(err))
			continue
		}
		if !seen[file] {
			seen[file] = true
			files = append(files, file)
		}
	}
	if err := sc.Err(); err != nil {
		return files, fmt.Errorf("failed to read fuzzing log: %w", err)
	}
	return files, nil
}

// ReadFile opens the log at path and calls Read.
func ReadFile(path, outputDir string, logger *zap.Logger) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fuzzing log: %w", err)
	}
	defer f.Close()
	return Read(f, outputDir, logger)
}
