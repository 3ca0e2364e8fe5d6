package fuzzlog

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

const log = `{"filename": "spacer-benchmarks/a.smt2", "id": 3, "status": "bug", "model_state": 0}
{"filename": "spacer-benchmarks/b.smt2", "id": 4, "status": "sat", "model_state": 1}
not json at all
{"filename": "chc-comp21-benchmarks/c.smt2", "id": 7.0, "status": "wrong_model", "model_state": -1, "solve_time": 0.4}

{"filename": "spacer-benchmarks/a.smt2", "id": 3, "status": "bug", "model_state": 0}
{"filename": "spacer-benchmarks/d.smt2", "id": "x", "status": "bug", "model_state": 0}
`

func TestRead(t *testing.T) {
	t.Parallel()
	files, err := Read(strings.NewReader(log), "output", zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.FromSlash("output/bugs/spacer-benchmarks/a_3.smt2"),
		filepath.FromSlash("output/bugs/chc-comp21-benchmarks/c_7.smt2"),
	}, files)
}

func TestIsBug(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name  string
		entry Entry
		want  bool
	}{
		{"bug status", Entry{Status: "bug"}, true},
		{"wrong model", Entry{Status: "wrong_model", ModelState: -1}, true},
		{"valid model", Entry{Status: "sat", ModelState: 1}, false},
		{"unknown", Entry{Status: "unknown"}, false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, tt.entry.IsBug())
		})
	}
}

func TestReadFile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "logfile")
	require.NoError(t, os.WriteFile(path, []byte(log), 0o644))

	files, err := ReadFile(path, "out", nil)
	require.NoError(t, err)
	assert.Len(t, files, 2)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing"), "out", nil)
	assert.Error(t, err)
}

func TestBugFile(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		id      json.Number
		want    string
		wantErr bool
	}{
		{name: "integer", id: "12", want: "out/bugs/spacer-benchmarks/a_12.smt2"},
		{name: "integral float", id: "7.0", want: "out/bugs/spacer-benchmarks/a_7.smt2"},
		{name: "fraction is truncated", id: "7.5", want: "out/bugs/spacer-benchmarks/a_7.smt2"},
		{name: "not a number", id: "x", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			e := Entry{Filename: "spacer-benchmarks/a.smt2", ID: tt.id, Status: "bug"}
			got, err := e.BugFile("out")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}
