package bugfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chcfuzz/bugreduce/internal/mutation"
	"github.com/chcfuzz/bugreduce/internal/smt"
)

const report = `; [{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null},{"type":"SPACER_GLOBAL","clause":0,"indices":null}]
; model check failed: X
(set-logic HORN)
(declare-fun inv (Int) Bool)
(assert (forall ((x Int)) (=> (and (= x 0) (> x 1)) (inv x))))
(check-sat)
`

func TestParse(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		text       string
		chain      []mutation.Type
		diagnostic string
		wantErr    bool
	}{
		{
			name:       "full header",
			text:       report,
			chain:      []mutation.Type{mutation.TypeSwapAnd, mutation.TypeSpacerGlobal},
			diagnostic: "model check failed: X",
		},
		{
			name: "no header",
			text: "(set-logic HORN)\n(assert true)\n",
		},
		{
			name:       "comment instead of chain",
			text:       "; generated by hand\n; expected diagnostic\n(assert true)\n",
			diagnostic: "expected diagnostic",
		},
		{
			name:  "empty diagnostic",
			text:  "; []\n;\n(assert true)\n",
			chain: nil,
		},
		{
			name:    "unknown mutation type",
			text:    "; [{\"type\":\"FLIP\",\"clause\":0}]\n",
			wantErr: true,
		},
		{
			name:    "malformed chain",
			text:    "; [{\"type\":\n",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r, err := Parse(tt.text)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			var types []mutation.Type
			for _, d := range r.Chain {
				types = append(types, d.Type)
			}
			assert.Equal(t, tt.chain, types)
			assert.Equal(t, tt.diagnostic, r.Diagnostic)
			assert.Equal(t, tt.text, r.Body)
		})
	}
}

func TestReportScript(t *testing.T) {
	t.Parallel()
	r, err := Parse(report)
	require.NoError(t, err)

	script, err := r.Script()
	require.NoError(t, err)
	assert.Equal(t, 1, script.Clauses.Len())
	assert.Equal(t, []mutation.Type{mutation.TypeSpacerGlobal}, r.SolvingParameters())
}

func TestLocate(t *testing.T) {
	t.Parallel()
	seedDirs := []string{"spacer-benchmarks", "chc-comp21-benchmarks/"}

	tests := []struct {
		name    string
		file    string
		want    Location
		wantErr bool
	}{
		{
			name: "bug under output root",
			file: "output/bugs/spacer-benchmarks/relational/point_location_nr_12.smt2",
			want: Location{
				OutputDir: "output",
				SeedName:  "spacer-benchmarks/relational/point_location_nr.smt2",
				Relative:  "spacer-benchmarks/relational/point_location_nr_12.smt2",
			},
		},
		{
			name: "nested output root",
			file: "/runs/7/out/bugs/chc-comp21-benchmarks/lia/a_3.smt2",
			want: Location{
				OutputDir: filepath.FromSlash("/runs/7/out"),
				SeedName:  "chc-comp21-benchmarks/lia/a.smt2",
				Relative:  "chc-comp21-benchmarks/lia/a_3.smt2",
			},
		},
		{
			name: "bugs directory only",
			file: "bugs/spacer-benchmarks/a_1.smt2",
			want: Location{
				OutputDir: "output",
				SeedName:  "spacer-benchmarks/a.smt2",
				Relative:  "spacer-benchmarks/a_1.smt2",
			},
		},
		{
			name: "seed file",
			file: "spacer-benchmarks/a_b.smt2",
			want: Location{
				OutputDir: "output",
				SeedName:  "spacer-benchmarks/a_b.smt2",
				Relative:  "spacer-benchmarks/a_b.smt2",
			},
		},
		{
			name:    "outside seed directories",
			file:    "output/bugs/other/a_1.smt2",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := Locate(tt.file, seedDirs, "output")
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSeedName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "d/a_b.smt2", SeedName("d/a_b_17.smt2"))
	assert.Equal(t, "a_b.smt2", SeedName("a_b.smt2"))
	assert.Equal(t, "a.smt2", SeedName("a_0"))
}

func TestArtifactRoundTrip(t *testing.T) {
	t.Parallel()
	script, err := smt.ParseScript(report)
	require.NoError(t, err)

	r, err := Parse(report)
	require.NoError(t, err)
	chain := make([]*mutation.Mutation, len(r.Chain))
	for i, d := range r.Chain {
		chain[i] = mutation.FromDescriptor(d, i+1)
	}

	a := &Artifact{
		Chain:        chain,
		Diagnostic:   r.Diagnostic,
		Logic:        script.Logic,
		Declarations: script.DeclarationBlock(),
		Clauses:      script.Clauses,
	}
	path := filepath.Join(t.TempDir(), "reduced", "spacer-benchmarks", "a_1.smt2")
	require.NoError(t, a.Write(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Equal(t, strings.Split(report, "\n")[0], strings.Split(text, "\n")[0])
	assert.True(t, strings.HasSuffix(text, "(check-sat)\n"))

	back, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, r.Chain, back.Chain)
	assert.Equal(t, "model check failed: X", back.Diagnostic)

	_, err = ReadFile(filepath.Join(t.TempDir(), "missing.smt2"))
	assert.Error(t, err)
}
