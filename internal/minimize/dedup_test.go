package minimize

import (
	"context"
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chcfuzz/bugreduce/internal/mutation"
	"github.com/chcfuzz/bugreduce/internal/smt"
)

func TestDeduplicate(t *testing.T) {
	t.Parallel()
	chains := map[string]string{
		"bugs/a_1.smt2": `[` +
			`{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null},` +
			`{"type":"SPACER_GLOBAL","clause":0,"indices":null},` +
			`{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null}]`,
		"bugs/b_2.smt2": `[` +
			`{"type":"DUP_OR","clause":1,"path":[2,1],"indices":null},` +
			`{"type":"SPACER_GLOBAL","clause":0,"indices":null}]`,
		"bugs/c_3.smt2": `[` +
			`{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null},` +
			`{"type":"ELIM_AND","clause":0,"indices":null}]`,
		"bugs/d_4.smt2": `[{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null}]`,
		"bugs/e_5.smt2": `[]`,
		"bugs/f_6.smt2": `[{"type":"ELIM_AND","clause":0,"indices":null}]`,
		"bugs/g_7.smt2": `[` +
			`{"type":"SPACER_GLOBAL","clause":0,"indices":null},` +
			`{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null}]`,
		// longer chains are not checked again
		"bugs/h_8.smt2": `[` +
			`{"type":"SWAP_AND","clause":0,"path":[2,1],"indices":null},` +
			`{"type":"SWAP_OR","clause":1,"path":[2,1],"indices":null}]`,
	}

	f := &fakeOracle{
		bug: func(p smt.Problem) bool {
			return hasOption("fp.spacer.global")(p) || contains("marker")(p)
		},
		simplify: func(clause string) string {
			if clause == "(b x)" {
				return "(marker x)"
			}
			return clause
		},
	}
	cat := mutation.NewCatalog(f)

	load := func(ctx context.Context, file string) (*Bug, error) {
		chain, ok := chains[file]
		if !ok {
			return nil, errors.New("no such bug file")
		}
		return &Bug{
			File:      file,
			Group:     restore(t, cat, seedInstance(t, seedText), chain),
			Signature: bugSignature(),
		}, nil
	}

	files := []string{
		"bugs/a_1.smt2", "bugs/b_2.smt2", "bugs/c_3.smt2", "bugs/d_4.smt2", "bugs/e_5.smt2",
		"bugs/f_6.smt2", "bugs/g_7.smt2", "bugs/h_8.smt2", "bugs/missing_9.smt2",
	}
	reversed := make([]string, len(files))
	for i, file := range files {
		reversed[len(files)-1-i] = file
	}

	d := NewDeduplicator(load, f, cat, nil, DefaultOptions())
	first, err := d.Run(context.Background(), files)
	require.NoError(t, err)
	second, err := d.Run(context.Background(), reversed)
	require.NoError(t, err)

	want := map[string][]string{
		"elim_and":      {"bugs/c_3.smt2", "bugs/f_6.smt2"},
		"spacer_global": {"bugs/b_2.smt2"},
		"swap_and":      {"bugs/a_1.smt2", "bugs/g_7.smt2"},
		"swap_or":       {"bugs/h_8.smt2"},
	}
	if diff := cmp.Diff(want, first.Groups); diff != "" {
		t.Errorf("Run() groups mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first.Groups, second.Groups); diff != "" {
		t.Errorf("Run() depends on input order (-first +second):\n%s", diff)
	}

	assert.Equal(t, []string{"elim_and", "spacer_global", "swap_and", "swap_or"}, first.Keys())
	assert.Equal(t, 2, first.Count("swap_and"))
	assert.Equal(t, 0, first.Count("dup_or"))

	require.Len(t, first.Discarded, 3)
	assert.Equal(t, ErrNotReproduced.Error(), first.Discarded["bugs/d_4.smt2"])
	assert.Equal(t, errNoMutations.Error(), first.Discarded["bugs/e_5.smt2"])
	assert.Contains(t, first.Discarded, "bugs/missing_9.smt2")
}

func TestDeduplicateStopsOnCancel(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	d := NewDeduplicator(func(context.Context, string) (*Bug, error) {
		t.Fatal("loader must not run")
		return nil, nil
	}, &fakeOracle{}, mutation.NewCatalog(nil), nil, Options{})

	report, err := d.Run(ctx, []string{"a.smt2"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Groups)
}
