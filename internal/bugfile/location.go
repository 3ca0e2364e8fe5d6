package bugfile

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// Location holds the fields derived from a bug report's path.
type Location struct {
	// OutputDir is the fuzzer output root the report was found under.
	OutputDir string
	// SeedName is the seed path relative to the seed root, starting with
	// the seed directory.
	SeedName string
	// Relative is the report path relative to its bugs directory, starting
	// with the seed directory. Reduced and reproduced artifacts reuse it.
	Relative string
}

// Locate derives the seed and output directory of the report at file. The
// first path component naming one of seedDirs marks the start of the
// seed-relative part; the component before it is the bugs directory and
// everything before that is the output root. A path that starts with a seed
// directory is a seed itself and gets defaultOutput.
func Locate(file string, seedDirs []string, defaultOutput string) (Location, error) {
	slashed := filepath.ToSlash(filepath.Clean(file))
	chunks := strings.Split(slashed, "/")

	known := make(map[string]bool, len(seedDirs))
	for _, d := range seedDirs {
		known[strings.Trim(filepath.ToSlash(d), "/")] = true
	}

	k := -1
	for i, c := range chunks {
		if known[c] {
			k = i
			break
		}
	}
	if k < 0 {
		return Location{}, fmt.Errorf("%s is not under any seed directory %v", file, seedDirs)
	}

	rel := strings.Join(chunks[k:], "/")
	if k == 0 {
		return Location{OutputDir: defaultOutput, SeedName: rel, Relative: rel}, nil
	}

	out := defaultOutput
	if k >= 2 {
		out = filepath.FromSlash(strings.Join(chunks[:k-1], "/"))
		if out == "" {
			out = "/"
		}
	}
	return Location{
		OutputDir: out,
		SeedName:  SeedName(rel),
		Relative:  rel,
	}, nil
}

// SeedName strips the trailing _<digits> mutant id from the base name of rel
// and gives it the .smt2 extension.
func SeedName(rel string) string {
	dir, base := path.Split(rel)
	stem := strings.TrimSuffix(base, path.Ext(base))
	if i := strings.LastIndexByte(stem, '_'); i >= 0 && isDigits(stem[i+1:]) {
		stem = stem[:i]
	}
	return dir + stem + ".smt2"
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
