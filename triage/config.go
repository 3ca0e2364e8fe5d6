package triage

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chcfuzz/bugreduce/internal"
	"github.com/chcfuzz/bugreduce/internal/minimize"
	"github.com/chcfuzz/bugreduce/internal/oracle"
)

// DefaultConfigPath is the configuration file read when none is given.
const DefaultConfigPath = ".bugreduce.yaml"

// Config represents the reducer configuration.
type Config struct {
	Name   string       `yaml:"name"`
	Solver SolverConfig `yaml:"solver"`
	// SeedDirs are the top-level directory names of the seed benchmarks.
	SeedDirs []string `yaml:"seed_dirs"`
	// SeedRoot is the directory holding the seed directories.
	SeedRoot  string `yaml:"seed_root"`
	OutputDir string `yaml:"output_dir"`
	// CacheDir holds the persistent verdict cache. Empty keeps it in memory.
	CacheDir string       `yaml:"cache_dir"`
	Reduce   ReduceConfig `yaml:"reduce"`
}

// SolverConfig selects the solver binary.
type SolverConfig struct {
	Path    string        `yaml:"path"`
	Args    []string      `yaml:"args,omitempty"`
	Timeout time.Duration `yaml:"timeout"`
}

// ReduceConfig tunes the reducers.
type ReduceConfig struct {
	// Parameters shrinks the clause index sets of simplification mutations.
	Parameters bool `yaml:"parameters"`
	// MaxTreePasses bounds instance reduction passes; 0 runs to a fixed point.
	MaxTreePasses int `yaml:"max_tree_passes"`
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() Config {
	return Config{
		Name: "bugreduce",
		Solver: SolverConfig{
			Path:    "z3",
			Timeout: 60 * time.Second,
		},
		SeedDirs:  []string{"spacer-benchmarks", "chc-comp21-benchmarks", "sv-benchmarks-clauses"},
		SeedRoot:  ".",
		OutputDir: "output",
		Reduce: ReduceConfig{
			Parameters: minimize.DefaultOptions().ReduceParameters,
		},
	}
}

// LoadConfig reads the configuration at path over the defaults. A missing
// file yields the defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()
	if path == "" {
		path = DefaultConfigPath
	}

	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return config, nil
	}
	if err != nil {
		return config, err
	}
	defer f.Close()

	decoder := yaml.NewDecoder(f)
	decoder.KnownFields(true)
	if err := decoder.Decode(&config); err != nil && !errors.Is(err, io.EOF) {
		return config, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return config, nil
}

// WriteConfig writes config to path as YAML.
func WriteConfig(path string, config Config) error {
	d, err := yaml.Marshal(config)
	if err != nil {
		return err
	}
	return os.WriteFile(path, d, 0o644)
}

// Settings returns the engine view of c.
func (c Config) Settings() internal.Settings {
	return internal.Settings{
		SeedDirs:  c.SeedDirs,
		SeedRoot:  c.SeedRoot,
		OutputDir: c.OutputDir,
		Reduce: minimize.Options{
			ReduceParameters: c.Reduce.Parameters,
			MaxTreePasses:    c.Reduce.MaxTreePasses,
		},
	}
}

// OracleConfig returns the solver adapter view of c.
func (c Config) OracleConfig() oracle.Config {
	return oracle.Config{
		Path:    c.Solver.Path,
		Args:    c.Solver.Args,
		Timeout: c.Solver.Timeout,
	}
}
