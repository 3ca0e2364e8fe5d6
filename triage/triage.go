// Package triage is the entry point of the bug reducer: it builds an engine
// from the configuration file and runs it over bug files and directories.
package triage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal"
	"github.com/chcfuzz/bugreduce/internal/oracle"
)

// BugEngine is the part of internal.Engine the batch helpers drive.
type BugEngine interface {
	Reduce(ctx context.Context, file string) (*internal.Outcome, error)
	ReduceChain(ctx context.Context, file string) (*internal.Outcome, error)
	Reproduce(ctx context.Context, file string) (*internal.Outcome, error)
}

// Processor handles one bug file.
type Processor func(ctx context.Context, engine BugEngine, file string) (*internal.Outcome, error)

// New loads the configuration at configurationPath and returns an engine
// backed by the configured solver behind a verdict cache.
func New(configurationPath string, logger *zap.Logger) (*internal.Engine, Config, error) {
	config, err := LoadConfig(configurationPath)
	if err != nil {
		return nil, config, err
	}
	engine, err := NewWithConfig(config, logger)
	return engine, config, err
}

// NewWithConfig returns an engine for config.
func NewWithConfig(config Config, logger *zap.Logger) (*internal.Engine, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	solver := oracle.NewZ3(config.OracleConfig(), logger)
	cached, err := oracle.NewCache(solver, config.CacheDir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open verdict cache: %w", err)
	}
	return internal.NewEngine(cached, config.Settings(), logger), nil
}

// ProcessFiles runs processor over every path. A failing path is logged and
// the remaining paths are still processed; the failures are returned joined.
func ProcessFiles(
	ctx context.Context,
	logger *zap.Logger,
	engine BugEngine,
	paths []string,
	processor Processor,
) ([]*internal.Outcome, error) {
	var outcomes []*internal.Outcome
	var errs []error
	for _, path := range paths {
		out, err := ProcessPath(ctx, logger, engine, path, processor)
		outcomes = append(outcomes, out...)
		if err != nil {
			if logger != nil {
				logger.Error("Error processing path", zap.String("path", path), zap.Error(err))
			}
			if ctx.Err() != nil {
				return outcomes, ctx.Err()
			}
			errs = append(errs, err)
		}
	}

	return outcomes, errors.Join(errs...)
}

// ProcessPath runs processor over path, or over every bug file below it when
// it is a directory. Files are reduced one at a time.
func ProcessPath(
	ctx context.Context,
	logger *zap.Logger,
	engine BugEngine,
	path string,
	processor Processor,
) ([]*internal.Outcome, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("error accessing %s: %w", path, err)
	}

	if !info.IsDir() {
		if !hasDesiredExtension(path) {
			return nil, nil
		}
		out, err := processor(ctx, engine, path)
		if out == nil {
			return nil, err
		}
		return []*internal.Outcome{out}, err
	}

	files, err := bugFiles(path)
	if err != nil {
		return nil, err
	}

	bar := progressbar.NewOptions(len(files),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionSetDescription(path),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}))
	defer bar.Finish()

	outcomes := make([]*internal.Outcome, 0, len(files))
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		out, err := processor(ctx, engine, file)
		if out != nil {
			outcomes = append(outcomes, out)
		}
		if err != nil && logger != nil {
			logger.Error("Error processing file", zap.String("file", file), zap.Error(err))
		}
		_ = bar.Add(1)
	}

	return outcomes, nil
}

// bugFiles lists the bug files below dir in lexical order.
func bugFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(filePath string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !fileInfo.IsDir() && hasDesiredExtension(filePath) {
			files = append(files, filePath)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("error walking %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// ProcessReduce reduces the instance stored in file.
func ProcessReduce(ctx context.Context, engine BugEngine, file string) (*internal.Outcome, error) {
	return engine.Reduce(ctx, file)
}

// ProcessChain reduces the mutation chain of file, then its instance.
func ProcessChain(ctx context.Context, engine BugEngine, file string) (*internal.Outcome, error) {
	return engine.ReduceChain(ctx, file)
}

// ProcessReproduce replays the chain of file.
func ProcessReproduce(ctx context.Context, engine BugEngine, file string) (*internal.Outcome, error) {
	return engine.Reproduce(ctx, file)
}

func hasDesiredExtension(path string) bool {
	return filepath.Ext(path) == ".smt2"
}
