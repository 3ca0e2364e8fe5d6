// Package internal provides the core of the bug reducer for a CHC solver fuzzer.
//
// The fuzzer mutates seed benchmarks and records every mutant that makes the
// solver misbehave as a bug report: an SMT-LIB file whose first comment line
// lists the mutation chain and whose second comment line holds the expected
// model check diagnostic. This package loads such reports, restores them
// against their seeds and drives the reducers in the minimize package.
//
// Key components:
//
// Engine: coordinates one reduction run. It owns the solver oracle, the
// mutation catalog built on top of it, and the settings that locate seeds and
// artifacts. Each operation handles one bug file and returns an Outcome.
//
// Settings: seed directory names, the seed root, the default output root and
// the reducer options.
//
// Outcome: what happened to one bug file, including the path of the artifact
// written, if any.
//
// Artifacts are written below the output root of the bug, mirroring its path
// below the bugs directory:
//
//	<output>/reduced/<seed dir>/...     reduce, chain
//	<output>/reproduced/<seed dir>/...  reproduce
//
// Usage:
//
//	engine := internal.NewEngine(oracle, settings, logger)
//	defer engine.Close()
//
//	out, err := engine.ReduceChain(ctx, "output/bugs/spacer-benchmarks/a_12.smt2")
//	if err != nil {
//	    // handle error
//	}
//	if !out.Reproduced {
//	    // the bug no longer shows
//	}
//
// The engine may also watch the fuzzer's bugs directory and reduce reports as
// they appear, see StartWatching.
//
// This package is intended for internal use within the reducer and should not
// be imported by external packages.
package internal
