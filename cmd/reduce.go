package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/formatter"
	"github.com/chcfuzz/bugreduce/internal"
	"github.com/chcfuzz/bugreduce/triage"
)

var reduceCmd = &cobra.Command{
	Use:   "reduce [files...]",
	Short: "Reduce the clauses of bug instances, keeping their mutation chains",
	Run: func(cmd *cobra.Command, args []string) {
		requireArgs(args)
		withEngine(func(ctx context.Context, engine *internal.Engine, _ triage.Config) {
			runProcess(ctx, logger, engine, args, triage.ProcessReduce)
		})
	},
}

var chainCmd = &cobra.Command{
	Use:   "chain [paths...]",
	Short: "Reduce mutation chains, then the clauses of the resulting instances",
	Long: `Reduces the mutation chain of every bug file, then the clauses of the
instance it produces. Directories are searched for .smt2 files.
Without arguments the bugs directory of the configured output root is used.`,
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(func(ctx context.Context, engine *internal.Engine, config triage.Config) {
			paths := args
			if len(paths) == 0 {
				paths = []string{bugsDir(config)}
			}
			runProcess(ctx, logger, engine, paths, triage.ProcessChain)
		})
	},
}

var reproduceCmd = &cobra.Command{
	Use:   "reproduce [files...]",
	Short: "Replay mutation chains and save the bugs that still show",
	Run: func(cmd *cobra.Command, args []string) {
		requireArgs(args)
		withEngine(func(ctx context.Context, engine *internal.Engine, _ triage.Config) {
			runProcess(ctx, logger, engine, args, triage.ProcessReproduce)
		})
	},
}

func runProcess(ctx context.Context, logger *zap.Logger, engine triage.BugEngine, paths []string, processor triage.Processor) {
	outcomes, err := triage.ProcessFiles(ctx, logger, engine, paths, processor)
	fmt.Print(formatter.FormatOutcomes(outcomes))
	if err != nil {
		logger.Error("Error processing files", zap.Error(err))
	}
}
