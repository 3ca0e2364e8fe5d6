package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/formatter"
	"github.com/chcfuzz/bugreduce/internal"
	"github.com/chcfuzz/bugreduce/triage"
)

var logFile string

var dedupCmd = &cobra.Command{
	Use:   "dedup [files...]",
	Short: "Group bugs by the mutation that triggers them",
	Long: `Groups the bugs by the type of their last mutation. Bugs with a single
mutation are reduced first and dropped when they no longer reproduce. Without files, the bug entries of the fuzzing log
are used.`,
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(func(ctx context.Context, engine *internal.Engine, config triage.Config) {
			log := logFile
			if len(args) == 0 && log == "" {
				log = "logfile"
			}
			report, err := engine.Deduplicate(ctx, args, log)
			if err != nil {
				logger.Error("Error deduplicating bugs", zap.Error(err))
			}
			if report == nil {
				return
			}
			for file, reason := range report.Discarded {
				logger.Info("Bug discarded", zap.String("file", file), zap.String("reason", reason))
			}
			fmt.Print(formatter.FormatDedup(report))
		})
	},
}

func init() {
	dedupCmd.Flags().StringVar(&logFile, "logfile", "", "Fuzzing log to read bug entries from")
}

func bugsDir(config triage.Config) string {
	return filepath.Join(config.OutputDir, "bugs")
}
