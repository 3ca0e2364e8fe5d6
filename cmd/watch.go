package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/formatter"
	"github.com/chcfuzz/bugreduce/internal"
	"github.com/chcfuzz/bugreduce/triage"
)

var watchCmd = &cobra.Command{
	Use:   "watch [dirs...]",
	Short: "Reduce bug files as the fuzzer writes them",
	Run: func(cmd *cobra.Command, args []string) {
		withEngine(func(ctx context.Context, engine *internal.Engine, config triage.Config) {
			ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			dirs := args
			if len(dirs) == 0 {
				dirs = []string{bugsDir(config)}
			}
			err := engine.StartWatching(ctx, dirs, func(out *internal.Outcome, err error) {
				if out != nil {
					fmt.Print(formatter.FormatOutcome(out))
				}
			})
			if err != nil {
				logger.Error("Error starting watcher", zap.Error(err))
				return
			}
			logger.Info("Watching for bug files", zap.Strings("dirs", dirs))
			engine.Wait()
		})
	},
}
