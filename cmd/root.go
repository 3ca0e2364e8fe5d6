package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal"
	"github.com/chcfuzz/bugreduce/triage"
)

var (
	cfgFile string
	timeout time.Duration
	verbose bool

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:              "bugreduce [files...]",
	Short:            "bugreduce - minimize bug reports of a CHC solver fuzzer",
	TraverseChildren: true, // Prioritize subcommands
	SilenceUsage:     true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = newLogger(verbose)
		return err
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	Run: func(cmd *cobra.Command, args []string) {
		// no subcommand
		if len(args) == 0 {
			_ = cmd.Help()
			return
		}
		// Format: bugreduce [file1 file2 ...] => behaves like the chain subcommand
		chainCmd.Run(chainCmd, args)
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", triage.DefaultConfigPath, "Configuration file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 24*time.Hour, "Time limit for the whole command")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log every reduction step")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(reduceCmd)
	rootCmd.AddCommand(chainCmd)
	rootCmd.AddCommand(reproduceCmd)
	rootCmd.AddCommand(dedupCmd)
	rootCmd.AddCommand(equivCmd)
	rootCmd.AddCommand(watchCmd)
}

func newLogger(verbose bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()
	if verbose {
		config.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	return config.Build()
}

// withEngine builds the engine from the configuration file and runs f under
// the command timeout.
func withEngine(f func(ctx context.Context, engine *internal.Engine, config triage.Config)) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	engine, config, err := triage.New(cfgFile, logger)
	if err != nil {
		logger.Fatal("Failed to initialize engine", zap.Error(err))
	}
	defer func() {
		if err := engine.Close(); err != nil {
			logger.Error("Error closing engine", zap.Error(err))
		}
	}()
	logger.Debug("Engine started", zap.String("run", engine.RunID))

	f(ctx, engine, config)
}

func requireArgs(args []string) {
	if len(args) == 0 {
		fmt.Println("error: Please provide bug file or directory paths")
		os.Exit(1)
	}
}
