package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/internal"
	"github.com/chcfuzz/bugreduce/triage"
)

var equivCmd = &cobra.Command{
	Use:   "equiv SEED MUTANT",
	Short: "Check that a mutant is equivalent to its seed",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		equivalent := false
		withEngine(func(ctx context.Context, engine *internal.Engine, _ triage.Config) {
			eq, err := engine.Equivalent(ctx, args[0], args[1])
			if err != nil {
				logger.Error("Error checking equivalence", zap.Error(err))
				return
			}
			equivalent = eq
		})
		if !equivalent {
			fmt.Println("mutant is not equivalent to seed")
			os.Exit(1)
		}
		fmt.Println("equivalent")
	},
}
