package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/chcfuzz/bugreduce/triage"
)

// initCmd: bugreduce init
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new reducer configuration file",
	Run: func(cmd *cobra.Command, args []string) {
		if err := initConfigurationFile(cfgFile); err != nil {
			logger.Error("Error initializing config file", zap.Error(err))
			return
		}
		fmt.Printf("Configuration file created/updated: %s\n", cfgFile)
	},
}

func initConfigurationFile(configurationPath string) error {
	if configurationPath == "" {
		configurationPath = triage.DefaultConfigPath
	}
	return triage.WriteConfig(configurationPath, triage.DefaultConfig())
}
