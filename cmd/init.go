package cmd

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/micromos/micromos/core/config"
)

// initCmd sets up the configuration directory
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the configuration in the current directory.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		logger := log.New(cmd.ErrOrStderr(), "", 0)

		return config.Initialize(cfgPath, logger)
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
