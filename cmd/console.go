package cmd

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/micromos/micromos/core"
	"github.com/micromos/micromos/core/logger"
	"github.com/micromos/micromos/core/machine"
)

// consoleCmd runs the shell on the local terminal.
var consoleCmd = &cobra.Command{
	Use:   "console",
	Short: "Open the machine's shell on the local terminal.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}

		disk, err := core.OpenDisk(configuration)
		if err != nil {
			return err
		}

		appLog, err := configuration.OpenAppLog()
		if err != nil {
			return err
		}
		defer appLog.Close()

		isTerminal := isatty.IsTerminal(os.Stdout.Fd())

		shell := core.NewShell(core.Options{
			Disk:        disk,
			Machine:     machine.New(configuration.Memory.Geometry()),
			Log:         logger.NewJsonLinesLogRecorder(appLog).NewSession(),
			MosletDir:   configuration.Disk.MosletDir,
			BinDir:      configuration.Disk.BinDir,
			Interactive: true,
			Stdin:       cmd.InOrStdin(),
			Stdout:      cmd.OutOrStdout(),
			Color:       isTerminal,
		})

		rl, err := core.NewReadline(cmd.InOrStdin(), cmd.OutOrStdout(), nil, nil)
		if err != nil {
			return err
		}
		defer rl.Close()

		if motd := configuration.Motd; motd != "" {
			fmt.Fprint(cmd.OutOrStdout(), motd)
		}

		shell.Run(rl)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(consoleCmd)
}
