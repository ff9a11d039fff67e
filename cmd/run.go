package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/micromos/micromos/core"
	"github.com/micromos/micromos/core/logger"
	"github.com/micromos/micromos/core/machine"
)

// runCmd executes a batch file through the shell pipeline.
var runCmd = &cobra.Command{
	Use:   "run BATCHFILE",
	Short: "Run a batch file of shell commands and exit.",
	Long: `Run a batch file of shell commands in batch context: only the moslet
directory is searched for external programs, exactly as the EXEC builtin
behaves.`,
	Args: cobra.ExactArgs(1),
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

		fd, err := os.Open(args[0])
		if err != nil {
			return err
		}
		defer fd.Close()

		shell := core.NewShell(core.Options{
			Disk:      disk,
			Machine:   machine.New(configuration.Memory.Geometry()),
			Log:       logger.NewJsonLinesLogRecorder(appLog).NewSession(),
			MosletDir: configuration.Disk.MosletDir,
			BinDir:    configuration.Disk.BinDir,
			Stdin:     cmd.InOrStdin(),
			Stdout:    cmd.OutOrStdout(),
		})

		return shell.ExecBatch(fd)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
