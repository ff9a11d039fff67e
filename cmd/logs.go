package cmd

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/micromos/micromos/core/logger"
)

var logsCmd = &cobra.Command{
	Use:     "logs",
	Aliases: []string{"log"},
	Short:   "Explore the console event logs.",
}

// reportCmd aggregates the event log into usage statistics.
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Summarize the event log.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}
		fd, err := configuration.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		var report logger.Report
		if err := logger.ReadJSONLinesLog(fd, report.Update); err != nil {
			return err
		}

		out, err := json.MarshalIndent(&report, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(out))
		return nil
	},
}

// catCmd pretty-prints the raw event log.
var catCmd = &cobra.Command{
	Use:   "cat",
	Short: "Print the event log, one event per line.",
	Args:  cobra.ExactArgs(0),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true

		configuration, err := loadConfig()
		if err != nil {
			return err
		}
		fd, err := configuration.ReadAppLog()
		if err != nil {
			return err
		}
		defer fd.Close()

		w := cmd.OutOrStdout()
		return logger.ReadJSONLinesLog(fd, func(le *logger.LogEntry) {
			stamp := time.UnixMilli(le.TimestampMillis).UTC().Format(time.RFC3339)
			switch {
			case le.SessionStart != nil:
				fmt.Fprintf(w, "%s [%s] session start from %s\n", stamp, le.SessionID, le.SessionStart.RemoteAddr)
			case le.SessionEnd != nil:
				fmt.Fprintf(w, "%s [%s] session end\n", stamp, le.SessionID)
			case le.RunCommand != nil:
				status := le.RunCommand.Status
				if status == "" {
					status = "OK"
				}
				fmt.Fprintf(w, "%s [%s] %s -> %s\n", stamp, le.SessionID, le.RunCommand.Line, status)
			case le.UnknownCommand != nil:
				fmt.Fprintf(w, "%s [%s] unknown command: %s\n", stamp, le.SessionID, le.UnknownCommand.Line)
			case le.ProgramLoad != nil:
				fmt.Fprintf(w, "%s [%s] load %s at &%06X (%d bytes)\n", stamp, le.SessionID, le.ProgramLoad.Path, le.ProgramLoad.Address, le.ProgramLoad.Size)
			case le.ProgramRun != nil:
				fmt.Fprintf(w, "%s [%s] run &%06X exit %d\n", stamp, le.SessionID, le.ProgramRun.Address, le.ProgramRun.ExitCode)
			case le.Panic != nil:
				fmt.Fprintf(w, "%s [%s] panic: %s\n", stamp, le.SessionID, le.Panic.Context)
			default:
				fmt.Fprintf(w, "%s [%s] (unknown event)\n", stamp, le.SessionID)
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(logsCmd)
	logsCmd.AddCommand(reportCmd)
	logsCmd.AddCommand(catCmd)
}
