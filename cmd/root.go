package cmd

import (
	"errors"
	"io/fs"
	"log"

	"github.com/spf13/cobra"

	"github.com/micromos/micromos/core/config"
)

var cfgPath string

func loadConfig() (*config.Configuration, error) {
	configuration, err := config.Load(cfgPath)

	if errors.Is(err, fs.ErrNotExist) {
		log.Println("Couldn't load config: did you run init?")
	}
	if err != nil {
		return nil, err
	}
	if err := configuration.Validate(); err != nil {
		return nil, err
	}

	return configuration, nil
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "micromos",
	Short: "A small machine operating system shell",
	Long:  `The command interpreter and execution environment of a small single-tasking machine OS.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	cobra.CheckErr(rootCmd.Execute())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", ".", "config path")
}
