// Package cmd provides the command-line interface of cachesim.
package cmd

import (
	"errors"
	"io/fs"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "cachesim",
	Short: "cachesim simulates a set-associative cache.",
	Long: `cachesim simulates a set-associative cache placed between a ` +
		`random requester and a memory. Defaults for some flags can be ` +
		`given in a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
		return loadDotEnv(".env")
	},
}

// Execute adds all child commands to the root command and sets flags
// appropriately. The exit handlers run before the process ends.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}

	atexit.Exit(0)
}

// loadDotEnv loads the variables in the file into the environment. A missing
// file is not an error. Variables already set are kept.
func loadDotEnv(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}

	return err
}
