package cmd

import (
	"fmt"
	"os"

	"VerseClash/server"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "verseclash",
	Short: "VerseClash generates and mixes AI rap battles.",
	Run: func(cmd *cobra.Command, args []string) {
		// server.Start handles its own configuration and logging.
		server.Start()
	},
}

// Execute executes the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
