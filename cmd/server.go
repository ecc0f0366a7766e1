package cmd

import (
	"VerseClash/server"

	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the VerseClash HTTP server",
	Long:  `Start the VerseClash HTTP server, serving the battle API and running the audio mix pipeline.`,
	Run: func(cmd *cobra.Command, args []string) {
		server.Start()
	},
}

func init() {
	rootCmd.AddCommand(serverCmd)
}
