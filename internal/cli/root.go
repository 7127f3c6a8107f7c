package cli

import (
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "brainbox",
	Short: "Hebbian procedural memory for AI coding agents",
	Long: "Brainbox learns which files, tools and errors co-occur in agent sessions\n" +
		"and recalls them by spreading activation over a weighted memory graph.",
}

func Execute() error {
	_ = godotenv.Load()
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(recallCmd)
	rootCmd.AddCommand(decayCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(hookCmd)
}
