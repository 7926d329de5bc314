package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "scoreapi",
	Short: "JSON method API for client scoring and interests",
	Long: `scoreapi serves a single POST /method endpoint that dispatches
authenticated requests to the online_score and clients_interests methods.

Quick start:
  scoreapi serve              # Start the HTTP server
  scoreapi validate           # Validate configuration
  scoreapi token --login bob  # Print the token a caller must present`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "scoreapi.yaml", "config file path")
}
