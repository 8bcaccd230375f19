package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/opencase-io/opencase/internal/config"
)

var (
	cfgFile string
	cfg     *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "opencase",
	Short: "Case management server for security investigations",
	Long: `opencase tracks security investigation cases with comments, file
attachments, alert intake and dashboard statistics over a pluggable
document store (OpenSearch, PostgreSQL or in-memory).`,
	Version: "0.1.0",
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
}

func initConfig() {
	var err error
	cfg, err = config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
}
