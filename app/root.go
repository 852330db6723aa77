// Package app implements the main application commands.
package app

import (
	"github.com/spf13/cobra"

	"github.com/knowledgeai/knowledge-console/internal/config"
)

func init() { //nolint: gochecknoinits
	rootCmd.PersistentFlags().StringVarP(
		&configPath,
		"config",
		"c",
		config.DefaultPath,
		"Directory containing main.toml",
	)

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log below warn level in session commands")
}

var (
	configPath string // Path to the configuration directory
	verbose    bool

	rootCmd = &cobra.Command{
		Use:   "knowledge-console",
		Short: "knowledge-console is a local console and command line client for the Knowledge API",
		Long: `knowledge-console is a local web console and command line client for the Knowledge API.
It keeps one login session per machine, shared by the web console and the commands.`,
		Args:          cobra.OnlyValidArgs,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
