// Package cli defines the toolgate command tree.
package cli

import (
	"github.com/spf13/cobra"
)

const version = "0.1.0"

var (
	cfgFile  string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "toolgate",
	Short: "Toolgate - tool discovery, resolution and execution engine",
	Long: `Toolgate discovers tools declared by plugins, publishes their metadata
to a searchable catalog, resolves free-text queries to concrete tools, and
executes them over HTTP and websocket.`,
	Version: version,
}

// Execute runs the root command. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.toolgate/toolgate.json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (trace, debug, info, warn, error)")

	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s" .Version}}
`)
}

// GetRootCmd returns the root command for testing.
func GetRootCmd() *cobra.Command {
	return rootCmd
}
