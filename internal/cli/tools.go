package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/toolgate/toolgate/internal/config"
	"github.com/toolgate/toolgate/internal/daemon"
)

var toolsCmd = &cobra.Command{
	Use:   "tools",
	Short: "List every tool the plugins declare",
	RunE:  runTools,
}

func init() {
	rootCmd.AddCommand(toolsCmd)
}

func runTools(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg.Catalog.Provider = "memory"
	cfg.Indexer.ReindexOnStart = false
	cfg.Indexer.WatchMapping = false

	d, err := daemon.New(cfg, zerolog.Nop())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TOOL\tPLUGIN\tPATH")
	for _, desc := range d.Indexer().Extract() {
		fmt.Fprintf(w, "%s\t%s\t%s\n", desc.Name, desc.PluginID, desc.InvocationPath)
	}
	return w.Flush()
}
