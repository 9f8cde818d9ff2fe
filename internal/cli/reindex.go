package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/toolgate/toolgate/internal/config"
	"github.com/toolgate/toolgate/internal/daemon"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the tool catalog once and exit",
	RunE:  runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)
}

func runReindex(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}
	cfg.Indexer.ReindexOnStart = false
	cfg.Indexer.WatchMapping = false

	log, closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	d, err := daemon.New(cfg, log)
	if err != nil {
		return err
	}
	defer d.Provider().Close()

	count, err := d.Indexer().Reindex(cmd.Context())
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Catalog rebuilt: %d descriptors\n", count)
	return nil
}
