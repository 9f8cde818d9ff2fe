package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/toolgate/toolgate/internal/config"
	"github.com/toolgate/toolgate/internal/daemon"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	pidFile := daemon.PIDFilePath(cfg.DataDir)
	if !daemon.IsRunning(pidFile) {
		fmt.Fprintln(cmd.OutOrStdout(), "Status: stopped")
		return nil
	}

	pid, err := daemon.ReadPID(pidFile)
	if err != nil {
		return fmt.Errorf("failed to read PID file: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Status: running")
	fmt.Fprintf(cmd.OutOrStdout(), "PID: %d\n", pid)

	// PID file age approximates uptime.
	if info, err := os.Stat(pidFile); err == nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Uptime: %s\n", formatDuration(time.Since(info.ModTime())))
	}

	return nil
}

func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	s := d - m*time.Minute

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s/time.Second)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s/time.Second)
	}
	return fmt.Sprintf("%ds", s/time.Second)
}
