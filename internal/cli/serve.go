package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/toolgate/toolgate/internal/config"
	"github.com/toolgate/toolgate/internal/daemon"
	"github.com/toolgate/toolgate/internal/logger"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the toolgate daemon",
	Long: `Run the toolgate daemon in the foreground: publish the tool catalog,
then serve the HTTP and websocket API until interrupted.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return err
	}

	pidFile := daemon.PIDFilePath(cfg.DataDir)
	if daemon.IsRunning(pidFile) {
		return fmt.Errorf("daemon is already running (PID file: %s)", pidFile)
	}

	log, closeLog, err := setupLogging(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	d, err := daemon.New(cfg, log)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Info().Str("signal", sig.String()).Msg("Shutting down")
	case <-ctx.Done():
	}

	return d.Stop()
}

func setupLogging(cfg *config.Config) (zerolog.Logger, func() error, error) {
	level := cfg.Logging.Level
	if logLevel != "" {
		level = logLevel
	}

	return logger.Setup(logger.Config{
		Level:      level,
		File:       cfg.Logging.File,
		Console:    cfg.Logging.Console,
		Pretty:     cfg.Logging.Pretty,
		Redaction:  cfg.Logging.Redaction,
		MaxSizeMB:  cfg.Logging.MaxSize,
		MaxAgeDays: cfg.Logging.MaxAge,
		Compress:   cfg.Logging.Compress,
	})
}
