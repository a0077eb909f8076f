package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"gsched/internal/daemon"
	"gsched/internal/logging"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the scheduling daemon",
	Args:  cobra.NoArgs,
	RunE:  runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logging.NewLogger(cfg.LogDir, logging.ParseLevel(cfg.LogLevel))
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer log.Close()

	tr, err := daemon.OpenTransport(cfg.Transport)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return daemon.New(cfg, log, tr).Run(ctx)
}
