package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"gsched/internal/sched"
)

var rootCmd = &cobra.Command{
	Use:   "gsched",
	Short: "Profile-guided thread and core scheduler",
	Long: `gsched admits tasks over message queues, collects their profiling
sweeps and periodically assigns each task a thread count and a core.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "gsched.yml", "config file")
	rootCmd.PersistentFlags().String("log-level", "", "override log_level (debug, info, warn, error)")
}

// loadConfig reads the file named by --config and applies flag overrides.
func loadConfig(cmd *cobra.Command) (sched.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := sched.Load(path)
	if err != nil {
		return cfg, err
	}
	if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
		cfg.LogLevel = strings.ToLower(lvl)
	}
	return cfg, nil
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
