package main

import (
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/fatih/color"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"gsched/internal/daemon"
	"gsched/internal/job"
)

var probeCmd = &cobra.Command{
	Use:   "probe <task>",
	Short: "Register a task and send a synthetic profiling sweep",
	Long: `probe registers <task> with a running daemon and reports one sample
per thread count (1, 2, 4, ...) on the task's private queue.`,
	Args: cobra.ExactArgs(1),
	RunE: runProbe,
}

func init() {
	probeCmd.Flags().Int("samples", 0, "number of samples to send (default num_configs)")
	probeCmd.Flags().Duration("delay", 0, "pause between samples")
	probeCmd.Flags().BoolP("verbose", "v", false, "print every sample instead of a progress bar")
	rootCmd.AddCommand(probeCmd)
}

func runProbe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	n, _ := cmd.Flags().GetInt("samples")
	if n <= 0 {
		n = cfg.NumConfigs
	}
	delay, _ := cmd.Flags().GetDuration("delay")
	verbose, _ := cmd.Flags().GetBool("verbose")

	tr, err := daemon.OpenTransport(cfg.Transport)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	client, err := job.Register(ctx, tr, cfg, args[0])
	if err != nil {
		return err
	}
	defer client.Close()
	fmt.Printf("registered %s on %s\n", client.Name(), cfg.RegistrationQueue)

	pacer := job.NewPacer(delay)
	sweep := job.Sweep(n)

	var bar *progressbar.ProgressBar
	if !verbose {
		bar = progressbar.NewOptions(len(sweep),
			progressbar.OptionSetDescription("Profiling "+client.Name()),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionEnableColorCodes(true),
		)
	}

	for i, s := range sweep {
		if err := pacer.Wait(ctx); err != nil {
			return err
		}
		if err := client.Report(ctx, s); err != nil {
			return err
		}
		if bar != nil {
			bar.Describe(fmt.Sprintf("Profiling %s: %d threads", client.Name(), s.ThreadCount))
			_ = bar.Add(1)
			continue
		}
		fmt.Printf("  [%d/%d] threads=%d throughput=%.2f flops=%.2f\n",
			i+1, len(sweep), s.ThreadCount, s.Throughput, s.FLOPS)
	}
	if bar != nil {
		_ = bar.Finish()
		fmt.Println()
	}
	_, _ = color.New(color.FgGreen).Printf("sent %d samples at %s\n", len(sweep), time.Now().Format(time.TimeOnly))
	return nil
}
