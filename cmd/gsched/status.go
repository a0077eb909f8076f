package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"gsched/internal/daemon"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the daemon's last status snapshot",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	statusCmd.Flags().String("file", "", "status file (default status_file from config)")
	rootCmd.AddCommand(statusCmd)
}

var (
	bold  = color.New(color.Bold)
	green = color.New(color.FgGreen)
)

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	path, _ := cmd.Flags().GetString("file")
	if path == "" {
		path = cfg.StatusFile
	}
	if path == "" {
		return errors.New("no status file: set status_file in the config or pass --file")
	}

	st, err := daemon.ReadStatus(path)
	if err != nil {
		return err
	}

	_, _ = bold.Printf("gsched status at %s\n", st.UpdatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("Active tasks: %d/%d\n", st.Active, st.Capacity)
	if st.LastPass != nil {
		mode := "greedy"
		if st.LastPass.Exhaustive {
			mode = "exhaustive"
		}
		fmt.Printf("Last pass: %d tasks, %s search, global score %.4f\n",
			st.LastPass.Tasks, mode, st.LastPass.Score)
	}
	fmt.Println()

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Slot", "Task", "Profiles", "Complete", "Scheduled", "Threads", "Core")
	for _, s := range st.Slots {
		if !s.Active {
			continue
		}
		row := []string{
			strconv.Itoa(s.Index),
			s.Name,
			strconv.Itoa(s.Received),
			strconv.FormatBool(s.Complete),
			strconv.FormatBool(s.Scheduled),
			"-",
			"-",
		}
		if s.Scheduled {
			row[5] = strconv.Itoa(s.ThreadCount)
			row[6] = strconv.Itoa(s.Core)
			for i := range row {
				row[i] = green.Sprint(row[i])
			}
		}
		cells := make([]any, len(row))
		for i, c := range row {
			cells[i] = c
		}
		_ = table.Append(cells...)
	}
	return table.Render()
}
