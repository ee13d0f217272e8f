// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meshintel/mlchem-digest/internal/state"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show recent digest runs",
	RunE:  runHistory,
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	store, err := state.NewStore(cfg.State)
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	runs, err := store.History(context.Background(), limit)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-25s  %-25s  %-8s  %-6s  %s\n",
		"Ran at", "Since", "Fetched", "Kept", "Delivered")
	for _, run := range runs {
		fmt.Fprintf(os.Stdout, "%-25s  %-25s  %-8d  %-6d  %v\n",
			run.RanAt.Format("2006-01-02 15:04:05"),
			run.Since.Format("2006-01-02 15:04:05"),
			run.Fetched, run.Kept, run.Delivered)
	}
	return nil
}

func init() {
	historyCmd.Flags().Int("limit", 20, "maximum number of runs to show")

	rootCmd.AddCommand(historyCmd)
}
