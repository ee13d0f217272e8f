// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/mlchem-digest/internal/pipeline"
	"github.com/meshintel/mlchem-digest/internal/source"
	"github.com/meshintel/mlchem-digest/internal/state"
	"github.com/meshintel/mlchem-digest/pkg/types"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Collect and deduplicate papers without summarizing or sending",
	Long: `Fetch runs the ingestion half of the pipeline: query all enabled
sources, keyword-filter, and deduplicate. Results are printed as a table
or JSON, or saved to a YAML run file with --out. No summaries are
generated and no email is sent; the watermark does not advance.`,
	RunE: runFetch,
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, err := loadPipelineConfig()
	if err != nil {
		return err
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	store, err := state.NewStore(cfg.State)
	if err != nil {
		return err
	}
	defer store.Close()

	since, err := resolveSince(ctx, cmd, store, time.Now(), cfg.Sources.Lookback)
	if err != nil {
		return err
	}

	client := &http.Client{Timeout: cfg.Sources.Timeout}
	p := &pipeline.Pipeline{
		Cfg:      cfg,
		Adapters: source.Enabled(cfg.Sources, client),
	}

	records, report := p.Collect(ctx, since, os.Stderr)

	if outPath, _ := cmd.Flags().GetString("out"); outPath != "" {
		if err := pipeline.WriteRunFile(outPath, records, report); err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Saved %d record(s) to %s\n", len(records), outPath)
		return nil
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	printRecordTable(records, report)
	return nil
}

func printRecordTable(records []types.PaperRecord, report pipeline.Report) {
	if len(records) == 0 {
		fmt.Println("No records found.")
		return
	}

	fmt.Fprintf(os.Stdout, "%-4s  %-60s  %-16s  %-10s  %s\n",
		"Rank", "Title", "Source", "Date", "DOI")
	for i, rec := range records {
		title := rec.Title
		if len(title) > 60 {
			title = title[:57] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-4d  %-60s  %-16s  %-10s  %s\n",
			i+1, title, rec.Source, rec.PublishedAt.Format("2006-01-02"), rec.DOI)
	}

	fmt.Fprintf(os.Stdout, "\n%d records", len(records))
	if report.DupsRemoved > 0 {
		fmt.Fprintf(os.Stdout, " (%d duplicates removed)", report.DupsRemoved)
	}
	fmt.Fprintln(os.Stdout)
}

func init() {
	fetchCmd.Flags().String("since", "", "fetch papers published after this date (YYYY-MM-DD; default: last delivered run)")
	fetchCmd.Flags().Duration("timeout", 5*time.Minute, "overall fetch timeout")
	fetchCmd.Flags().Bool("json", false, "output records as JSON")
	fetchCmd.Flags().String("out", "", "save records to a YAML run file")

	rootCmd.AddCommand(fetchCmd)
}
