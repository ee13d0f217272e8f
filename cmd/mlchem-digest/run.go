// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/meshintel/mlchem-digest/internal/digest"
	"github.com/meshintel/mlchem-digest/internal/pipeline"
	"github.com/meshintel/mlchem-digest/internal/source"
	"github.com/meshintel/mlchem-digest/internal/state"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Collect, summarize, and email today's digest",
	Long: `Run executes one full digest pass: fetch new papers from all enabled
sources since the last delivered run, keyword-filter, deduplicate,
summarize, and send the HTML digest over SMTP.

Nothing leaves the process until the final send step, so an aborted run
has no effect and the watermark only advances after successful delivery.`,
	RunE: runRun,
}

func runRun(cmd *cobra.Command, args []string) error {
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

	now := time.Now()
	since, err := resolveSince(ctx, cmd, store, now, cfg.Sources.Lookback)
	if err != nil {
		return err
	}

	dryRun, _ := cmd.Flags().GetBool("dry-run")

	client := &http.Client{Timeout: cfg.Sources.Timeout}
	var sender digest.Sender
	if dryRun {
		sender = discardSender{}
	} else {
		sender, err = digest.NewSMTPSender(cfg.Email)
		if err != nil {
			return err
		}
	}

	p := &pipeline.Pipeline{
		Cfg:      cfg,
		Adapters: source.Enabled(cfg.Sources, client),
		Summarizer: &digest.OpenAIBackend{
			APIKey: cfg.Summary.APIKey,
			Model:  cfg.Summary.Model,
			Client: client,
		},
		Sender: sender,
	}

	report, runErr := p.Run(ctx, since, os.Stderr)

	// Record the run whether or not delivery succeeded; only a delivered
	// run advances the watermark.
	recErr := store.RecordRun(context.Background(), state.Run{
		RanAt:     report.RanAt,
		Since:     report.Since,
		Fetched:   report.Fetched,
		Kept:      report.Matched - report.DupsRemoved,
		Delivered: report.Delivered && !dryRun,
	})
	if recErr != nil {
		fmt.Fprintf(os.Stderr, "warning: could not record run: %v\n", recErr)
	}

	if runErr != nil {
		return runErr
	}

	for src, n := range report.Counts {
		fmt.Fprintf(os.Stdout, "%-18s %d\n", src, n)
	}
	fmt.Fprintf(os.Stdout, "matched %d, duplicates removed %d\n", report.Matched, report.DupsRemoved)
	return nil
}

// resolveSince picks the fetch cutoff: an explicit --since flag wins,
// otherwise the stored watermark.
func resolveSince(ctx context.Context, cmd *cobra.Command, store *state.Store, now time.Time, lookback time.Duration) (time.Time, error) {
	if flagVal, _ := cmd.Flags().GetString("since"); flagVal != "" {
		t, err := time.Parse("2006-01-02", flagVal)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid --since %q: %w", flagVal, err)
		}
		return t, nil
	}
	return store.Watermark(ctx, now, lookback)
}

// discardSender satisfies digest.Sender for --dry-run: it prints the
// rendered digest instead of submitting it.
type discardSender struct{}

func (discardSender) Send(subject, htmlBody string) error {
	fmt.Fprintf(os.Stdout, "Subject: %s\n\n%s\n", subject, htmlBody)
	return nil
}

func init() {
	runCmd.Flags().String("since", "", "fetch papers published after this date (YYYY-MM-DD; default: last delivered run)")
	runCmd.Flags().Duration("timeout", 10*time.Minute, "overall run timeout")
	runCmd.Flags().Bool("dry-run", false, "print the digest instead of emailing it")

	rootCmd.AddCommand(runCmd)
}
