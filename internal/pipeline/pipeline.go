// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates one digest run: fetch from all sources,
// filter, dedupe, summarize, render, and deliver. Every outward effect is
// deferred to the single terminal send step, so an abort at any earlier
// point is a no-op.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/meshintel/mlchem-digest/internal/dedup"
	"github.com/meshintel/mlchem-digest/internal/digest"
	"github.com/meshintel/mlchem-digest/internal/filter"
	"github.com/meshintel/mlchem-digest/internal/source"
	"github.com/meshintel/mlchem-digest/pkg/types"
)

// Pipeline wires the stages of one digest run. Adapters, summarizer, and
// sender are injected so tests can run the whole pipeline offline.
type Pipeline struct {
	Cfg        types.PipelineConfig
	Adapters   []source.Adapter
	Summarizer digest.Summarizer
	Sender     digest.Sender
	Now        func() time.Time
}

// Report summarizes one run for the caller and the run history.
type Report struct {
	Since       time.Time             `yaml:"since"`
	RanAt       time.Time             `yaml:"ran_at"`
	Counts      map[types.Source]int  `yaml:"counts"`
	Warnings    []string              `yaml:"warnings,omitempty"`
	Fetched     int                   `yaml:"fetched"`
	Matched     int                   `yaml:"matched"`
	DupsRemoved int                   `yaml:"dups_removed"`
	Entries     []types.DigestEntry   `yaml:"-"`
	Delivered   bool                  `yaml:"delivered"`
	Skipped     bool                  `yaml:"skipped"`
}

// Collect runs the read-only half of the pipeline: fetch, validate,
// filter, and dedupe. It performs no outward effects.
func (p *Pipeline) Collect(ctx context.Context, since time.Time, w io.Writer) ([]types.PaperRecord, Report) {
	report := Report{
		Since: since,
		RanAt: p.now(),
	}

	out := source.FetchAll(ctx, p.Adapters, since, p.Cfg.Sources, w)
	report.Counts = out.Counts
	report.Warnings = out.Warnings
	report.Fetched = len(out.Records)

	matched := filter.Apply(filter.Topic(p.Cfg.Filter), out.Records)
	report.Matched = len(matched)

	deduped := dedup.New(p.Cfg.Dedup).Dedupe(matched)
	report.DupsRemoved = len(matched) - len(deduped)

	return deduped, report
}

// Run executes a full digest run. Per-source and per-record failures are
// isolated and reported as warnings; only a delivery failure is returned
// as an error. Runs collecting fewer than the configured minimum finish
// successfully without sending.
func (p *Pipeline) Run(ctx context.Context, since time.Time, w io.Writer) (Report, error) {
	records, report := p.Collect(ctx, since, w)

	minItems := p.Cfg.Email.MinItems
	if minItems <= 0 {
		minItems = 1
	}
	if len(records) < minItems {
		fmt.Fprintf(w, "collected %d record(s), below minimum %d; skipping delivery\n", len(records), minItems)
		report.Skipped = true
		return report, nil
	}

	report.Entries = digest.SummarizeAll(ctx, p.Summarizer, records, p.Cfg.Summary.MaxRetries, w)

	if err := ctx.Err(); err != nil {
		return report, err
	}

	html, err := digest.ComposeHTML(report.Entries, p.Cfg.Filter, report.RanAt)
	if err != nil {
		return report, err
	}

	if err := p.Sender.Send(digest.Subject(report.RanAt), html); err != nil {
		return report, fmt.Errorf("delivering digest: %w", err)
	}
	report.Delivered = true

	fmt.Fprintf(w, "delivered digest with %d item(s)\n", len(report.Entries))
	return report, nil
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}
