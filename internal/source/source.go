// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package source queries paper-metadata providers and normalizes their
// entries into PaperRecords. Adapters only fetch and normalize; keyword
// filtering happens downstream so matching logic stays uniform across
// sources with differing field richness.
package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/meshintel/mlchem-digest/pkg/types"
)

// Adapter fetches recent entries from a single provider. Each call
// re-queries the upstream API; results are not cached across calls.
type Adapter interface {
	Name() string
	Fetch(ctx context.Context, since time.Time, cfg types.SourcesConfig) ([]types.PaperRecord, error)
}

// FetchOutput holds the merged adapter output and per-source statistics.
type FetchOutput struct {
	Records  []types.PaperRecord
	Counts   map[types.Source]int
	Warnings []string
	Dropped  int
}

// Enabled assembles the adapter set from configuration. The Semantic
// Scholar adapter is treated as disabled when its API key is absent,
// matching the provider's credential requirement.
func Enabled(cfg types.SourcesConfig, client *http.Client) []Adapter {
	var adapters []Adapter
	if cfg.EnableArxiv {
		adapters = append(adapters, &ArxivAdapter{Client: client})
	}
	if cfg.EnableCrossref {
		adapters = append(adapters, &CrossrefAdapter{Client: client})
	}
	if cfg.EnableBiorxiv {
		adapters = append(adapters, &BiorxivAdapter{Client: client})
	}
	if cfg.EnableSemanticScholar && cfg.SemanticScholarAPIKey != "" {
		adapters = append(adapters, &SemanticScholarAdapter{Client: client, APIKey: cfg.SemanticScholarAPIKey})
	}
	return adapters
}

// FetchAll fans out to all adapters concurrently and merges their output.
// A failing adapter contributes zero records and a warning; it never aborts
// the run. Records older than since or failing required-field validation
// are dropped here, before they reach the keyword filter.
func FetchAll(ctx context.Context, adapters []Adapter, since time.Time, cfg types.SourcesConfig, w io.Writer) FetchOutput {
	type adapterResult struct {
		name    string
		records []types.PaperRecord
		err     error
	}

	ch := make(chan adapterResult, len(adapters))
	var wg sync.WaitGroup

	for _, a := range adapters {
		wg.Add(1)
		go func(a Adapter) {
			defer wg.Done()
			records, err := a.Fetch(ctx, since, cfg)
			ch <- adapterResult{name: a.Name(), records: records, err: err}
		}(a)
	}

	go func() {
		wg.Wait()
		close(ch)
	}()

	out := FetchOutput{Counts: make(map[types.Source]int)}
	for ar := range ch {
		if ar.err != nil {
			msg := fmt.Sprintf("%s: %v", ar.name, ar.err)
			out.Warnings = append(out.Warnings, msg)
			fmt.Fprintf(w, "warning: source %s unavailable: %v\n", ar.name, ar.err)
			continue
		}
		for _, rec := range ar.records {
			if err := rec.Validate(); err != nil {
				out.Dropped++
				continue
			}
			if rec.PublishedAt.Before(since) {
				continue
			}
			out.Records = append(out.Records, rec)
			out.Counts[rec.Source]++
		}
	}
	return out
}

// normalizeText collapses runs of whitespace to single spaces. Feed titles
// and abstracts arrive with embedded newlines and indentation.
func normalizeText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
