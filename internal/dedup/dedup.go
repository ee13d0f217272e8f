// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package dedup collapses records describing the same paper across sources
// and fixes the output order of a run.
package dedup

import (
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/meshintel/mlchem-digest/pkg/types"
)

// DefaultDateWindow is the tolerance for title-based matches. Preprint and
// journal versions of the same paper drift by a few days across providers.
const DefaultDateWindow = 72 * time.Hour

// Deduper merges and orders records. The zero value is not usable; use New.
type Deduper struct {
	cfg  types.DedupConfig
	rank map[types.Source]int
}

// New builds a Deduper from configuration, falling back to the default
// date window and source ranking where unset.
func New(cfg types.DedupConfig) *Deduper {
	if cfg.DateWindow <= 0 {
		cfg.DateWindow = DefaultDateWindow
	}
	rank := cfg.SourceRank
	if len(rank) == 0 {
		rank = types.DefaultSourceRank
	}
	return &Deduper{cfg: cfg, rank: rank}
}

// Dedupe collapses duplicates and returns the survivors ordered by
// publication date descending, ties broken by source rank then title. The
// operation is idempotent and insensitive to input order: the same input
// set in any order yields the same output.
func (d *Deduper) Dedupe(records []types.PaperRecord) []types.PaperRecord {
	// Canonicalize processing order first so merge outcomes never depend
	// on arrival order.
	sorted := make([]types.PaperRecord, len(records))
	copy(sorted, records)
	d.sortCanonical(sorted)

	// Pairwise comparison against the kept set. Quadratic, but a daily run
	// sees tens to low hundreds of records.
	var kept []types.PaperRecord
	for _, rec := range sorted {
		matched := false
		for i := range kept {
			if d.samePaper(kept[i], rec) {
				kept[i] = d.merge(kept[i], rec)
				matched = true
				break
			}
		}
		if !matched {
			kept = append(kept, rec)
		}
	}

	d.sortCanonical(kept)
	return kept
}

// samePaper implements the equality decision in priority order: equal
// non-empty normalized DOIs always match; otherwise equal normalized titles
// match when the publication dates fall within the date window.
func (d *Deduper) samePaper(a, b types.PaperRecord) bool {
	if a.DOI != "" && b.DOI != "" {
		return a.DOI == b.DOI
	}
	if NormalizeTitle(a.Title) != NormalizeTitle(b.Title) {
		return false
	}
	diff := a.PublishedAt.Sub(b.PublishedAt)
	if diff < 0 {
		diff = -diff
	}
	return diff <= d.cfg.DateWindow
}

// merge keeps the record from the higher-ranked source and fills its empty
// fields from the other. Because processing order is canonical and the
// winner is decided by rank, merging is order-independent.
func (d *Deduper) merge(a, b types.PaperRecord) types.PaperRecord {
	win, lose := a, b
	if d.less(a, b) {
		win, lose = b, a
	}

	if win.DOI == "" {
		win.DOI = lose.DOI
	}
	if win.Abstract == "" {
		win.Abstract = lose.Abstract
	}
	if len(win.Authors) == 0 {
		win.Authors = lose.Authors
	}
	if win.URL == "" {
		win.URL = lose.URL
	}
	return win
}

// less orders a before b in canonical order: source rank descending, then
// publication date descending, then title, then external ID. Used both for
// picking merge winners (higher rank wins) and inside sortCanonical.
func (d *Deduper) less(a, b types.PaperRecord) bool {
	if ra, rb := d.rank[a.Source], d.rank[b.Source]; ra != rb {
		return ra < rb
	}
	if !a.PublishedAt.Equal(b.PublishedAt) {
		return a.PublishedAt.Before(b.PublishedAt)
	}
	if a.Title != b.Title {
		return a.Title > b.Title
	}
	return a.ExternalID > b.ExternalID
}

// sortCanonical orders records newest first, ties by source rank then
// title, then external ID. This is the digest presentation order and also
// the processing order that makes Dedupe deterministic.
func (d *Deduper) sortCanonical(records []types.PaperRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		if ra, rb := d.rank[a.Source], d.rank[b.Source]; ra != rb {
			return ra > rb
		}
		if a.Title != b.Title {
			return a.Title < b.Title
		}
		return a.ExternalID < b.ExternalID
	})
}

// NormalizeDOI strips URL and scheme prefixes from a DOI and lowercases it
// so equal papers from different sources compare equal.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(doi)
	doi = strings.TrimPrefix(doi, "https://doi.org/")
	doi = strings.TrimPrefix(doi, "http://doi.org/")
	doi = strings.TrimPrefix(doi, "http://dx.doi.org/")
	doi = strings.TrimPrefix(doi, "doi:")
	return strings.ToLower(doi)
}

// NormalizeTitle returns a lowercased, punctuation-stripped,
// whitespace-collapsed version of the title.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}
