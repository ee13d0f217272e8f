// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the mlchem-digest pipeline.
package types

import (
	"fmt"
	"time"
)

// Source identifies a paper-metadata provider.
type Source string

const (
	SourceArxiv           Source = "arxiv"
	SourceCrossref        Source = "crossref"
	SourceBiorxiv         Source = "biorxiv"
	SourceSemanticScholar Source = "semantic_scholar"
)

// DefaultSourceRank orders providers by metadata completeness. Higher values
// win when the deduplicator merges records describing the same paper.
var DefaultSourceRank = map[Source]int{
	SourceCrossref:        4,
	SourceArxiv:           3,
	SourceSemanticScholar: 2,
	SourceBiorxiv:         1,
}

// PaperRecord is the unit flowing through the pipeline. A record is created
// once by a source adapter and never mutated afterwards; the deduplicator
// produces merged copies rather than editing records in place.
type PaperRecord struct {
	// Source is the originating provider.
	Source Source `json:"source" yaml:"source"`

	// ExternalID is the provider-specific identifier (arXiv ID, DOI,
	// Semantic Scholar paper ID). Unique within one source only.
	ExternalID string `json:"external_id" yaml:"external_id"`

	// Title is the paper title. Required.
	Title string `json:"title" yaml:"title"`

	// Abstract is the paper abstract or feed summary. May be empty.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Authors lists the paper authors in source order. May be empty.
	Authors []string `json:"authors,omitempty" yaml:"authors,omitempty"`

	// PublishedAt is the publication or preprint date. Required.
	PublishedAt time.Time `json:"published_at" yaml:"published_at"`

	// DOI is the normalized DOI (lowercase, no URL prefix) when the
	// provider supplies one. The strongest cross-source identity key.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL is the canonical link to the paper. Required.
	URL string `json:"url" yaml:"url"`
}

// Validate reports whether the record carries the required fields. Records
// failing validation are dropped before keyword filtering.
func (r PaperRecord) Validate() error {
	if r.Title == "" {
		return fmt.Errorf("record from %s missing title", r.Source)
	}
	if r.URL == "" {
		return fmt.Errorf("record %q from %s missing url", r.Title, r.Source)
	}
	if r.PublishedAt.IsZero() {
		return fmt.Errorf("record %q from %s missing published date", r.Title, r.Source)
	}
	return nil
}

// DigestEntry is a deduplicated record annotated with a generated summary.
// Summary may hold a placeholder when summarization failed for the record.
type DigestEntry struct {
	PaperRecord `yaml:",inline"`

	Summary string `json:"summary,omitempty" yaml:"summary,omitempty"`
}
