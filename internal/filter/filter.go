// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package filter decides which records belong in the digest. Filters are
// pure predicates over PaperRecords; composite filters are built from the
// keyword-set primitive with And/Or combinators.
package filter

import (
	"strings"
	"unicode"

	"github.com/meshintel/mlchem-digest/pkg/types"
)

// Filter is a deterministic, side-effect-free predicate over records.
type Filter interface {
	Matches(rec types.PaperRecord) bool
}

// Func adapts a plain function to the Filter interface.
type Func func(rec types.PaperRecord) bool

// Matches calls f.
func (f Func) Matches(rec types.PaperRecord) bool { return f(rec) }

// Keywords matches records whose title or abstract contains at least one of
// the given keywords. Matching is case-insensitive on word boundaries; an
// empty abstract degrades to title-only matching.
func Keywords(words []string) Filter {
	lowered := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			lowered = append(lowered, w)
		}
	}
	return Func(func(rec types.PaperRecord) bool {
		text := strings.ToLower(rec.Title + " " + rec.Abstract)
		for _, w := range lowered {
			if containsWord(text, w) {
				return true
			}
		}
		return false
	})
}

// And matches records accepted by every given filter.
func And(filters ...Filter) Filter {
	return Func(func(rec types.PaperRecord) bool {
		for _, f := range filters {
			if !f.Matches(rec) {
				return false
			}
		}
		return true
	})
}

// Or matches records accepted by any given filter.
func Or(filters ...Filter) Filter {
	return Func(func(rec types.PaperRecord) bool {
		for _, f := range filters {
			if f.Matches(rec) {
				return true
			}
		}
		return false
	})
}

// Topic builds the ML×chemistry inclusion rule: at least one ML keyword AND
// at least one chemistry keyword must match.
func Topic(cfg types.FilterConfig) Filter {
	return And(Keywords(cfg.MLKeywords), Keywords(cfg.ChemKeywords))
}

// Apply returns the records accepted by f, preserving input order.
func Apply(f Filter, records []types.PaperRecord) []types.PaperRecord {
	var out []types.PaperRecord
	for _, rec := range records {
		if f.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out
}

// containsWord reports whether keyword occurs in text on word boundaries.
// A multi-word keyword matches as a phrase. "transformer" matches in
// "a transformer model" but not inside "biotransformers".
func containsWord(text, keyword string) bool {
	for start := 0; ; {
		idx := strings.Index(text[start:], keyword)
		if idx < 0 {
			return false
		}
		idx += start
		if boundaryBefore(text, idx) && boundaryAfter(text, idx+len(keyword)) {
			return true
		}
		start = idx + 1
		if start >= len(text) {
			return false
		}
	}
}

func boundaryBefore(text string, idx int) bool {
	if idx == 0 {
		return true
	}
	r := rune(text[idx-1])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}

func boundaryAfter(text string, idx int) bool {
	if idx >= len(text) {
		return true
	}
	r := rune(text[idx])
	return !unicode.IsLetter(r) && !unicode.IsDigit(r)
}
