// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/meshintel/mlchem-digest/internal/dedup"
	"github.com/meshintel/mlchem-digest/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivAdapter queries the arXiv Atom API.
type ArxivAdapter struct {
	Client *http.Client
}

// Name returns the adapter identifier.
func (a *ArxivAdapter) Name() string { return string(types.SourceArxiv) }

// Fetch queries arXiv for recent submissions matching the configured query
// hint, newest first. arXiv has no published-since parameter, so the since
// cutoff is enforced by the caller on the returned records.
func (a *ArxivAdapter) Fetch(ctx context.Context, since time.Time, cfg types.SourcesConfig) ([]types.PaperRecord, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 60
	}

	q := buildArxivQuery(cfg.QueryHint)
	reqURL := fmt.Sprintf("%s?search_query=%s&sortBy=submittedDate&sortOrder=descending&max_results=%d",
		arxivAPIBase, url.QueryEscape(q), maxResults)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arXiv API returned HTTP %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	var records []types.PaperRecord
	for _, entry := range feed.Entries {
		arxivID := extractArxivID(entry.ID)
		if arxivID == "" {
			continue
		}

		rec := types.PaperRecord{
			Source:     types.SourceArxiv,
			ExternalID: arxivID,
			Title:      normalizeText(entry.Title),
			Abstract:   normalizeText(entry.Summary),
			URL:        entry.ID,
			DOI:        dedup.NormalizeDOI(entry.DOI),
		}

		for _, au := range entry.Authors {
			rec.Authors = append(rec.Authors, strings.TrimSpace(au.Name))
		}

		if t, parseErr := time.Parse(time.RFC3339, entry.Published); parseErr == nil {
			rec.PublishedAt = t
		} else if t, parseErr := time.Parse(time.RFC3339, entry.Updated); parseErr == nil {
			rec.PublishedAt = t
		}

		records = append(records, rec)
	}
	return records, nil
}

// buildArxivQuery constructs the search_query parameter. Each hint term is
// an all: clause; multi-word terms are quoted so arXiv matches the phrase.
func buildArxivQuery(hint string) string {
	terms := splitHint(hint)
	if len(terms) == 0 {
		return "all:electron"
	}
	parts := make([]string, len(terms))
	for i, term := range terms {
		if strings.Contains(term, " ") {
			parts[i] = fmt.Sprintf("all:%q", term)
		} else {
			parts[i] = "all:" + term
		}
	}
	return strings.Join(parts, " OR ")
}

// splitHint splits a comma-separated hint into trimmed terms.
func splitHint(hint string) []string {
	var terms []string
	for _, t := range strings.Split(hint, ",") {
		if t = strings.TrimSpace(t); t != "" {
			terms = append(terms, t)
		}
	}
	return terms
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Updated   string        `xml:"updated"`
	DOI       string        `xml:"doi"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
