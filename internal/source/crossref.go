// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/meshintel/mlchem-digest/internal/dedup"
	"github.com/meshintel/mlchem-digest/internal/httputil"
	"github.com/meshintel/mlchem-digest/pkg/types"
)

// crossrefAPIBase is the Crossref works endpoint. Declared as a var so
// tests can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org/works"

// CrossrefAdapter queries the Crossref REST API.
type CrossrefAdapter struct {
	Client *http.Client
}

// Name returns the adapter identifier.
func (a *CrossrefAdapter) Name() string { return string(types.SourceCrossref) }

// Fetch queries Crossref for works published since the given date, newest
// first. Crossref filters server-side via from-pub-date.
func (a *CrossrefAdapter) Fetch(ctx context.Context, since time.Time, cfg types.SourcesConfig) ([]types.PaperRecord, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 60
	}

	params := url.Values{
		"query":  {strings.Join(splitHint(cfg.QueryHint), " ")},
		"filter": {"from-pub-date:" + since.UTC().Format("2006-01-02")},
		"rows":   {fmt.Sprintf("%d", maxResults)},
		"sort":   {"published"},
		"order":  {"desc"},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, crossrefAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Crossref API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Crossref API returned HTTP %d", resp.StatusCode)
	}

	var cr crossrefResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return nil, fmt.Errorf("parsing Crossref response: %w", err)
	}

	var records []types.PaperRecord
	for _, work := range cr.Message.Items {
		doi := dedup.NormalizeDOI(work.DOI)
		rec := types.PaperRecord{
			Source:      types.SourceCrossref,
			ExternalID:  doi,
			Title:       normalizeText(strings.Join(work.Title, " ")),
			Abstract:    normalizeText(stripJATS(work.Abstract)),
			PublishedAt: crossrefDate(work),
			DOI:         doi,
			URL:         work.URL,
		}

		for _, au := range work.Authors {
			name := strings.TrimSpace(strings.TrimSpace(au.Given) + " " + strings.TrimSpace(au.Family))
			if name != "" {
				rec.Authors = append(rec.Authors, name)
			}
		}

		records = append(records, rec)
	}
	return records, nil
}

// crossrefDate resolves the publication date with the fallback chain
// published-print → published-online → created. Partial date-parts default
// the missing month and day to 1.
func crossrefDate(work crossrefWork) time.Time {
	if t, ok := dateFromParts(work.PublishedPrint.DateParts); ok {
		return t
	}
	if t, ok := dateFromParts(work.PublishedOnline.DateParts); ok {
		return t
	}
	if work.Created.DateTime != "" {
		if t, err := time.Parse(time.RFC3339, work.Created.DateTime); err == nil {
			return t
		}
	}
	return time.Time{}
}

func dateFromParts(parts [][]int) (time.Time, bool) {
	if len(parts) == 0 || len(parts[0]) == 0 || parts[0][0] == 0 {
		return time.Time{}, false
	}
	p := parts[0]
	year, month, day := p[0], 1, 1
	if len(p) > 1 && p[1] > 0 {
		month = p[1]
	}
	if len(p) > 2 && p[2] > 0 {
		day = p[2]
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

// jatsTag matches JATS markup embedded in Crossref abstracts, e.g.
// <jats:p> or <jats:title>.
var jatsTag = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)

// stripJATS removes XML markup from a Crossref abstract, leaving plain text.
func stripJATS(s string) string {
	return jatsTag.ReplaceAllString(s, " ")
}

// Crossref API JSON structures.
type crossrefResponse struct {
	Message crossrefMessage `json:"message"`
}

type crossrefMessage struct {
	Items []crossrefWork `json:"items"`
}

type crossrefWork struct {
	DOI             string            `json:"DOI"`
	Title           []string          `json:"title"`
	Abstract        string            `json:"abstract"`
	URL             string            `json:"URL"`
	Authors         []crossrefAuthor  `json:"author"`
	PublishedPrint  crossrefDateParts `json:"published-print"`
	PublishedOnline crossrefDateParts `json:"published-online"`
	Created         crossrefCreated   `json:"created"`
}

type crossrefAuthor struct {
	Given  string `json:"given"`
	Family string `json:"family"`
}

type crossrefDateParts struct {
	DateParts [][]int `json:"date-parts"`
}

type crossrefCreated struct {
	DateTime string `json:"date-time"`
}
