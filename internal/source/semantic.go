// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meshintel/mlchem-digest/internal/dedup"
	"github.com/meshintel/mlchem-digest/internal/httputil"
	"github.com/meshintel/mlchem-digest/pkg/types"
)

// semanticAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const semanticFields = "title,abstract,authors,externalIds,url,publicationDate"

// SemanticScholarAdapter queries the Semantic Scholar graph API. The
// adapter is optional: without an API key it is never constructed.
type SemanticScholarAdapter struct {
	Client *http.Client
	APIKey string
}

// Name returns the adapter identifier.
func (a *SemanticScholarAdapter) Name() string { return string(types.SourceSemanticScholar) }

// Fetch queries Semantic Scholar, newest first. The API filters by year
// only, so the finer since cutoff is enforced by the caller.
func (a *SemanticScholarAdapter) Fetch(ctx context.Context, since time.Time, cfg types.SourcesConfig) ([]types.PaperRecord, error) {
	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 60
	}

	params := url.Values{
		"query":  {strings.Join(splitHint(cfg.QueryHint), " ")},
		"limit":  {fmt.Sprintf("%d", maxResults)},
		"fields": {semanticFields},
		"sort":   {"publicationDate:desc"},
		"year":   {fmt.Sprintf("%d-", since.Year())},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)
	req.Header.Set("x-api-key", a.APIKey)

	resp, err := httputil.DoWithRetry(ctx, a.Client, req, 0)
	if err != nil {
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Semantic Scholar API returned HTTP %d", resp.StatusCode)
	}

	var sr semanticResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	var records []types.PaperRecord
	for _, paper := range sr.Data {
		rec := types.PaperRecord{
			Source:     types.SourceSemanticScholar,
			ExternalID: paper.PaperID,
			Title:      normalizeText(paper.Title),
			Abstract:   normalizeText(paper.Abstract),
			URL:        paper.URL,
			DOI:        dedup.NormalizeDOI(paper.ExternalIDs.DOI),
		}

		for _, au := range paper.Authors {
			rec.Authors = append(rec.Authors, au.Name)
		}

		if paper.PublicationDate != "" {
			if t, parseErr := time.Parse("2006-01-02", paper.PublicationDate); parseErr == nil {
				rec.PublishedAt = t
			}
		}

		records = append(records, rec)
	}
	return records, nil
}

// Semantic Scholar API JSON structures.
type semanticResponse struct {
	Total int             `json:"total"`
	Data  []semanticPaper `json:"data"`
}

type semanticPaper struct {
	PaperID         string              `json:"paperId"`
	Title           string              `json:"title"`
	Abstract        string              `json:"abstract"`
	URL             string              `json:"url"`
	PublicationDate string              `json:"publicationDate"`
	Authors         []semanticAuthor    `json:"authors"`
	ExternalIDs     semanticExternalIDs `json:"externalIds"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
}
