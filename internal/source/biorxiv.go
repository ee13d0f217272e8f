// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/meshintel/mlchem-digest/internal/dedup"
	"github.com/meshintel/mlchem-digest/pkg/types"
)

// biorxivFeedURL is the bioRxiv collection feed. Declared as a var so tests
// can substitute an httptest server.
var biorxivFeedURL = "https://connect.biorxiv.org/relate/feed/181"

// BiorxivAdapter reads the bioRxiv RSS feed. bioRxiv has no query API for
// this collection, so the adapter takes whatever the feed carries and the
// since cutoff is enforced by the caller.
type BiorxivAdapter struct {
	Client *http.Client
}

// Name returns the adapter identifier.
func (a *BiorxivAdapter) Name() string { return string(types.SourceBiorxiv) }

// Fetch parses the collection feed and normalizes its items.
func (a *BiorxivAdapter) Fetch(ctx context.Context, since time.Time, cfg types.SourcesConfig) ([]types.PaperRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, biorxivFeedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", cfg.UserAgent)

	resp, err := a.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bioRxiv feed request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bioRxiv feed returned HTTP %d", resp.StatusCode)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing bioRxiv feed: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 60
	}

	var records []types.PaperRecord
	for i, item := range feed.Items {
		if i >= maxResults {
			break
		}

		rec := types.PaperRecord{
			Source:     types.SourceBiorxiv,
			ExternalID: item.GUID,
			Title:      normalizeText(item.Title),
			Abstract:   normalizeText(item.Description),
			URL:        item.Link,
			DOI:        dedup.NormalizeDOI(biorxivDOI(item)),
		}
		if rec.ExternalID == "" {
			rec.ExternalID = item.Link
		}

		for _, au := range item.Authors {
			if au != nil && au.Name != "" {
				rec.Authors = append(rec.Authors, au.Name)
			}
		}

		if item.PublishedParsed != nil {
			rec.PublishedAt = *item.PublishedParsed
		} else if item.UpdatedParsed != nil {
			rec.PublishedAt = *item.UpdatedParsed
		}

		records = append(records, rec)
	}
	return records, nil
}

// biorxivDOI extracts the DOI from a feed item. bioRxiv puts it in the
// Dublin Core identifier extension ("doi:10.1101/...") when present.
func biorxivDOI(item *gofeed.Item) string {
	if dc, ok := item.Extensions["dc"]; ok {
		for _, ext := range dc["identifier"] {
			if ext.Value != "" {
				return ext.Value
			}
		}
	}
	return ""
}
