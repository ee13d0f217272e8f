// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/meshintel/mlchem-digest/pkg/types"
)

// --- Mock bioRxiv feed server ---

const sampleBiorxivRSS = `<?xml version="1.0" encoding="UTF-8"?>
<rdf:RDF xmlns:rdf="http://www.w3.org/1999/02/22-rdf-syntax-ns#"
         xmlns="http://purl.org/rss/1.0/"
         xmlns:dc="http://purl.org/dc/elements/1.1/">
<channel rdf:about="https://connect.biorxiv.org/relate/feed/181">
<title>bioRxiv Subject Collection</title>
<link>https://www.biorxiv.org</link>
<description>recent preprints</description>
</channel>
<item rdf:about="https://www.biorxiv.org/content/10.1101/2026.08.19.612345v1">
<title>Deep Learning Prediction of
  Enzyme Catalysis</title>
<link>https://www.biorxiv.org/content/10.1101/2026.08.19.612345v1</link>
<description>We predict catalytic activity with a neural network.</description>
<dc:identifier>doi:10.1101/2026.08.19.612345</dc:identifier>
<dc:date>2026-08-19T00:00:00Z</dc:date>
<dc:creator>Eve Example</dc:creator>
</item>
<item rdf:about="https://www.biorxiv.org/content/10.1101/2026.08.18.698765v1">
<title>Second Preprint</title>
<link>https://www.biorxiv.org/content/10.1101/2026.08.18.698765v1</link>
<description>Another abstract.</description>
<dc:date>2026-08-18T00:00:00Z</dc:date>
</item>
</rdf:RDF>`

func biorxivTestServer(statusCode int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.WriteHeader(statusCode)
		fmt.Fprint(w, body)
	}))
}

// --- BiorxivAdapter.Fetch ---

func TestBiorxivAdapterFetch(t *testing.T) {
	ts := biorxivTestServer(http.StatusOK, sampleBiorxivRSS)
	defer ts.Close()

	old := biorxivFeedURL
	biorxivFeedURL = ts.URL
	defer func() { biorxivFeedURL = old }()

	a := &BiorxivAdapter{Client: ts.Client()}
	records, err := a.Fetch(context.Background(), testSince, testSourcesCfg())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	r0 := records[0]
	if r0.Source != types.SourceBiorxiv {
		t.Errorf("Source = %q, want biorxiv", r0.Source)
	}
	if r0.Title != "Deep Learning Prediction of Enzyme Catalysis" {
		t.Errorf("Title = %q, want whitespace collapsed", r0.Title)
	}
	// DOI comes from the Dublin Core identifier, normalized.
	if r0.DOI != "10.1101/2026.08.19.612345" {
		t.Errorf("DOI = %q, want normalized dc:identifier", r0.DOI)
	}
	if r0.URL != "https://www.biorxiv.org/content/10.1101/2026.08.19.612345v1" {
		t.Errorf("URL = %q", r0.URL)
	}
	if r0.ExternalID == "" {
		t.Error("ExternalID is empty, want GUID or link")
	}
	if r0.PublishedAt.IsZero() {
		t.Error("PublishedAt is zero, want dc:date")
	}

	// Item without dc:identifier carries no DOI.
	if records[1].DOI != "" {
		t.Errorf("DOI = %q, want empty without dc:identifier", records[1].DOI)
	}
}

func TestBiorxivAdapterCapsAtMaxResults(t *testing.T) {
	ts := biorxivTestServer(http.StatusOK, sampleBiorxivRSS)
	defer ts.Close()

	old := biorxivFeedURL
	biorxivFeedURL = ts.URL
	defer func() { biorxivFeedURL = old }()

	cfg := testSourcesCfg()
	cfg.MaxResults = 1

	a := &BiorxivAdapter{Client: ts.Client()}
	records, err := a.Fetch(context.Background(), testSince, cfg)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("len(records) = %d, want 1 with MaxResults=1", len(records))
	}
}

func TestBiorxivAdapterHTTPError(t *testing.T) {
	ts := biorxivTestServer(http.StatusBadGateway, "")
	defer ts.Close()

	old := biorxivFeedURL
	biorxivFeedURL = ts.URL
	defer func() { biorxivFeedURL = old }()

	a := &BiorxivAdapter{Client: ts.Client()}
	_, err := a.Fetch(context.Background(), testSince, testSourcesCfg())
	if err == nil || !strings.Contains(err.Error(), "HTTP 502") {
		t.Errorf("err = %v, want HTTP 502 error", err)
	}
}

func TestBiorxivAdapterMalformedFeed(t *testing.T) {
	ts := biorxivTestServer(http.StatusOK, "this is not a feed")
	defer ts.Close()

	old := biorxivFeedURL
	biorxivFeedURL = ts.URL
	defer func() { biorxivFeedURL = old }()

	a := &BiorxivAdapter{Client: ts.Client()}
	_, err := a.Fetch(context.Background(), testSince, testSourcesCfg())
	if err == nil || !strings.Contains(err.Error(), "parsing") {
		t.Errorf("err = %v, want parsing error", err)
	}
}

func TestBiorxivAdapterName(t *testing.T) {
	a := &BiorxivAdapter{}
	if a.Name() != "biorxiv" {
		t.Errorf("Name() = %q, want biorxiv", a.Name())
	}
}
