// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package source

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/meshintel/mlchem-digest/internal/httputil"
	"github.com/meshintel/mlchem-digest/pkg/types"
)

// --- crossrefDate ---

func TestCrossrefDateFallbackChain(t *testing.T) {
	printed := crossrefDateParts{DateParts: [][]int{{2026, 8, 15}}}
	online := crossrefDateParts{DateParts: [][]int{{2026, 8, 10}}}
	created := crossrefCreated{DateTime: "2026-08-05T12:00:00Z"}

	tests := []struct {
		name string
		work crossrefWork
		want time.Time
	}{
		{
			name: "published-print wins",
			work: crossrefWork{PublishedPrint: printed, PublishedOnline: online, Created: created},
			want: time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "published-online when no print",
			work: crossrefWork{PublishedOnline: online, Created: created},
			want: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "created when no date-parts",
			work: crossrefWork{Created: created},
			want: time.Date(2026, 8, 5, 12, 0, 0, 0, time.UTC),
		},
		{
			name: "nothing yields zero time",
			work: crossrefWork{},
			want: time.Time{},
		},
		{
			name: "year-only parts default month and day",
			work: crossrefWork{PublishedPrint: crossrefDateParts{DateParts: [][]int{{2026}}}},
			want: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name: "year-month parts default day",
			work: crossrefWork{PublishedPrint: crossrefDateParts{DateParts: [][]int{{2026, 7}}}},
			want: time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := crossrefDate(tt.work); !got.Equal(tt.want) {
				t.Errorf("crossrefDate() = %v, want %v", got, tt.want)
			}
		})
	}
}

// --- stripJATS ---

func TestStripJATS(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain text", "plain text"},
		{"<jats:p>Some abstract.</jats:p>", " Some abstract. "},
		{"<jats:title>Abstract</jats:title><jats:p>Body</jats:p>", " Abstract  Body "},
		{"a < b but x > y", "a < b but x > y"},
	}
	for _, tt := range tests {
		if got := stripJATS(tt.in); got != tt.want {
			t.Errorf("stripJATS(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// --- Mock Crossref server ---

const sampleCrossrefJSON = `{
  "message": {
    "items": [
      {
        "DOI": "10.1021/acs.jpclett.6c01234",
        "title": ["Machine Learning for Polymer Design"],
        "abstract": "<jats:p>We apply deep learning to polymers.</jats:p>",
        "URL": "https://doi.org/10.1021/acs.jpclett.6c01234",
        "author": [
          {"given": "Dana", "family": "Example"},
          {"given": "", "family": "Lee"}
        ],
        "published-print": {"date-parts": [[2026, 8, 18]]}
      },
      {
        "DOI": "10.5555/other",
        "title": ["Second Work"],
        "URL": "https://doi.org/10.5555/other",
        "created": {"date-time": "2026-08-17T08:00:00Z"}
      }
    ]
  }
}`

func crossrefTestServer(statusCode int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprint(w, body)
	}))
}

// --- CrossrefAdapter.Fetch ---

func TestCrossrefAdapterFetch(t *testing.T) {
	ts := crossrefTestServer(http.StatusOK, sampleCrossrefJSON)
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	a := &CrossrefAdapter{Client: ts.Client()}
	records, err := a.Fetch(context.Background(), testSince, testSourcesCfg())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("len(records) = %d, want 2", len(records))
	}

	r0 := records[0]
	if r0.Source != types.SourceCrossref {
		t.Errorf("Source = %q, want crossref", r0.Source)
	}
	if r0.DOI != "10.1021/acs.jpclett.6c01234" {
		t.Errorf("DOI = %q, want normalized DOI", r0.DOI)
	}
	if r0.ExternalID != r0.DOI {
		t.Errorf("ExternalID = %q, want the DOI", r0.ExternalID)
	}
	if r0.Abstract != "We apply deep learning to polymers." {
		t.Errorf("Abstract = %q, want JATS stripped", r0.Abstract)
	}
	if len(r0.Authors) != 2 || r0.Authors[0] != "Dana Example" || r0.Authors[1] != "Lee" {
		t.Errorf("Authors = %v", r0.Authors)
	}
	if r0.PublishedAt.Day() != 18 {
		t.Errorf("PublishedAt = %v, want published-print date", r0.PublishedAt)
	}

	// Second item has only created.
	if records[1].PublishedAt.Day() != 17 {
		t.Errorf("fallback PublishedAt = %v, want created date", records[1].PublishedAt)
	}
}

func TestCrossrefAdapterSendsFilter(t *testing.T) {
	var gotFilter, gotSort, gotOrder string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotFilter = r.URL.Query().Get("filter")
		gotSort = r.URL.Query().Get("sort")
		gotOrder = r.URL.Query().Get("order")
		fmt.Fprint(w, `{"message":{"items":[]}}`)
	}))
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	a := &CrossrefAdapter{Client: ts.Client()}
	if _, err := a.Fetch(context.Background(), testSince, testSourcesCfg()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotFilter != "from-pub-date:2026-08-01" {
		t.Errorf("filter = %q, want from-pub-date:2026-08-01", gotFilter)
	}
	if gotSort != "published" || gotOrder != "desc" {
		t.Errorf("sort/order = %q/%q, want published/desc", gotSort, gotOrder)
	}
}

func TestCrossrefAdapterRetriesOn429(t *testing.T) {
	oldDelay := httputil.RetryBaseDelay
	httputil.RetryBaseDelay = time.Millisecond
	defer func() { httputil.RetryBaseDelay = oldDelay }()

	calls := 0
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, `{"message":{"items":[]}}`)
	}))
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	a := &CrossrefAdapter{Client: ts.Client()}
	if _, err := a.Fetch(context.Background(), testSince, testSourcesCfg()); err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if calls != 2 {
		t.Errorf("calls = %d, want 2 (one retry)", calls)
	}
}

func TestCrossrefAdapterHTTPError(t *testing.T) {
	ts := crossrefTestServer(http.StatusInternalServerError, "")
	defer ts.Close()

	old := crossrefAPIBase
	crossrefAPIBase = ts.URL
	defer func() { crossrefAPIBase = old }()

	a := &CrossrefAdapter{Client: ts.Client()}
	_, err := a.Fetch(context.Background(), testSince, testSourcesCfg())
	if err == nil || !strings.Contains(err.Error(), "HTTP 500") {
		t.Errorf("err = %v, want HTTP 500 error", err)
	}
}

func TestCrossrefAdapterName(t *testing.T) {
	a := &CrossrefAdapter{}
	if a.Name() != "crossref" {
		t.Errorf("Name() = %q, want crossref", a.Name())
	}
}
