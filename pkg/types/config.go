// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "mlchem-digest/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SourcesConfig holds settings for the ingestion stage.
type SourcesConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// MaxResults caps the number of entries requested per provider (default 60).
	MaxResults int `json:"max_results" yaml:"max_results" mapstructure:"max_results"`

	// Lookback is how far back a run reaches when no watermark exists
	// (default 30h, one day plus slack for provider indexing lag).
	Lookback time.Duration `json:"lookback" yaml:"lookback" mapstructure:"lookback"`

	// EnableArxiv controls whether the arXiv adapter is queried.
	EnableArxiv bool `json:"enable_arxiv" yaml:"enable_arxiv" mapstructure:"enable_arxiv"`

	// EnableCrossref controls whether the Crossref adapter is queried.
	EnableCrossref bool `json:"enable_crossref" yaml:"enable_crossref" mapstructure:"enable_crossref"`

	// EnableBiorxiv controls whether the bioRxiv adapter is queried.
	EnableBiorxiv bool `json:"enable_biorxiv" yaml:"enable_biorxiv" mapstructure:"enable_biorxiv"`

	// EnableSemanticScholar controls whether the Semantic Scholar adapter is
	// queried. The adapter additionally requires an API key and silently
	// disables itself without one.
	EnableSemanticScholar bool `json:"enable_semantic_scholar" yaml:"enable_semantic_scholar" mapstructure:"enable_semantic_scholar"`

	// SemanticScholarAPIKey authenticates the optional Semantic Scholar adapter.
	SemanticScholarAPIKey string `json:"semantic_scholar_api_key,omitempty" yaml:"semantic_scholar_api_key,omitempty" mapstructure:"semantic_scholar_api_key"`

	// QueryHint is the free-text query sent to providers whose APIs search
	// server-side (arXiv, Crossref, Semantic Scholar). Keyword filtering
	// proper happens client-side so all sources are treated uniformly.
	QueryHint string `json:"query_hint" yaml:"query_hint" mapstructure:"query_hint"`
}

// FilterConfig holds the two keyword sets driving topic selection.
// A record is kept iff at least one keyword from each set matches.
type FilterConfig struct {
	MLKeywords   []string `json:"ml_keywords" yaml:"ml_keywords" mapstructure:"ml_keywords"`
	ChemKeywords []string `json:"chem_keywords" yaml:"chem_keywords" mapstructure:"chem_keywords"`
}

// DedupConfig holds settings for cross-source deduplication.
type DedupConfig struct {
	// DateWindow is the tolerance for title-based matches, covering
	// preprint-vs-published date drift across providers (default 72h).
	DateWindow time.Duration `json:"date_window" yaml:"date_window" mapstructure:"date_window"`

	// SourceRank overrides the default provider trust order. Higher wins.
	SourceRank map[Source]int `json:"source_rank,omitempty" yaml:"source_rank,omitempty" mapstructure:"source_rank"`
}

// SummaryConfig holds settings for the LLM summarization stage.
type SummaryConfig struct {
	// Model is the chat model identifier (default "gpt-4o-mini").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey authenticates against the OpenAI API.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// MaxRetries is the number of retry attempts per record (default 2).
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// EmailConfig holds SMTP delivery settings.
type EmailConfig struct {
	Host     string   `json:"host" yaml:"host" mapstructure:"host"`
	Port     int      `json:"port" yaml:"port" mapstructure:"port"`
	Username string   `json:"username" yaml:"username" mapstructure:"username"`
	Password string   `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
	From     string   `json:"from" yaml:"from" mapstructure:"from"`
	To       []string `json:"to" yaml:"to" mapstructure:"to"`

	// MinItems is the smallest digest worth sending; runs collecting fewer
	// records finish successfully without delivery (default 1).
	MinItems int `json:"min_items" yaml:"min_items" mapstructure:"min_items"`
}

// StateConfig holds settings for the run-history store.
type StateConfig struct {
	// Dir is the directory holding digest.db (default "state").
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// PipelineConfig groups all stage configurations. Decoded from the config
// file once at startup and passed into the pipeline as an immutable value.
type PipelineConfig struct {
	Sources SourcesConfig `json:"sources" yaml:"sources" mapstructure:"sources"`
	Filter  FilterConfig  `json:"filter" yaml:"filter" mapstructure:"filter"`
	Dedup   DedupConfig   `json:"dedup" yaml:"dedup" mapstructure:"dedup"`
	Summary SummaryConfig `json:"summary" yaml:"summary" mapstructure:"summary"`
	Email   EmailConfig   `json:"email" yaml:"email" mapstructure:"email"`
	State   StateConfig   `json:"state" yaml:"state" mapstructure:"state"`
}
