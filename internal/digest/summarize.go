// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package digest turns deduplicated records into a delivered HTML digest:
// LLM summaries, HTML rendering, and SMTP submission.
package digest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/meshintel/mlchem-digest/pkg/types"
)

// Summarizer produces a short natural-language summary for one record.
// Implementations must treat failures as per-record: the caller keeps the
// record either way.
type Summarizer interface {
	Summarize(ctx context.Context, rec types.PaperRecord) (string, error)
}

// openAIAPIURL is the chat completions endpoint. Package-level var for test
// substitution.
var openAIAPIURL = "https://api.openai.com/v1/chat/completions"

const summarySystemPrompt = `You are an expert at summarizing academic papers. ` +
	`From the given title and abstract, write a 3-4 sentence summary covering ` +
	`purpose, method, data, main results, and implications, in that order. ` +
	`Keep technical terms concise and avoid speculation beyond the abstract.`

// OpenAIBackend summarizes records via the OpenAI chat completions API.
type OpenAIBackend struct {
	APIKey string
	Model  string
	Client *http.Client
}

// Summarize sends one record's title and abstract to the chat API.
func (b *OpenAIBackend) Summarize(ctx context.Context, rec types.PaperRecord) (string, error) {
	model := b.Model
	if model == "" {
		model = "gpt-4o-mini"
	}

	body := openAIRequest{
		Model:       model,
		Temperature: 0.2,
		Messages: []openAIMessage{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: fmt.Sprintf("Title: %s\nAbstract: %s", rec.Title, rec.Abstract)},
		},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, openAIAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.APIKey)

	client := b.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling OpenAI API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("OpenAI API returned %d: %s", resp.StatusCode, string(respBody))
	}

	var parsed openAIResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("parsing OpenAI response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("OpenAI API returned empty content")
	}

	return strings.Join(strings.Fields(parsed.Choices[0].Message.Content), " "), nil
}

// backoffBase controls the base duration for summarization retry backoff.
// Tests override this to avoid real sleeps.
var backoffBase = time.Second

// SummarizeAll annotates each record with a summary. A record whose
// summarization fails after retries is kept with a truncated-abstract
// placeholder rather than dropped; the failure is reported as a warning.
func SummarizeAll(ctx context.Context, s Summarizer, records []types.PaperRecord, maxRetries int, w io.Writer) []types.DigestEntry {
	if maxRetries <= 0 {
		maxRetries = 2
	}

	entries := make([]types.DigestEntry, 0, len(records))
	for _, rec := range records {
		summary, err := summarizeWithRetry(ctx, s, rec, maxRetries)
		if err != nil {
			fmt.Fprintf(w, "warning: summarization failed for %q: %v\n", rec.Title, err)
			summary = placeholder(rec)
		}
		entries = append(entries, types.DigestEntry{PaperRecord: rec, Summary: summary})
	}
	return entries
}

func summarizeWithRetry(ctx context.Context, s Summarizer, rec types.PaperRecord, maxRetries int) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		summary, err := s.Summarize(ctx, rec)
		if err == nil {
			return summary, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

// placeholder is the fallback summary: the opening of the abstract, or
// nothing when the record has none.
func placeholder(rec types.PaperRecord) string {
	const maxLen = 200
	ab := rec.Abstract
	if len(ab) <= maxLen {
		return ab
	}
	return ab[:maxLen] + "…"
}

// OpenAI chat completions JSON structures.
type openAIRequest struct {
	Model       string          `json:"model"`
	Temperature float64         `json:"temperature"`
	Messages    []openAIMessage `json:"messages"`
}

type openAIMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type openAIResponse struct {
	Choices []openAIChoice `json:"choices"`
}

type openAIChoice struct {
	Message openAIMessage `json:"message"`
}
