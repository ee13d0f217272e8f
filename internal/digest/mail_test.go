// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"strings"
	"testing"

	"github.com/meshintel/mlchem-digest/pkg/types"
)

// --- NewSMTPSender ---

func TestNewSMTPSenderValidation(t *testing.T) {
	valid := types.EmailConfig{
		Host: "smtp.example.com",
		From: "digest@example.com",
		To:   []string{"reader@example.com"},
	}

	tests := []struct {
		name    string
		mutate  func(*types.EmailConfig)
		wantErr string
	}{
		{"valid", func(c *types.EmailConfig) {}, ""},
		{"missing host", func(c *types.EmailConfig) { c.Host = "" }, "host"},
		{"missing from", func(c *types.EmailConfig) { c.From = "" }, "from"},
		{"no recipients", func(c *types.EmailConfig) { c.To = nil }, "recipient"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			_, err := NewSMTPSender(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("NewSMTPSender: %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("err = %v, want mention of %q", err, tt.wantErr)
			}
		})
	}
}

func TestNewSMTPSenderDefaultPort(t *testing.T) {
	s, err := NewSMTPSender(types.EmailConfig{
		Host: "smtp.example.com",
		From: "digest@example.com",
		To:   []string{"reader@example.com"},
	})
	if err != nil {
		t.Fatalf("NewSMTPSender: %v", err)
	}
	if s.cfg.Port != 587 {
		t.Errorf("Port = %d, want default 587", s.cfg.Port)
	}
}

// --- BuildMessage ---

func TestBuildMessage(t *testing.T) {
	msg := BuildMessage("digest@example.com", []string{"a@example.com", "b@example.com"},
		"Plain Subject", "<h1>hello</h1>")

	headerEnd := strings.Index(msg, "\r\n\r\n")
	if headerEnd < 0 {
		t.Fatal("no blank line between headers and body")
	}
	headers, body := msg[:headerEnd], msg[headerEnd+4:]

	for _, want := range []string{
		"From: digest@example.com",
		"To: a@example.com, b@example.com",
		"Subject: Plain Subject",
		"MIME-Version: 1.0",
		`Content-Type: text/html; charset="utf-8"`,
	} {
		if !strings.Contains(headers, want) {
			t.Errorf("headers missing %q:\n%s", want, headers)
		}
	}
	if body != "<h1>hello</h1>" {
		t.Errorf("body = %q", body)
	}
}

func TestBuildMessageEncodesNonASCIISubject(t *testing.T) {
	msg := BuildMessage("d@example.com", []string{"r@example.com"},
		"[ML×Chem] Daily Digest", "body")

	if strings.Contains(msg, "Subject: [ML×Chem]") {
		t.Error("non-ASCII subject sent unencoded")
	}
	if !strings.Contains(msg, "Subject: =?utf-8?q?") {
		t.Errorf("subject not Q-encoded:\n%s", msg)
	}
}
