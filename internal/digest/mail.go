// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package digest

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"github.com/meshintel/mlchem-digest/pkg/types"
)

// Sender delivers a rendered digest. The pipeline calls Send exactly once,
// as its terminal step; a send failure fails the whole run.
type Sender interface {
	Send(subject, htmlBody string) error
}

// SMTPSender submits mail over SMTP with STARTTLS and PLAIN auth.
type SMTPSender struct {
	cfg types.EmailConfig
}

// NewSMTPSender validates the delivery configuration.
func NewSMTPSender(cfg types.EmailConfig) (*SMTPSender, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("email host is required")
	}
	if cfg.From == "" {
		return nil, fmt.Errorf("email from address is required")
	}
	if len(cfg.To) == 0 {
		return nil, fmt.Errorf("at least one email recipient is required")
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTPSender{cfg: cfg}, nil
}

// Send builds an RFC 5322 message with an HTML body and submits it.
func (s *SMTPSender) Send(subject, htmlBody string) error {
	msg := BuildMessage(s.cfg.From, s.cfg.To, subject, htmlBody)

	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)

	if err := smtp.SendMail(addr, auth, s.cfg.From, s.cfg.To, []byte(msg)); err != nil {
		return fmt.Errorf("sending digest to %s: %w", addr, err)
	}
	return nil
}

// BuildMessage assembles the raw message: headers, then the HTML body.
// Split out so tests can inspect the wire format without an SMTP server.
func BuildMessage(from string, to []string, subject, htmlBody string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", subject))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(htmlBody)
	return b.String()
}
