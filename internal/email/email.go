// Package email sends transactional mail through SendGrid or SMTP.
//
// Callers build a Message; Prepare fills in the configured sender, renders a
// Markdown body to HTML and validates every address before any provider is
// contacted, so malformed input never costs a network round trip.
package email

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/yuin/goldmark"
)

// MaxAttempts is the executor bound for sends. A timeout after the provider
// accepted a message is indistinguishable from a failure, and a retry would
// deliver it twice.
const MaxAttempts = 1

// Message is one outgoing email.
type Message struct {
	From     string   `json:"from,omitempty"`
	FromName string   `json:"from_name,omitempty"`
	To       []string `json:"to"`
	CC       []string `json:"cc,omitempty"`
	BCC      []string `json:"bcc,omitempty"`
	ReplyTo  string   `json:"reply_to,omitempty"`
	Subject  string   `json:"subject"`
	Text     string   `json:"text,omitempty"`
	HTML     string   `json:"html,omitempty"`
	Markdown string   `json:"markdown,omitempty"` // rendered into HTML by Prepare
}

// Receipt is the provider's acknowledgement.
type Receipt struct {
	Provider string   `json:"provider"`
	ID       string   `json:"message_id,omitempty"`
	Accepted []string `json:"accepted"`
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) (Receipt, error)
	Name() string
}

// Defaults are applied by Prepare to messages that leave them unset.
type Defaults struct {
	From     string
	FromName string
}

// Prepare validates m and fills in defaults. Errors wrap
// apierr.ErrInvalidInput.
func (m *Message) Prepare(d Defaults) error {
	if m.From == "" {
		m.From = d.From
	}
	if m.FromName == "" {
		m.FromName = d.FromName
	}

	var problems []string
	if m.From == "" {
		problems = append(problems, "sender address not configured (email.from)")
	} else if _, err := ValidateAddress(m.From); err != nil {
		problems = append(problems, fmt.Sprintf("from: %v", err))
	}
	if len(m.To) == 0 {
		problems = append(problems, "at least one recipient is required")
	}
	for field, list := range map[string][]string{"to": m.To, "cc": m.CC, "bcc": m.BCC} {
		for _, a := range list {
			if _, err := ValidateAddress(a); err != nil {
				problems = append(problems, fmt.Sprintf("%s: %v", field, err))
			}
		}
	}
	if m.ReplyTo != "" {
		if _, err := ValidateAddress(m.ReplyTo); err != nil {
			problems = append(problems, fmt.Sprintf("reply_to: %v", err))
		}
	}
	if strings.TrimSpace(m.Subject) == "" {
		problems = append(problems, "subject is required")
	}

	if m.Markdown != "" && m.HTML == "" {
		html, err := RenderMarkdown(m.Markdown)
		if err != nil {
			problems = append(problems, err.Error())
		}
		m.HTML = html
		if m.Text == "" {
			m.Text = m.Markdown
		}
	}
	if m.Text == "" && m.HTML == "" {
		problems = append(problems, "a text, html or markdown body is required")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", apierr.ErrInvalidInput, strings.Join(problems, "; "))
	}
	return nil
}

// Recipients returns every envelope recipient.
func (m Message) Recipients() []string {
	out := make([]string, 0, len(m.To)+len(m.CC)+len(m.BCC))
	out = append(out, m.To...)
	out = append(out, m.CC...)
	return append(out, m.BCC...)
}

// ValidateAddress parses a single RFC 5322 address ("Name <a@b>" or "a@b")
// and requires a dotted domain.
func ValidateAddress(s string) (*mail.Address, error) {
	a, err := mail.ParseAddress(strings.TrimSpace(s))
	if err != nil {
		return nil, fmt.Errorf("invalid address %q: %w", s, err)
	}
	at := strings.LastIndex(a.Address, "@")
	if at < 1 || !strings.Contains(a.Address[at+1:], ".") {
		return nil, fmt.Errorf("invalid address %q: domain must contain a dot", s)
	}
	return a, nil
}

// RenderMarkdown converts Markdown to HTML.
func RenderMarkdown(src string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(src), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}
