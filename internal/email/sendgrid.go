package email

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/httpx"
)

// SendGridBaseURL is the v3 API root.
const SendGridBaseURL = "https://api.sendgrid.com"

// SendGrid sends through the SendGrid v3 mail API.
type SendGrid struct {
	rest *httpx.Client
}

// NewSendGrid returns a SendGrid sender. baseURL may be empty.
func NewSendGrid(apiKey, baseURL string, opts ...httpx.Option) (*SendGrid, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: sendgrid API key not configured", apierr.ErrUnavailable)
	}
	if baseURL == "" {
		baseURL = SendGridBaseURL
	}
	opts = append([]httpx.Option{
		httpx.WithAuth(func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+apiKey) }),
		httpx.WithErrorDecoder(decodeSendGridError),
	}, opts...)
	return &SendGrid{rest: httpx.New("sendgrid", baseURL, opts...)}, nil
}

// Name implements Sender.
func (s *SendGrid) Name() string { return "sendgrid" }

// Close releases pooled connections.
func (s *SendGrid) Close() { s.rest.CloseIdleConnections() }

type sgAddress struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

type sgPersonalization struct {
	To  []sgAddress `json:"to"`
	CC  []sgAddress `json:"cc,omitempty"`
	BCC []sgAddress `json:"bcc,omitempty"`
}

type sgContent struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type sgMail struct {
	Personalizations []sgPersonalization `json:"personalizations"`
	From             sgAddress           `json:"from"`
	ReplyTo          *sgAddress          `json:"reply_to,omitempty"`
	Subject          string              `json:"subject"`
	Content          []sgContent         `json:"content"`
}

// Send implements Sender. m must have been prepared.
func (s *SendGrid) Send(ctx context.Context, m Message) (Receipt, error) {
	body := sgMail{
		Personalizations: []sgPersonalization{{
			To:  sgAddresses(m.To),
			CC:  sgAddresses(m.CC),
			BCC: sgAddresses(m.BCC),
		}},
		From:    sgAddress{Email: m.From, Name: m.FromName},
		Subject: m.Subject,
	}
	if m.ReplyTo != "" {
		a := sgAddresses([]string{m.ReplyTo})[0]
		body.ReplyTo = &a
	}
	// SendGrid requires text/plain before text/html.
	if m.Text != "" {
		body.Content = append(body.Content, sgContent{Type: "text/plain", Value: m.Text})
	}
	if m.HTML != "" {
		body.Content = append(body.Content, sgContent{Type: "text/html", Value: m.HTML})
	}

	resp, err := s.rest.Do(ctx, httpx.Request{Method: http.MethodPost, Path: "/v3/mail/send", Body: httpx.JSON(body)}, nil)
	if err != nil {
		return Receipt{}, err
	}
	return Receipt{Provider: s.Name(), ID: resp.Header.Get("X-Message-Id"), Accepted: m.Recipients()}, nil
}

func sgAddresses(list []string) []sgAddress {
	if len(list) == 0 {
		return nil
	}
	out := make([]sgAddress, 0, len(list))
	for _, s := range list {
		if a, err := ValidateAddress(s); err == nil {
			out = append(out, sgAddress{Email: a.Address, Name: a.Name})
		} else {
			out = append(out, sgAddress{Email: s})
		}
	}
	return out
}

// decodeSendGridError parses {"errors":[{"message":..,"field":..}]}.
func decodeSendGridError(status int, body []byte) *apierr.Error {
	var v struct {
		Errors []struct {
			Message string `json:"message"`
			Field   string `json:"field"`
		} `json:"errors"`
	}
	_ = json.Unmarshal(body, &v)

	e := &apierr.Error{Service: "sendgrid", Status: status}
	var msgs []string
	fields := map[string]any{}
	for _, x := range v.Errors {
		msgs = append(msgs, x.Message)
		if x.Field != "" {
			fields[x.Field] = x.Message
		}
	}
	e.Message = strings.Join(msgs, "; ")
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	if len(fields) > 0 {
		e.Data = fields
	}
	return e
}
