package email

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net"
	"net/mail"
	"net/smtp"
	"net/textproto"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jpl-au/pbmcp/internal/apierr"
)

// SMTPConfig describes an SMTP relay.
type SMTPConfig struct {
	Host     string
	Port     int // 587 (STARTTLS) by default; 465 uses implicit TLS
	Username string
	Password string
}

// SMTP sends through an SMTP relay.
type SMTP struct {
	cfg SMTPConfig
	now func() time.Time
	tls *tls.Config
}

// NewSMTP returns an SMTP sender.
func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" {
		return nil, fmt.Errorf("%w: smtp host not configured", apierr.ErrUnavailable)
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	return &SMTP{cfg: cfg, now: time.Now, tls: &tls.Config{ServerName: cfg.Host}}, nil
}

// Name implements Sender.
func (s *SMTP) Name() string { return "smtp" }

func (s *SMTP) addr() string { return net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port)) }

// Send implements Sender. m must have been prepared.
func (s *SMTP) Send(ctx context.Context, m Message) (Receipt, error) {
	id := "<" + uuid.NewString() + "@" + s.cfg.Host + ">"
	data, err := buildMIME(m, id, s.now())
	if err != nil {
		return Receipt{}, err
	}

	c, err := s.dial(ctx)
	if err != nil {
		return Receipt{}, apierr.Transport(s.Name(), err)
	}
	defer c.Close()

	// net/smtp has no context support; bound the whole conversation instead.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-done:
		}
	}()

	if err := s.deliver(c, m, data); err != nil {
		if ctx.Err() != nil {
			return Receipt{}, apierr.Transport(s.Name(), ctx.Err())
		}
		return Receipt{}, smtpError(err)
	}
	return Receipt{Provider: s.Name(), ID: id, Accepted: m.Recipients()}, nil
}

func (s *SMTP) dial(ctx context.Context) (*smtp.Client, error) {
	var (
		conn net.Conn
		err  error
	)
	if s.cfg.Port == 465 {
		d := tls.Dialer{Config: s.tls}
		conn, err = d.DialContext(ctx, "tcp", s.addr())
	} else {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", s.addr())
	}
	if err != nil {
		return nil, err
	}
	if dl, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(dl)
	}
	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return c, nil
}

func (s *SMTP) deliver(c *smtp.Client, m Message, data []byte) error {
	if ok, _ := c.Extension("STARTTLS"); ok && s.cfg.Port != 465 {
		if err := c.StartTLS(s.tls); err != nil {
			return err
		}
	}
	if s.cfg.Username != "" {
		if err := c.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return err
		}
	}
	from, _ := mail.ParseAddress(m.From)
	if err := c.Mail(from.Address); err != nil {
		return err
	}
	for _, r := range m.Recipients() {
		a, err := mail.ParseAddress(r)
		if err != nil {
			return err
		}
		if err := c.Rcpt(a.Address); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}

// smtpError maps SMTP reply codes onto HTTP-like statuses so the shared
// classifier applies: 4xx replies are transient, 5xx permanent rejections.
func smtpError(err error) error {
	var te *textproto.Error
	if !errors.As(err, &te) {
		return apierr.Transport("smtp", err)
	}
	status := 502
	switch {
	case te.Code == 535 || te.Code == 530:
		status = 401
	case te.Code >= 550 && te.Code <= 553:
		status = 422
	case te.Code >= 400 && te.Code < 500:
		status = 503
	}
	return &apierr.Error{Service: "smtp", Status: status, Message: fmt.Sprintf("%d %s", te.Code, te.Msg)}
}

// buildMIME renders m as a MIME message. Text and HTML bodies become a
// multipart/alternative pair.
func buildMIME(m Message, id string, date time.Time) ([]byte, error) {
	var buf bytes.Buffer
	h := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }

	from := mail.Address{Name: m.FromName, Address: m.From}
	if a, err := mail.ParseAddress(m.From); err == nil {
		from.Address = a.Address
		if from.Name == "" {
			from.Name = a.Name
		}
	}
	h("From", from.String())
	h("To", strings.Join(m.To, ", "))
	if len(m.CC) > 0 {
		h("Cc", strings.Join(m.CC, ", "))
	}
	if m.ReplyTo != "" {
		h("Reply-To", m.ReplyTo)
	}
	h("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	h("Date", date.Format(time.RFC1123Z))
	h("Message-ID", id)
	h("MIME-Version", "1.0")

	switch {
	case m.Text != "" && m.HTML != "":
		mw := multipart.NewWriter(&buf)
		h("Content-Type", `multipart/alternative; boundary="`+mw.Boundary()+`"`)
		buf.WriteString("\r\n")
		for _, p := range []struct{ ctype, body string }{
			{"text/plain; charset=utf-8", m.Text},
			{"text/html; charset=utf-8", m.HTML},
		} {
			pw, err := mw.CreatePart(textproto.MIMEHeader{
				"Content-Type":              {p.ctype},
				"Content-Transfer-Encoding": {"quoted-printable"},
			})
			if err != nil {
				return nil, err
			}
			if err := writeQP(pw, p.body); err != nil {
				return nil, err
			}
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}
	case m.HTML != "":
		h("Content-Type", "text/html; charset=utf-8")
		h("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, m.HTML); err != nil {
			return nil, err
		}
	default:
		h("Content-Type", "text/plain; charset=utf-8")
		h("Content-Transfer-Encoding", "quoted-printable")
		buf.WriteString("\r\n")
		if err := writeQP(&buf, m.Text); err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

func writeQP(w io.Writer, s string) error {
	qp := quotedprintable.NewWriter(w)
	if _, err := qp.Write([]byte(s)); err != nil {
		return err
	}
	return qp.Close()
}
