package email

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"slices"
	"strings"
	texttemplate "text/template"

	"github.com/jpl-au/pbmcp/internal/apierr"
)

// Template is a built-in transactional email.
type Template struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Required    []string `json:"required"`
	Optional    []string `json:"optional,omitempty"`

	subject *texttemplate.Template
	text    *texttemplate.Template
	html    *htmltemplate.Template
}

var templates = map[string]*Template{}

func register(name, desc string, required, optional []string, subject, text, html string) {
	templates[name] = &Template{
		Name:        name,
		Description: desc,
		Required:    required,
		Optional:    optional,
		subject:     texttemplate.Must(texttemplate.New(name + ".subject").Option("missingkey=zero").Parse(subject)),
		text:        texttemplate.Must(texttemplate.New(name + ".txt").Option("missingkey=zero").Parse(text)),
		html:        htmltemplate.Must(htmltemplate.New(name + ".html").Option("missingkey=zero").Parse(html)),
	}
}

func init() {
	register("welcome", "Greets a newly registered user.",
		[]string{"name"}, []string{"app_name", "login_url"},
		`Welcome{{with .app_name}} to {{.}}{{end}}, {{.name}}`,
		`Hi {{.name}},

Thanks for signing up{{with .app_name}} for {{.}}{{end}}. Your account is ready.
{{with .login_url}}
Sign in: {{.}}
{{end}}`,
		`<p>Hi {{.name}},</p>
<p>Thanks for signing up{{with .app_name}} for <strong>{{.}}</strong>{{end}}. Your account is ready.</p>
{{with .login_url}}<p><a href="{{.}}">Sign in</a></p>{{end}}`)

	register("password_reset", "Sends a password reset link.",
		[]string{"name", "reset_url"}, []string{"expires_in"},
		`Reset your password`,
		`Hi {{.name}},

Someone asked to reset your password. If it was you, open this link:

{{.reset_url}}
{{with .expires_in}}
The link expires in {{.}}.
{{end}}
If you did not ask for a reset, ignore this email.`,
		`<p>Hi {{.name}},</p>
<p>Someone asked to reset your password. If it was you, use the link below.</p>
<p><a href="{{.reset_url}}">Reset password</a></p>
{{with .expires_in}}<p>The link expires in {{.}}.</p>{{end}}
<p>If you did not ask for a reset, ignore this email.</p>`)

	register("payment_receipt", "Confirms a successful payment.",
		[]string{"name", "amount", "currency"}, []string{"description", "receipt_url", "payment_id"},
		`Payment received: {{.amount}} {{.currency}}`,
		`Hi {{.name}},

We received your payment of {{.amount}} {{.currency}}{{with .description}} for {{.}}{{end}}.
{{with .payment_id}}Reference: {{.}}
{{end}}{{with .receipt_url}}Receipt: {{.}}
{{end}}
Thank you.`,
		`<p>Hi {{.name}},</p>
<p>We received your payment of <strong>{{.amount}} {{.currency}}</strong>{{with .description}} for {{.}}{{end}}.</p>
{{with .payment_id}}<p>Reference: <code>{{.}}</code></p>{{end}}
{{with .receipt_url}}<p><a href="{{.}}">View receipt</a></p>{{end}}
<p>Thank you.</p>`)
}

// Templates returns the built-in templates sorted by name.
func Templates() []*Template {
	out := make([]*Template, 0, len(templates))
	for _, t := range templates {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *Template) int { return strings.Compare(a.Name, b.Name) })
	return out
}

// Lookup returns a template by name.
func Lookup(name string) (*Template, bool) {
	t, ok := templates[name]
	return t, ok
}

// Render fills subject and bodies of m from the template.
func (t *Template) Render(data map[string]any, m *Message) error {
	var missing []string
	for _, k := range t.Required {
		if v, ok := data[k]; !ok || fmt.Sprint(v) == "" {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: template %s requires %s", apierr.ErrInvalidInput, t.Name, strings.Join(missing, ", "))
	}

	var subject, text, html bytes.Buffer
	if err := t.subject.Execute(&subject, data); err != nil {
		return fmt.Errorf("render %s subject: %w", t.Name, err)
	}
	if err := t.text.Execute(&text, data); err != nil {
		return fmt.Errorf("render %s text: %w", t.Name, err)
	}
	if err := t.html.Execute(&html, data); err != nil {
		return fmt.Errorf("render %s html: %w", t.Name, err)
	}
	if m.Subject == "" {
		m.Subject = subject.String()
	}
	m.Text = text.String()
	m.HTML = html.String()
	m.Markdown = ""
	return nil
}
