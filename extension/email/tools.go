// tools.go implements the email_* tools.

package email

import (
	"context"
	"strings"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/email"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/mark3labs/mcp-go/mcp"
)

var (
	toArg      = mcp.WithArray("to", mcp.Required(), mcp.Description("Recipient addresses, e.g. [\"Ada <ada@example.com>\"]"))
	ccArg      = mcp.WithArray("cc", mcp.Description("Carbon-copy addresses"))
	bccArg     = mcp.WithArray("bcc", mcp.Description("Blind carbon-copy addresses"))
	fromArg    = mcp.WithString("from", mcp.Description("Sender address (default: configured email.from)"))
	replyToArg = mcp.WithString("reply_to", mcp.Description("Reply-To address"))
)

func sendTool() extension.MCPTool {
	return extension.MCPTool{
		Tool: mcp.NewTool("email_send",
			mcp.WithDescription("Send an email. Supply at least one of text, html or markdown; markdown is rendered to HTML and also used as the plain-text part. Sends are not retried: check the result before sending again."),
			toArg, ccArg, bccArg,
			mcp.WithString("subject", mcp.Required(), mcp.Description("Subject line")),
			mcp.WithString("text", mcp.Description("Plain-text body")),
			mcp.WithString("html", mcp.Description("HTML body")),
			mcp.WithString("markdown", mcp.Description("Markdown body")),
			fromArg, replyToArg,
		),
		Handler: handleSend,
	}
}

func sendTemplateTool() extension.MCPTool {
	return extension.MCPTool{
		Tool: mcp.NewTool("email_send_template",
			mcp.WithDescription("Send a built-in template (welcome, password_reset, payment_receipt). Use email_list_templates to see the data each one needs."),
			mcp.WithString("template", mcp.Required(), mcp.Description("Template name")),
			toArg, ccArg, bccArg,
			mcp.WithObject("data", mcp.Description("Template values, e.g. {\"name\": \"Ada\"}")),
			mcp.WithString("subject", mcp.Description("Override the template subject")),
			fromArg, replyToArg,
		),
		Handler: handleSendTemplate,
	}
}

func listTemplatesTool() extension.MCPTool {
	return extension.MCPTool{
		Tool: mcp.NewTool("email_list_templates",
			mcp.WithDescription("List the built-in email templates with their required and optional data keys."),
		),
		Handler: func(context.Context, extension.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return envelope.Value("templates", email.Templates()), nil
		},
	}
}

func validateAddressTool() extension.MCPTool {
	return extension.MCPTool{
		Tool: mcp.NewTool("email_validate_address",
			mcp.WithDescription("Check that an address is well formed (RFC 5322 with a dotted domain). Does not contact any mail server."),
			mcp.WithString("address", mcp.Required(), mcp.Description("Address to check, e.g. \"Ada <ada@example.com>\"")),
		),
		Handler: handleValidateAddress,
	}
}

func statusTool() extension.MCPTool {
	return extension.MCPTool{
		Tool: mcp.NewTool("email_status",
			mcp.WithDescription("Report the configured email provider and sender address. Makes no network calls."),
		),
		Handler: func(_ context.Context, x extension.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			st := x.Service().Status().Email
			d := x.Service().EmailDefaults()
			fields := envelope.Fields{
				"configured": st.Configured,
				"provider":   st.Mode,
				"from":       d.From,
				"from_name":  d.FromName,
			}
			if st.Error != "" {
				fields["error"] = st.Error
			}
			return envelope.OK(fields), nil
		},
	}
}

// message builds the addressing part of a message from the shared
// arguments.
func message(req mcp.CallToolRequest) email.Message {
	return email.Message{
		To:      params.Strings(req, "to"),
		CC:      params.Strings(req, "cc"),
		BCC:     params.Strings(req, "bcc"),
		From:    params.String(req, "from", ""),
		ReplyTo: params.String(req, "reply_to", ""),
		Subject: params.String(req, "subject", ""),
	}
}

func handleSend(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	m := message(req)
	m.Text = params.String(req, "text", "")
	m.HTML = params.String(req, "html", "")
	m.Markdown = params.String(req, "markdown", "")

	rcpt, err := send(ctx, x, m)
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.Value("receipt", rcpt), nil
}

func handleSendTemplate(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := params.Require(req, "template")
	if err != nil {
		return envelope.Error(err), nil
	}
	t, ok := email.Lookup(name)
	if !ok {
		var names []string
		for _, tmpl := range email.Templates() {
			names = append(names, tmpl.Name)
		}
		return envelope.Invalid("unknown template %q (available: %s)", name, strings.Join(names, ", ")), nil
	}

	m := message(req)
	data := params.Object(req, "data")
	if data == nil {
		data = map[string]any{}
	}
	if err := t.Render(data, &m); err != nil {
		return envelope.Error(err), nil
	}

	rcpt, err := send(ctx, x, m)
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.OK(envelope.Fields{"template": t.Name, "subject": m.Subject, "receipt": rcpt}), nil
}

func handleValidateAddress(_ context.Context, _ extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := params.Require(req, "address")
	if err != nil {
		return envelope.Error(err), nil
	}
	a, err := email.ValidateAddress(in)
	if err != nil {
		return envelope.OK(envelope.Fields{"valid": false, "reason": err.Error()}), nil
	}
	fields := envelope.Fields{"valid": true, "address": a.Address}
	if a.Name != "" {
		fields["name"] = a.Name
	}
	return envelope.OK(fields), nil
}
