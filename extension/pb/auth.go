// auth.go implements the auth-collection tools. These act on end-user
// accounts; the superuser session is never replaced by them.

package pb

import (
	"context"
	"fmt"

	"github.com/jpl-au/pbmcp/extension"
	"github.com/jpl-au/pbmcp/internal/apierr"
	"github.com/jpl-au/pbmcp/internal/email"
	"github.com/jpl-au/pbmcp/internal/envelope"
	"github.com/jpl-au/pbmcp/internal/log"
	"github.com/jpl-au/pbmcp/internal/params"
	"github.com/jpl-au/pbmcp/internal/pocketbase"
	"github.com/mark3labs/mcp-go/mcp"
)

func authTools() []extension.MCPTool {
	collection := mcp.WithString("collection", mcp.Description("Auth collection name (default users)"))

	return []extension.MCPTool{
		{
			Tool: mcp.NewTool("pb_auth_methods",
				mcp.WithDescription("List the auth methods enabled for an auth collection (password, OAuth2 providers, OTP, MFA)."),
				collection,
			),
			Handler: handleAuthMethods,
		},
		{
			Tool: mcp.NewTool("pb_auth_with_password",
				mcp.WithDescription("Authenticate a user of an auth collection and return the user record and token. Useful for checking credentials; the server keeps using its admin session."),
				collection,
				mcp.WithString("identity", mcp.Required(), mcp.Description("Email or username")),
				mcp.WithString("password", mcp.Required(), mcp.Description("Password")),
			),
			Handler: handleAuthWithPassword,
		},
		{
			Tool: mcp.NewTool("pb_request_password_reset",
				mcp.WithDescription("Send a password reset email to a user. Succeeds even when no user has the address."),
				collection,
				mcp.WithString("email", mcp.Required(), mcp.Description("User email address")),
			),
			Handler: handleRequestPasswordReset,
		},
		{
			Tool: mcp.NewTool("pb_confirm_password_reset",
				mcp.WithDescription("Set a new password using the token from a password reset email."),
				collection,
				mcp.WithString("token", mcp.Required(), mcp.Description("Reset token")),
				mcp.WithString("password", mcp.Required(), mcp.Description("New password")),
				mcp.WithString("password_confirm", mcp.Description("Password confirmation (defaults to password)")),
			),
			Handler: handleConfirmPasswordReset,
		},
		{
			Tool: mcp.NewTool("pb_request_verification",
				mcp.WithDescription("Send a verification email to a user."),
				collection,
				mcp.WithString("email", mcp.Required(), mcp.Description("User email address")),
			),
			Handler: handleRequestVerification,
		},
		{
			Tool: mcp.NewTool("pb_confirm_verification",
				mcp.WithDescription("Mark a user verified using the token from a verification email."),
				collection,
				mcp.WithString("token", mcp.Required(), mcp.Description("Verification token")),
			),
			Handler: handleConfirmVerification,
		},
	}
}

// authCollection returns the "collection" argument, defaulting to users.
func authCollection(ctx context.Context, req mcp.CallToolRequest) (string, error) {
	if !params.Has(req, "collection") || params.String(req, "collection", "") == "" {
		log.FromContext(ctx).Target("users")
		return "users", nil
	}
	return collectionArg(ctx, req)
}

func handleAuthMethods(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, err := authCollection(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	var methods map[string]any
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		methods, err = c.AuthMethods(ctx, coll)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.Value("methods", methods), nil
}

func handleAuthWithPassword(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, err := authCollection(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	identity, err := params.Require(req, "identity")
	if err != nil {
		return envelope.Error(err), nil
	}
	password, err := params.Require(req, "password")
	if err != nil {
		return envelope.Error(err), nil
	}

	var res *pocketbase.AuthResult
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		var err error
		res, err = c.AuthCollection(ctx, coll, identity, password)
		return err
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	log.FromContext(ctx).ID(res.Record.ID())
	return envelope.OK(envelope.Fields{
		"token":  res.Token,
		"record": res.Record,
	}), nil
}

func handleRequestPasswordReset(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, addr, err := emailArgs(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		return c.RequestPasswordReset(ctx, coll, addr)
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.OK(envelope.Fields{"requested": true, "email": addr}), nil
}

func handleConfirmPasswordReset(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, err := authCollection(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	token, err := params.Require(req, "token")
	if err != nil {
		return envelope.Error(err), nil
	}
	password, err := params.Require(req, "password")
	if err != nil {
		return envelope.Error(err), nil
	}
	confirm := params.String(req, "password_confirm", password)

	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		return c.ConfirmPasswordReset(ctx, coll, token, password, confirm)
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.OK(envelope.Fields{"confirmed": true}), nil
}

func handleRequestVerification(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, addr, err := emailArgs(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		return c.RequestVerification(ctx, coll, addr)
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.OK(envelope.Fields{"requested": true, "email": addr}), nil
}

func handleConfirmVerification(ctx context.Context, x extension.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	coll, err := authCollection(ctx, req)
	if err != nil {
		return envelope.Error(err), nil
	}
	token, err := params.Require(req, "token")
	if err != nil {
		return envelope.Error(err), nil
	}
	err = run(ctx, x, func(ctx context.Context, c *pocketbase.Client) error {
		return c.ConfirmVerification(ctx, coll, token)
	})
	if err != nil {
		return envelope.Error(err), nil
	}
	return envelope.OK(envelope.Fields{"confirmed": true}), nil
}

// emailArgs validates the collection and the "email" address.
func emailArgs(ctx context.Context, req mcp.CallToolRequest) (string, string, error) {
	coll, err := authCollection(ctx, req)
	if err != nil {
		return "", "", err
	}
	addr, err := params.Require(req, "email")
	if err != nil {
		return "", "", err
	}
	a, err := email.ValidateAddress(addr)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", apierr.ErrInvalidInput, err)
	}
	return coll, a.Address, nil
}
