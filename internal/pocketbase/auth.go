// auth.go implements superuser and auth-collection authentication.

package pocketbase

import (
	"context"
	"net/http"
)

// AuthResult is the response of an auth-with-password call.
type AuthResult struct {
	Token  string `json:"token"`
	Record Record `json:"record"`
}

// AuthWithPassword authenticates as a superuser and keeps the token for
// subsequent requests. On failure the previous token is cleared so the
// client falls back to public access.
func (c *Client) AuthWithPassword(ctx context.Context, identity, password string) error {
	res, err := c.AuthCollection(ctx, SuperusersCollection, identity, password)
	if err != nil {
		c.ClearAuth()
		return err
	}
	c.setToken(res.Token)
	return nil
}

// AuthCollection authenticates a record of an auth collection and returns
// the token without storing it. Used for end-user logins, which must never
// replace the superuser session.
func (c *Client) AuthCollection(ctx context.Context, collection, identity, password string) (*AuthResult, error) {
	body := map[string]string{"identity": identity, "password": password}
	var res AuthResult
	if err := c.do(ctx, http.MethodPost, collectionPath(collection, "auth-with-password"), nil, body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// AuthMethods lists the auth methods enabled for an auth collection.
func (c *Client) AuthMethods(ctx context.Context, collection string) (map[string]any, error) {
	var res map[string]any
	if err := c.do(ctx, http.MethodGet, collectionPath(collection, "auth-methods"), nil, nil, &res); err != nil {
		return nil, err
	}
	return res, nil
}

// RequestPasswordReset sends a password reset email to the record's address.
func (c *Client) RequestPasswordReset(ctx context.Context, collection, email string) error {
	return c.do(ctx, http.MethodPost, collectionPath(collection, "request-password-reset"), nil,
		map[string]string{"email": email}, nil)
}

// ConfirmPasswordReset sets a new password using a reset token.
func (c *Client) ConfirmPasswordReset(ctx context.Context, collection, token, password, confirm string) error {
	return c.do(ctx, http.MethodPost, collectionPath(collection, "confirm-password-reset"), nil,
		map[string]string{"token": token, "password": password, "passwordConfirm": confirm}, nil)
}

// RequestVerification sends a verification email.
func (c *Client) RequestVerification(ctx context.Context, collection, email string) error {
	return c.do(ctx, http.MethodPost, collectionPath(collection, "request-verification"), nil,
		map[string]string{"email": email}, nil)
}

// ConfirmVerification marks a record verified using a verification token.
func (c *Client) ConfirmVerification(ctx context.Context, collection, token string) error {
	return c.do(ctx, http.MethodPost, collectionPath(collection, "confirm-verification"), nil,
		map[string]string{"token": token}, nil)
}
