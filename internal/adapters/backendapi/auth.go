package backendapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	domainauth "github.com/prakritea/artisan-studio/internal/domain/auth"
	apperrors "github.com/prakritea/artisan-studio/internal/errors"
	"github.com/prakritea/artisan-studio/internal/ports"
)

// Fallback messages when the backend rejects a request without a detail.
const (
	MsgLoginFailed  = "Login failed"
	MsgSignupFailed = "Signup failed"
)

var _ ports.AuthBackend = (*Client)(nil)

type credentialsBody struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges credentials for an access token.
func (c *Client) Login(ctx context.Context, creds domainauth.Credentials) (ports.LoginResult, error) {
	resp, err := c.postCredentials(ctx, "login", c.cfg.LoginPath, creds)
	if err != nil {
		return ports.LoginResult{}, err
	}
	if !resp.ok() {
		return ports.LoginResult{}, apperrors.Auth(c.detail(resp.body), MsgLoginFailed)
	}

	doc := decodeJSON(resp.body)
	token := c.stringAt(doc, c.cfg.TokenPath)
	if token == "" {
		c.logger.WarnContext(ctx, "login response has no access token", "status", resp.status)
		return ports.LoginResult{}, apperrors.Network(errors.New("login: response missing access token"))
	}

	username := c.stringAt(doc, c.cfg.UsernamePath)
	if username == "" {
		username = creds.Identifier
	}
	return ports.LoginResult{Token: token, Username: username}, nil
}

// Signup registers a new account. Success carries no token.
func (c *Client) Signup(ctx context.Context, creds domainauth.Credentials) error {
	resp, err := c.postCredentials(ctx, "signup", c.cfg.SignupPath, creds)
	if err != nil {
		return err
	}
	if !resp.ok() {
		return apperrors.Auth(c.detail(resp.body), MsgSignupFailed)
	}
	return nil
}

func (c *Client) postCredentials(ctx context.Context, op, path string, creds domainauth.Credentials) (response, error) {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	payload, err := json.Marshal(credentialsBody{Username: creds.Identifier, Password: creds.Password})
	if err != nil {
		return response{}, fmt.Errorf("marshal %s body: %w", op, err)
	}
	req, err := c.newRequest(ctx, path, "application/json", payload)
	if err != nil {
		return response{}, err
	}
	return c.do(req, op, maxJSONBodyBytes)
}
