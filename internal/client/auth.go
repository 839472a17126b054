package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/wolfeidau/sentiview/internal/models"
)

const (
	pathLogin    = "/auth/login"
	pathRegister = "/auth/register"
	pathMe       = "/auth/me"
	pathLogout   = "/auth/logout"
)

// Login submits credentials as an OAuth2 password form (username, password).
// A 2xx response without access_token is returned as is; the caller decides.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*models.TokenResponse, error) {
	form := url.Values{}
	form.Set("username", creds.Email)
	form.Set("password", creds.Password)

	var tok models.TokenResponse
	err := c.doJSON(ctx, call{
		op:          "login",
		method:      http.MethodPost,
		path:        pathLogin,
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, &tok)
	if err != nil {
		return nil, err
	}

	return &tok, nil
}

// Register creates an account. It does not authenticate anything.
func (c *Client) Register(ctx context.Context, reg models.Registration) error {
	body, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("register: failed to marshal request: %w", err)
	}

	return c.doJSON(ctx, call{
		op:          "register",
		method:      http.MethodPost,
		path:        pathRegister,
		body:        bytes.NewReader(body),
		contentType: "application/json",
	}, nil)
}

// Me fetches the profile of the token's owner.
func (c *Client) Me(ctx context.Context, token string) (*models.User, error) {
	var user models.User
	err := c.doJSON(ctx, call{
		op:     "me",
		method: http.MethodGet,
		path:   pathMe,
		token:  token,
	}, &user)
	if err != nil {
		return nil, err
	}

	return &user, nil
}

// UpdateMe sends the set fields of update to the profile endpoint.
func (c *Client) UpdateMe(ctx context.Context, token string, update models.ProfileUpdate) (*models.ProfileUpdateResult, error) {
	body, err := json.Marshal(update)
	if err != nil {
		return nil, fmt.Errorf("update profile: failed to marshal request: %w", err)
	}

	var res models.ProfileUpdateResult
	err = c.doJSON(ctx, call{
		op:          "update profile",
		method:      http.MethodPut,
		path:        pathMe,
		token:       token,
		body:        bytes.NewReader(body),
		contentType: "application/json",
	}, &res)
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// Logout tells the backend the token is no longer in use.
func (c *Client) Logout(ctx context.Context, token string) error {
	return c.doJSON(ctx, call{
		op:     "logout",
		method: http.MethodPost,
		path:   pathLogout,
		token:  token,
	}, nil)
}
