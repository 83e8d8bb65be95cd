package clients

import (
	"context"
	"net/http"
	"net/url"
)

func (c *Client) GoogleLoginURL(ctx context.Context, role string) (string, error) {
	var out struct {
		AuthURL string `json:"auth_url"`
	}
	query := url.Values{"role": []string{role}}
	if err := c.do(ctx, http.MethodGet, "/auth/google/login", query, nil, &out); err != nil {
		return "", err
	}
	return out.AuthURL, nil
}

type GoogleCallbackRequest struct {
	Code          string `json:"code"`
	RedirectURI   string `json:"redirect_uri,omitempty"`
	RequestedRole string `json:"requested_role,omitempty"`
}

func (c *Client) GoogleCallback(ctx context.Context, req GoogleCallbackRequest) (*TokenResponse, error) {
	var out TokenResponse
	if err := c.do(ctx, http.MethodPost, "/auth/google/callback", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) PasswordLogin(ctx context.Context, email, password string) (*TokenResponse, error) {
	var out TokenResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.do(ctx, http.MethodGet, "/auth/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, nil)
}
