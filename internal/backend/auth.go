package backend

import (
	"context"
	"net/http"
	"net/url"
	"strings"
)

type loginResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

// Login exchanges credentials for a bearer token and stores it in the session.
// The backend takes email and password as query parameters.
func (c *Client) Login(ctx context.Context, email, password string) error {
	var out loginResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", requestOptions{
		route:  "/auth/login",
		query:  url.Values{"email": {strings.TrimSpace(email)}, "password": {password}},
		public: true,
	}, &out)
	if err != nil {
		return err
	}
	if out.AccessToken == "" {
		return newError(CodeTransportFailure, "Login response did not include an access token", nil)
	}
	c.session.Set(out.AccessToken)
	return nil
}

// Me returns the profile of the logged in user.
func (c *Client) Me(ctx context.Context) (User, error) {
	var out User
	err := c.do(ctx, http.MethodGet, "/auth/me", requestOptions{route: "/auth/me"}, &out)
	return out, err
}
