package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
)

const kiteRoute = "/admin/brokers/zerodha"

func (c *Client) CredentialStatus(ctx context.Context) (CredentialStatus, error) {
	var out CredentialStatus
	err := c.do(ctx, http.MethodGet, kiteRoute+"/token", requestOptions{route: kiteRoute + "/token"}, &out)
	return out, err
}

func (c *Client) SaveCredential(ctx context.Context, in CredentialInput) (Detail, error) {
	var out Detail
	err := c.do(ctx, http.MethodPost, kiteRoute+"/token", requestOptions{route: kiteRoute + "/token", body: in}, &out)
	return out, err
}

func (c *Client) ClearCredential(ctx context.Context) (Detail, error) {
	var out Detail
	err := c.do(ctx, http.MethodDelete, kiteRoute+"/token", requestOptions{route: kiteRoute + "/token"}, &out)
	return out, err
}

// TestCredential asks the backend to ping the broker with the stored
// credential. A failed ping comes back as a 502 with the broker's message.
func (c *Client) TestCredential(ctx context.Context) (Detail, error) {
	var out Detail
	err := c.do(ctx, http.MethodPost, kiteRoute+"/test", requestOptions{route: kiteRoute + "/test"}, &out)
	return out, err
}

func (c *Client) CompleteKiteSession(ctx context.Context, requestToken string) (Detail, error) {
	var out Detail
	err := c.do(ctx, http.MethodPost, kiteRoute+"/session/complete", requestOptions{
		route: kiteRoute + "/session/complete",
		body:  map[string]string{"request_token": requestToken},
	}, &out)
	return out, err
}

func (c *Client) Dashboard(ctx context.Context) (DashboardSummary, error) {
	var out DashboardSummary
	err := c.do(ctx, http.MethodGet, "/admin/dashboard", requestOptions{route: "/admin/dashboard"}, &out)
	return out, err
}

// ListUsers filters by a case-insensitive term when search is non-empty.
func (c *Client) ListUsers(ctx context.Context, search string) ([]User, error) {
	var query url.Values
	if search != "" {
		query = url.Values{"search": {search}}
	}
	var out []User
	err := c.do(ctx, http.MethodGet, "/admin/users", requestOptions{route: "/admin/users", query: query}, &out)
	return out, err
}

// UpdateUserRoles replaces the user's role set. The backend takes the bare
// JSON array as body.
func (c *Client) UpdateUserRoles(ctx context.Context, userID string, roles []string) ([]string, error) {
	var out struct {
		Roles []string `json:"roles"`
	}
	err := c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(userID)+"/roles", requestOptions{
		route: "/admin/users/{id}/roles",
		body:  roles,
	}, &out)
	return out.Roles, err
}

func (c *Client) SetUserApproval(ctx context.Context, userID string, approved bool) (Detail, error) {
	var out Detail
	err := c.do(ctx, http.MethodPut, "/admin/users/"+url.PathEscape(userID)+"/approve", requestOptions{
		route: "/admin/users/{id}/approve",
		query: url.Values{"approved": {strconv.FormatBool(approved)}},
	}, &out)
	return out, err
}
