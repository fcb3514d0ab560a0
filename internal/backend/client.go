package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/microcosm-cc/bluemonday"
)

const apiPrefix = "/api/v1"

var detailPolicy = bluemonday.StrictPolicy()

// Client issues REST calls against the trading backend. Every authenticated
// call goes through the Session check before a request is built.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
}

// NewClient creates a backend client. A nil httpClient gets a 30s timeout.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		session:    &Session{},
	}
}

func (c *Client) Session() *Session { return c.session }

// RequireAuthenticated fails with UNAUTHENTICATED when no token is held.
func (c *Client) RequireAuthenticated() error {
	if !c.session.Authenticated() {
		return newError(CodeUnauthenticated, "Login required", nil)
	}
	return nil
}

type requestOptions struct {
	// route is the path template used as the metrics label.
	route       string
	query       url.Values
	body        any
	raw         io.Reader
	contentType string
	header      http.Header
	public      bool
}

// do performs one round trip. Authenticated calls are rejected before any
// request is constructed when the session holds no token, and the bearer
// header is added only when the caller did not supply one.
func (c *Client) do(ctx context.Context, method, path string, opts requestOptions, out any) error {
	if !opts.public {
		if err := c.RequireAuthenticated(); err != nil {
			return err
		}
	}

	reqURL := c.baseURL + apiPrefix + path
	if len(opts.query) > 0 {
		reqURL += "?" + opts.query.Encode()
	}

	var body io.Reader
	contentType := opts.contentType
	switch {
	case opts.raw != nil:
		body = opts.raw
	case opts.body != nil:
		data, err := json.Marshal(opts.body)
		if err != nil {
			return newError(CodeTransportFailure, "encode request body", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, body)
	if err != nil {
		return newError(CodeTransportFailure, err.Error(), err)
	}
	for key, values := range opts.header {
		for _, v := range values {
			req.Header.Add(key, v)
		}
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	if req.Header.Get("X-Request-ID") == "" {
		req.Header.Set("X-Request-ID", uuid.NewString())
	}
	if !opts.public && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+c.session.Token())
	}

	route := opts.route
	if route == "" {
		route = path
	}
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		observeCall(method, route, "transport_error", start)
		return newError(CodeTransportFailure, err.Error(), err)
	}
	defer func() {
		if closeErr := resp.Body.Close(); closeErr != nil {
			slog.Debug("backend response close failed", "error", closeErr)
		}
	}()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		observeCall(method, route, "transport_error", start)
		return newError(CodeTransportFailure, err.Error(), err)
	}
	observeCall(method, route, fmt.Sprintf("%d", resp.StatusCode), start)

	slog.Debug("backend call",
		"method", method,
		"route", route,
		"status", resp.StatusCode,
		"bytes", len(data),
		"duration_ms", time.Since(start).Milliseconds(),
		"request_id", req.Header.Get("X-Request-ID"),
	)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &CodedError{
			Code:    CodeRequestFailure,
			Message: failureMessage(resp.StatusCode, data),
			Status:  resp.StatusCode,
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return newError(CodeTransportFailure, "Unexpected response from server", err)
	}
	return nil
}

// failureMessage extracts the backend's detail string, falling back to a
// generic text when the body carries none.
func failureMessage(status int, data []byte) string {
	var envelope struct {
		Detail json.RawMessage `json:"detail"`
	}
	if err := json.Unmarshal(data, &envelope); err == nil && len(envelope.Detail) > 0 {
		var text string
		if err := json.Unmarshal(envelope.Detail, &text); err == nil && strings.TrimSpace(text) != "" {
			return sanitizeDetail(text)
		}
		// FastAPI validation errors carry a list of {loc, msg, type}.
		var list []struct {
			Msg string `json:"msg"`
		}
		if err := json.Unmarshal(envelope.Detail, &list); err == nil && len(list) > 0 && list[0].Msg != "" {
			return sanitizeDetail(list[0].Msg)
		}
	}
	return fmt.Sprintf("Request failed (%d)", status)
}

// sanitizeDetail strips markup from server text; surfaces hold plain text.
func sanitizeDetail(s string) string {
	return strings.TrimSpace(html.UnescapeString(detailPolicy.Sanitize(s)))
}
