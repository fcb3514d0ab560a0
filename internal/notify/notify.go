package notify

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// Client posts notifications to one ntfy topic.
type Client struct {
	endpoint string
	http     *http.Client
}

func New(endpoint string, client *http.Client) *Client {
	return &Client{endpoint: endpoint, http: client}
}

// Notify satisfies the console's notifier port.
func (c *Client) Notify(ctx context.Context, title, message string) error {
	return Send(ctx, c.http, c.endpoint, title, message)
}

// Send posts message to endpoint. A non-empty title goes in ntfy's Title
// header.
func Send(ctx context.Context, client *http.Client, endpoint, title, message string) error {
	if endpoint == "" {
		return errors.New("ntfy endpoint is not configured")
	}
	c := client
	if c == nil {
		c = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(message))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "text/plain")
	if title != "" {
		req.Header.Set("Title", title)
	}

	resp, err := c.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("ntfy notification failed: status=%d", resp.StatusCode)
	}
	return nil
}
