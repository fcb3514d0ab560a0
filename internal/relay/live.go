package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"
	"github.com/shopspring/decimal"
)

const (
	livePricePath     = "/api/v1/instruments/ws/live-price/"
	defaultRetryDelay = 5 * time.Second
)

// Tick is the part of a broker tick the console keeps.
type Tick struct {
	Feed            string          `json:"feed"`
	InstrumentToken int64           `json:"instrument_token"`
	LastPrice       decimal.Decimal `json:"last_price"`
	ReceivedAt      time.Time       `json:"received_at"`
}

// LiveFeed keeps one websocket per configured instrument open against the
// backend's live price endpoint and publishes every tick to the broker.
// Dropped connections are redialed after RetryDelay.
type LiveFeed struct {
	baseURL    string
	feeds      []FeedConfig
	broker     *Broker
	token      func() string
	RetryDelay time.Duration

	mu   sync.RWMutex
	last map[string]Tick
}

// NewLiveFeed builds a feed client. baseURL is the backend's http(s) URL;
// token supplies the bearer credential for the handshake and may return "".
func NewLiveFeed(baseURL string, feeds []FeedConfig, broker *Broker, token func() string) *LiveFeed {
	return &LiveFeed{
		baseURL:    strings.TrimRight(baseURL, "/"),
		feeds:      feeds,
		broker:     broker,
		token:      token,
		RetryDelay: defaultRetryDelay,
		last:       make(map[string]Tick),
	}
}

// Run blocks until ctx is done.
func (f *LiveFeed) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, feed := range f.feeds {
		wg.Add(1)
		go func(feed FeedConfig) {
			defer wg.Done()
			f.runFeed(ctx, feed)
		}(feed)
	}
	slog.Info("live feed started", "feeds", len(f.feeds))
	wg.Wait()
	slog.Info("live feed stopped")
}

// Last returns the latest tick per feed name.
func (f *LiveFeed) Last() map[string]Tick {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make(map[string]Tick, len(f.last))
	for k, v := range f.last {
		out[k] = v
	}
	return out
}

func (f *LiveFeed) runFeed(ctx context.Context, feed FeedConfig) {
	for {
		err := f.stream(ctx, feed)
		if ctx.Err() != nil {
			return
		}
		slog.Warn("live feed disconnected", "feed", feed.Name, "error", err, "retry_in", f.RetryDelay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(f.RetryDelay):
		}
	}
}

func (f *LiveFeed) stream(ctx context.Context, feed FeedConfig) error {
	wsURL, err := liveURL(f.baseURL, feed.InstrumentToken)
	if err != nil {
		return err
	}
	dialer := ws.Dialer{}
	if f.token != nil {
		if tok := f.token(); tok != "" {
			dialer.Header = ws.HandshakeHeaderHTTP(http.Header{"Authorization": {"Bearer " + tok}})
		}
	}

	conn, br, _, err := dialer.Dial(ctx, wsURL)
	if err != nil {
		return fmt.Errorf("live feed: dial: %w", err)
	}
	// br holds frames that arrived with the handshake response.
	var rw io.ReadWriter = conn
	if br != nil {
		rw = struct {
			io.Reader
			io.Writer
		}{br, conn}
	}
	slog.Debug("live feed connected", "feed", feed.Name, "url", wsURL)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
		case <-done:
		}
		conn.Close()
	}()

	for {
		data, err := wsutil.ReadServerText(rw)
		if err != nil {
			return fmt.Errorf("live feed: read: %w", err)
		}
		tick, ok := decodeTick(data)
		if !ok {
			slog.Debug("live feed: ignoring frame", "feed", feed.Name, "bytes", len(data))
			continue
		}
		tick.Feed = feed.Name
		tick.ReceivedAt = time.Now().UTC()

		f.mu.Lock()
		f.last[feed.Name] = tick
		f.mu.Unlock()
		f.broker.Publish(Event{Feed: feed.Name, Payload: string(data)})
	}
}

// decodeTick accepts only JSON objects carrying an instrument token.
func decodeTick(data []byte) (Tick, bool) {
	var raw struct {
		InstrumentToken *int64          `json:"instrument_token"`
		LastPrice       decimal.Decimal `json:"last_price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil || raw.InstrumentToken == nil {
		return Tick{}, false
	}
	return Tick{InstrumentToken: *raw.InstrumentToken, LastPrice: raw.LastPrice}, true
}

func liveURL(baseURL, instrumentToken string) (string, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return "", fmt.Errorf("live feed: base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("live feed: unsupported scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + livePricePath + url.PathEscape(instrumentToken)
	return u.String(), nil
}
