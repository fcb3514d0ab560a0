package console

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

const (
	noCredentialsText = "No credentials stored."
	credentialsActive = "Kite credentials active"
	fragmentSeparator = " · "
	maskPrefix        = "•••"
)

// Notifier delivers out-of-band alerts about the broker credential.
type Notifier interface {
	Notify(ctx context.Context, title, message string) error
}

// Describe renders the credential status as one line of text.
func Describe(s backend.CredentialStatus) string {
	if !s.Configured {
		return noCredentialsText
	}
	parts := []string{credentialsActive}
	if s.APIKeyLast4 != "" {
		parts = append(parts, "API key "+maskPrefix+s.APIKeyLast4)
	}
	if s.AccessTokenLast4 != "" {
		parts = append(parts, "Access token "+maskPrefix+s.AccessTokenLast4)
	}
	if s.ValidTill != "" {
		parts = append(parts, "Valid till "+formatInstant(s.ValidTill))
	}
	return strings.Join(parts, fragmentSeparator)
}

var instantLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04",
}

// parseInstant reads the backend's ISO timestamps. Timestamps without a zone
// are UTC.
func parseInstant(s string) (time.Time, bool) {
	for _, layout := range instantLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func formatInstant(s string) string {
	t, ok := parseInstant(s)
	if !ok {
		return s
	}
	return t.Format("2006-01-02 15:04 UTC")
}

// CredentialMirror holds the last fetched credential status and republishes
// its description to every subscribed label. It never derives state from
// what was saved; every action ends with a fresh fetch.
type CredentialMirror struct {
	client        *backend.Client
	surfaces      *Surfaces
	invalidate    invalidateFunc
	labels        []string
	notifier      Notifier
	expiryWarning time.Duration
	now           func() time.Time

	mu       sync.Mutex
	status   backend.CredentialStatus
	loaded   bool
	notified string
}

func newCredentialMirror(client *backend.Client, surfaces *Surfaces, invalidate invalidateFunc, opts Options) *CredentialMirror {
	return &CredentialMirror{
		client:        client,
		surfaces:      surfaces,
		invalidate:    invalidate,
		labels:        []string{LabelCredentialStatus, LabelDashboardKite},
		notifier:      opts.Notifier,
		expiryWarning: opts.ExpiryWarning,
		now:           opts.Now,
	}
}

func (m *CredentialMirror) Status() (backend.CredentialStatus, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.loaded
}

// Refresh fetches the status. With announce set the description also goes
// to the credentials status line; otherwise only the labels change.
func (m *CredentialMirror) Refresh(ctx context.Context, announce bool) error {
	mode := silent
	if announce {
		mode = interactive
	}
	status, err := m.client.CredentialStatus(ctx)
	if err != nil {
		mode.reportError(m.surfaces, SurfaceCredentials, err)
		return err
	}
	text := m.Publish(ctx, status)
	if announce {
		m.surfaces.Report(SurfaceCredentials, text, ToneInfo)
	}
	return nil
}

// Publish replaces the mirrored status, for instance with the copy embedded
// in the dashboard summary, and writes the description to every label.
func (m *CredentialMirror) Publish(ctx context.Context, status backend.CredentialStatus) string {
	m.mu.Lock()
	m.status = status
	m.loaded = true
	m.mu.Unlock()

	text := Describe(status)
	for _, label := range m.labels {
		m.surfaces.SetLabel(label, text)
	}
	m.warnIfExpiring(ctx, status)
	return text
}

func (m *CredentialMirror) warnIfExpiring(ctx context.Context, status backend.CredentialStatus) {
	if m.notifier == nil || m.expiryWarning <= 0 || !status.Configured || status.ValidTill == "" {
		return
	}
	validTill, ok := parseInstant(status.ValidTill)
	if !ok {
		return
	}
	left := validTill.Sub(m.now())
	if left > m.expiryWarning {
		return
	}

	m.mu.Lock()
	if m.notified == status.ValidTill {
		m.mu.Unlock()
		return
	}
	m.notified = status.ValidTill
	m.mu.Unlock()

	msg := fmt.Sprintf("Kite access token expires %s", formatInstant(status.ValidTill))
	if left <= 0 {
		msg = fmt.Sprintf("Kite access token expired %s", formatInstant(status.ValidTill))
	}
	if err := m.notifier.Notify(ctx, "Kite credentials", msg); err != nil {
		slog.Warn("credential expiry notification failed", "error", err)
	}
}

// Save stores a new credential.
func (m *CredentialMirror) Save(ctx context.Context, in backend.CredentialInput) error {
	in.APIKey = strings.TrimSpace(in.APIKey)
	in.AccessToken = strings.TrimSpace(in.AccessToken)
	in.ValidTill = strings.TrimSpace(in.ValidTill)
	if in.APIKey == "" || in.AccessToken == "" {
		err := validation("API key and access token are required", nil)
		m.surfaces.ReportError(SurfaceCredentials, err)
		return err
	}
	return m.run(ctx, ActionCredentialSaved, "Saving credentials…", "Credentials saved.", func() (backend.Detail, error) {
		return m.client.SaveCredential(ctx, in)
	})
}

// Test asks the backend to call the broker with the stored credential.
func (m *CredentialMirror) Test(ctx context.Context) error {
	err := m.run(ctx, ActionCredentialTested, "Testing credentials…", "Credentials are valid.", func() (backend.Detail, error) {
		return m.client.TestCredential(ctx)
	})
	if err != nil && m.notifier != nil && backend.CodeOf(err) == backend.CodeRequestFailure {
		if nerr := m.notifier.Notify(ctx, "Kite credentials", "Credential test failed: "+backend.Message(err)); nerr != nil {
			slog.Warn("credential test notification failed", "error", nerr)
		}
	}
	return err
}

func (m *CredentialMirror) Clear(ctx context.Context) error {
	return m.run(ctx, ActionCredentialCleared, "Clearing credentials…", "Credentials cleared.", func() (backend.Detail, error) {
		return m.client.ClearCredential(ctx)
	})
}

// CompleteSession exchanges a Kite login request token for an access token.
func (m *CredentialMirror) CompleteSession(ctx context.Context, requestToken string) error {
	requestToken = strings.TrimSpace(requestToken)
	if requestToken == "" {
		err := validation("Request token is required", nil)
		m.surfaces.ReportError(SurfaceCredentials, err)
		return err
	}
	return m.run(ctx, ActionKiteSessionCompleted, "Completing Kite session…", "Kite session completed.", func() (backend.Detail, error) {
		return m.client.CompleteKiteSession(ctx, requestToken)
	})
}

// run performs a credential action and then invalidates the mirror whether
// the action succeeded or not.
func (m *CredentialMirror) run(ctx context.Context, action Action, pending, done string, call func() (backend.Detail, error)) error {
	if err := m.client.RequireAuthenticated(); err != nil {
		m.surfaces.ReportError(SurfaceCredentials, err)
		return err
	}
	m.surfaces.Report(SurfaceCredentials, pending, ToneInfo)
	detail, err := call()
	if err != nil {
		m.surfaces.ReportError(SurfaceCredentials, err)
	} else {
		m.surfaces.Report(SurfaceCredentials, detailOr(detail, done), ToneSuccess)
	}
	m.invalidate(ctx, action)
	return err
}
