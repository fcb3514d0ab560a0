package console

import (
	"sync"
	"time"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

// Tone marks a status line. ToneNone means no marker is shown.
type Tone string

const (
	ToneNone    Tone = ""
	ToneInfo    Tone = "info"
	ToneSuccess Tone = "success"
	ToneError   Tone = "error"
)

// Status surfaces, one per panel plus the login form.
const (
	SurfaceLogin       = "login"
	SurfaceDashboard   = "dashboard"
	SurfaceCatalog     = "catalog"
	SurfaceImports     = "imports"
	SurfaceWatchlists  = "watchlists"
	SurfaceCredentials = "credentials"
	SurfaceUsers       = "users"
)

// Labels are plain text outputs that never carry a tone.
const (
	LabelCredentialStatus = "credentials.status"
	LabelDashboardKite    = "dashboard.kite"
	LabelDashboardImport  = "dashboard.import"
	LabelCatalogCaption   = "catalog.caption"
	LabelWatchlistMeta    = "watchlists.meta"
)

type UpdateKind string

const (
	UpdateStatus UpdateKind = "status"
	UpdateLabel  UpdateKind = "label"
	UpdatePanel  UpdateKind = "panel"
)

// Update is one write to a named surface.
type Update struct {
	Kind UpdateKind `json:"kind"`
	Name string     `json:"name"`
	Text string     `json:"text"`
	Tone Tone       `json:"tone,omitempty"`
	At   time.Time  `json:"at"`
}

// Sink is an output port that receives every surface update.
type Sink interface {
	Publish(Update)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(Update)

func (f SinkFunc) Publish(u Update) { f(u) }

// Surfaces is the status reporter: the latest (message, tone) per status
// surface plus plain labels, fanned out to attached sinks.
type Surfaces struct {
	mu     sync.RWMutex
	status map[string]Update
	labels map[string]string
	sinks  []Sink
	now    func() time.Time
}

func NewSurfaces(sinks ...Sink) *Surfaces {
	return &Surfaces{
		status: make(map[string]Update),
		labels: make(map[string]string),
		sinks:  sinks,
		now:    time.Now,
	}
}

func (s *Surfaces) Attach(sink Sink) {
	s.mu.Lock()
	s.sinks = append(s.sinks, sink)
	s.mu.Unlock()
}

// Report sets the status line of a surface. An empty text clears it.
func (s *Surfaces) Report(name, text string, tone Tone) {
	if text == "" {
		s.Clear(name)
		return
	}
	u := Update{Kind: UpdateStatus, Name: name, Text: text, Tone: tone, At: s.now()}
	s.mu.Lock()
	s.status[name] = u
	sinks := s.sinks
	s.mu.Unlock()
	publish(sinks, u)
}

// Clear removes the status line and its tone marker.
func (s *Surfaces) Clear(name string) {
	u := Update{Kind: UpdateStatus, Name: name, At: s.now()}
	s.mu.Lock()
	delete(s.status, name)
	sinks := s.sinks
	s.mu.Unlock()
	publish(sinks, u)
}

func (s *Surfaces) ReportError(name string, err error) {
	s.Report(name, backend.Message(err), ToneError)
}

func (s *Surfaces) Status(name string) (Update, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.status[name]
	return u, ok
}

// SetLabel writes label text directly, bypassing the status/tone workflow.
func (s *Surfaces) SetLabel(name, text string) {
	u := Update{Kind: UpdateLabel, Name: name, Text: text, At: s.now()}
	s.mu.Lock()
	s.labels[name] = text
	sinks := s.sinks
	s.mu.Unlock()
	publish(sinks, u)
}

func (s *Surfaces) Label(name string) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.labels[name]
}

func (s *Surfaces) announcePanel(p Panel) {
	s.mu.RLock()
	sinks := s.sinks
	s.mu.RUnlock()
	publish(sinks, Update{Kind: UpdatePanel, Name: string(p), At: s.now()})
}

// SurfacesView is a copy of every status line and label.
type SurfacesView struct {
	Status map[string]Update `json:"status"`
	Labels map[string]string `json:"labels"`
}

func (s *Surfaces) View() SurfacesView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v := SurfacesView{
		Status: make(map[string]Update, len(s.status)),
		Labels: make(map[string]string, len(s.labels)),
	}
	for k, u := range s.status {
		v.Status[k] = u
	}
	for k, t := range s.labels {
		v.Labels[k] = t
	}
	return v
}

func publish(sinks []Sink, u Update) {
	for _, sink := range sinks {
		sink.Publish(u)
	}
}
