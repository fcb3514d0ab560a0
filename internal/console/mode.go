package console

import "log/slog"

// loadMode separates user-triggered loads, which report through the status
// surfaces, from cascading reloads, which stay quiet and log failures.
type loadMode int

const (
	interactive loadMode = iota
	silent
)

func (m loadMode) report(s *Surfaces, name, text string, tone Tone) {
	if m == interactive {
		s.Report(name, text, tone)
	}
}

func (m loadMode) reportError(s *Surfaces, name string, err error) {
	if m == interactive {
		s.ReportError(name, err)
		return
	}
	slog.Warn("background refresh failed", "surface", name, "error", err)
}
