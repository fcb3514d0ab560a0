package console

import (
	"context"
	"fmt"
	"sync"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

const noImportsText = "No imports yet."

// Dashboard holds the latest summary. The embedded credential status is
// handed to the mirror so both labels agree without a second request.
type Dashboard struct {
	client   *backend.Client
	surfaces *Surfaces
	mirror   *CredentialMirror

	mu      sync.Mutex
	summary *backend.DashboardSummary
}

func newDashboard(client *backend.Client, surfaces *Surfaces, mirror *CredentialMirror) *Dashboard {
	return &Dashboard{client: client, surfaces: surfaces, mirror: mirror}
}

func (d *Dashboard) Summary() (backend.DashboardSummary, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.summary == nil {
		return backend.DashboardSummary{}, false
	}
	return *d.summary, true
}

func (d *Dashboard) Refresh(ctx context.Context, announce bool) error {
	mode := silent
	if announce {
		mode = interactive
	}
	mode.report(d.surfaces, SurfaceDashboard, "Loading dashboard…", ToneInfo)
	summary, err := d.client.Dashboard(ctx)
	if err != nil {
		mode.reportError(d.surfaces, SurfaceDashboard, err)
		return err
	}

	d.mu.Lock()
	d.summary = &summary
	d.mu.Unlock()

	d.mirror.Publish(ctx, summary.KiteStatus)
	d.surfaces.SetLabel(LabelDashboardImport, LatestImportLine(summary.LatestImport))
	mode.report(d.surfaces, SurfaceDashboard, "Dashboard updated.", ToneSuccess)
	return nil
}

// LatestImportLine summarizes the most recent catalog import.
func LatestImportLine(imp *backend.ImportSummary) string {
	if imp == nil {
		return noImportsText
	}
	line := fmt.Sprintf("Last import %s from %s: %d/%d rows", imp.Status, imp.Source, imp.RowsOK, imp.RowsIn)
	if imp.RowsErr > 0 {
		line += fmt.Sprintf(", %d errors", imp.RowsErr)
	}
	if at := imp.FinishedAt; at != "" {
		line += " at " + formatInstant(at)
	} else if imp.StartedAt != "" {
		line += " at " + formatInstant(imp.StartedAt)
	}
	return line
}
