package console

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

// ImportSources are the CSV layouts the backend knows how to parse.
var ImportSources = []string{"upstox", "zerodha", "dhan", "custom"}

// Imports is the catalog import history plus the CSV upload action.
type Imports struct {
	client     *backend.Client
	surfaces   *Surfaces
	invalidate invalidateFunc

	mu      sync.Mutex
	records []backend.ImportRecord
	last    *backend.ImportResult
}

func newImports(client *backend.Client, surfaces *Surfaces, invalidate invalidateFunc) *Imports {
	return &Imports{client: client, surfaces: surfaces, invalidate: invalidate}
}

func (im *Imports) Records() []backend.ImportRecord {
	im.mu.Lock()
	defer im.mu.Unlock()
	return append([]backend.ImportRecord(nil), im.records...)
}

func (im *Imports) LastResult() *backend.ImportResult {
	im.mu.Lock()
	defer im.mu.Unlock()
	if im.last == nil {
		return nil
	}
	r := *im.last
	return &r
}

func (im *Imports) Refresh(ctx context.Context) error {
	return im.refresh(ctx, interactive)
}

func (im *Imports) refresh(ctx context.Context, mode loadMode) error {
	records, err := im.client.ListImports(ctx)
	if err != nil {
		mode.reportError(im.surfaces, SurfaceImports, err)
		return err
	}
	im.mu.Lock()
	im.records = records
	im.mu.Unlock()
	return nil
}

// Upload sends one CSV file to the import endpoint. Validation happens before
// any request is built.
func (im *Imports) Upload(ctx context.Context, up backend.ImportUpload) (backend.ImportResult, error) {
	if len(up.Data) == 0 {
		err := validation("Choose a CSV file to import", nil)
		im.surfaces.ReportError(SurfaceImports, err)
		return backend.ImportResult{}, err
	}
	up.Source = strings.ToLower(strings.TrimSpace(up.Source))
	if !validSource(up.Source) {
		err := validation(fmt.Sprintf("Unsupported import source %q", up.Source), nil)
		im.surfaces.ReportError(SurfaceImports, err)
		return backend.ImportResult{}, err
	}
	if up.Filename == "" {
		up.Filename = up.Source + ".csv"
	}

	im.surfaces.Report(SurfaceImports, "Uploading instruments…", ToneInfo)
	res, err := im.client.ImportInstruments(ctx, up)
	if err != nil {
		im.surfaces.ReportError(SurfaceImports, err)
		return backend.ImportResult{}, err
	}

	im.mu.Lock()
	im.last = &res
	im.mu.Unlock()

	tone := ToneSuccess
	if res.RowsErr > 0 {
		tone = ToneError
	}
	im.surfaces.Report(SurfaceImports, fmt.Sprintf("Import %s: %d rows imported, %d failed.", res.Status, res.RowsOK, res.RowsErr), tone)
	im.invalidate(ctx, ActionCatalogImported)
	return res, nil
}

func validSource(s string) bool {
	for _, src := range ImportSources {
		if s == src {
			return true
		}
	}
	return false
}
