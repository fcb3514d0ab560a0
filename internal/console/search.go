package console

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

const (
	DefaultSearchLimit = 20
	maxSearchLimit     = 500
)

// SearchParams are the catalog filters. They are replaced wholesale on every
// fresh search.
type SearchParams struct {
	Query    string `json:"q,omitempty"`
	Segment  string `json:"segment,omitempty"`
	Exchange string `json:"exchange,omitempty"`
	Type     string `json:"type,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

func (p SearchParams) normalized(defaultLimit int) SearchParams {
	p.Query = strings.TrimSpace(p.Query)
	p.Segment = strings.TrimSpace(p.Segment)
	p.Exchange = strings.TrimSpace(p.Exchange)
	p.Type = strings.TrimSpace(p.Type)
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxSearchLimit {
		p.Limit = maxSearchLimit
	}
	return p
}

func (p SearchParams) page(cursor *string) backend.SearchQuery {
	return backend.SearchQuery{
		Query:    p.Query,
		Segment:  p.Segment,
		Exchange: p.Exchange,
		Type:     p.Type,
		Limit:    p.Limit,
		Cursor:   cursor,
	}
}

// SearchState is a copy of the search controller's state. Cursor is nil both
// before the first search and after the last page.
type SearchState struct {
	Params   SearchParams         `json:"params"`
	Cursor   *string              `json:"cursor"`
	Rows     []backend.Instrument `json:"rows"`
	Total    int                  `json:"total"`
	Searched bool                 `json:"searched"`
	Caption  string               `json:"caption"`
}

func (s SearchState) CanLoadMore() bool { return s.Cursor != nil }

// Search owns the catalog query, its continuation cursor and the rows loaded
// so far. Each request takes a generation; only the latest one is applied.
type Search struct {
	client       *backend.Client
	surfaces     *Surfaces
	invalidate   invalidateFunc
	defaultLimit int

	mu    sync.Mutex
	gen   uint64
	state SearchState
}

func newSearch(client *backend.Client, surfaces *Surfaces, invalidate invalidateFunc, defaultLimit int) *Search {
	if defaultLimit <= 0 {
		defaultLimit = DefaultSearchLimit
	}
	return &Search{
		client:       client,
		surfaces:     surfaces,
		invalidate:   invalidate,
		defaultLimit: defaultLimit,
		state:        SearchState{Params: SearchParams{Limit: defaultLimit}},
	}
}

func (s *Search) State() SearchState {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.state
	out.Rows = append([]backend.Instrument(nil), s.state.Rows...)
	if s.state.Cursor != nil {
		c := *s.state.Cursor
		out.Cursor = &c
	}
	return out
}

// Search runs a fresh search: params replaced, rows and cursor cleared, first
// page requested without a cursor.
func (s *Search) Search(ctx context.Context, params SearchParams) error {
	return s.search(ctx, params, interactive)
}

// LoadIfEmpty runs a fresh search with the current params when no rows are
// rendered.
func (s *Search) LoadIfEmpty(ctx context.Context) error {
	s.mu.Lock()
	empty := len(s.state.Rows) == 0
	params := s.state.Params
	s.mu.Unlock()
	if !empty {
		return nil
	}
	return s.search(ctx, params, interactive)
}

// rerun repeats the last search silently; used after the catalog changed.
func (s *Search) rerun(ctx context.Context) error {
	s.mu.Lock()
	searched := s.state.Searched
	params := s.state.Params
	s.mu.Unlock()
	if !searched {
		return nil
	}
	return s.search(ctx, params, silent)
}

func (s *Search) search(ctx context.Context, params SearchParams, mode loadMode) error {
	if err := s.client.RequireAuthenticated(); err != nil {
		mode.reportError(s.surfaces, SurfaceCatalog, err)
		return err
	}
	params = params.normalized(s.defaultLimit)

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.state = SearchState{Params: params, Searched: true}
	s.mu.Unlock()

	mode.report(s.surfaces, SurfaceCatalog, "Searching instruments…", ToneInfo)
	page, err := s.client.SearchInstruments(ctx, params.page(nil))
	if err != nil {
		if s.current(gen) {
			mode.reportError(s.surfaces, SurfaceCatalog, err)
		}
		return err
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		slog.Debug("discarding stale search response", "generation", gen)
		return nil
	}
	s.state.Rows = append([]backend.Instrument(nil), page.Items...)
	s.state.Cursor = page.NextCursor
	s.state.Total = pageTotal(page, len(s.state.Rows))
	s.state.Caption = caption(len(s.state.Rows), s.state.Total)
	n, captionText := len(s.state.Rows), s.state.Caption
	s.mu.Unlock()

	s.surfaces.SetLabel(LabelCatalogCaption, captionText)
	if n == 0 {
		mode.report(s.surfaces, SurfaceCatalog, "No instruments match the current filters.", ToneInfo)
	} else {
		mode.report(s.surfaces, SurfaceCatalog, fmt.Sprintf("Loaded %d instruments.", n), ToneSuccess)
	}
	return nil
}

// LoadMore appends the next page. It does nothing when the cursor is nil.
// Rows are appended in server order without re-sorting or de-duplication.
func (s *Search) LoadMore(ctx context.Context) error {
	s.mu.Lock()
	if s.state.Cursor == nil {
		s.mu.Unlock()
		return nil
	}
	cursor := *s.state.Cursor
	params := s.state.Params
	s.mu.Unlock()

	if err := s.client.RequireAuthenticated(); err != nil {
		s.surfaces.ReportError(SurfaceCatalog, err)
		return err
	}

	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.mu.Unlock()

	s.surfaces.Report(SurfaceCatalog, "Loading more instruments…", ToneInfo)
	page, err := s.client.SearchInstruments(ctx, params.page(&cursor))
	if err != nil {
		if s.current(gen) {
			s.surfaces.ReportError(SurfaceCatalog, err)
		}
		return err
	}

	s.mu.Lock()
	if gen != s.gen {
		s.mu.Unlock()
		slog.Debug("discarding stale load-more response", "generation", gen)
		return nil
	}
	s.state.Rows = append(s.state.Rows, page.Items...)
	s.state.Cursor = page.NextCursor
	s.state.Total = pageTotal(page, len(s.state.Rows))
	s.state.Caption = caption(len(s.state.Rows), s.state.Total)
	added, captionText := len(page.Items), s.state.Caption
	s.mu.Unlock()

	s.surfaces.SetLabel(LabelCatalogCaption, captionText)
	s.surfaces.Report(SurfaceCatalog, fmt.Sprintf("Loaded %d more instruments.", added), ToneSuccess)
	return nil
}

// ClearAll deletes the whole catalog. Local rows are dropped only once the
// backend confirms.
func (s *Search) ClearAll(ctx context.Context) error {
	if err := s.client.RequireAuthenticated(); err != nil {
		s.surfaces.ReportError(SurfaceCatalog, err)
		return err
	}
	s.surfaces.Report(SurfaceCatalog, "Deleting all instruments…", ToneInfo)
	detail, deleted, err := s.client.DeleteInstruments(ctx)
	if err != nil {
		s.surfaces.ReportError(SurfaceCatalog, err)
		return err
	}

	s.mu.Lock()
	s.gen++
	s.state.Rows = nil
	s.state.Cursor = nil
	s.state.Total = 0
	s.state.Caption = caption(0, 0)
	s.mu.Unlock()

	s.surfaces.SetLabel(LabelCatalogCaption, caption(0, 0))
	msg := detail.Detail
	if msg == "" {
		msg = "Instruments deleted"
	}
	s.surfaces.Report(SurfaceCatalog, fmt.Sprintf("%s (%d removed).", msg, deleted), ToneSuccess)
	s.invalidate(ctx, ActionCatalogCleared)
	return nil
}

func (s *Search) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return gen == s.gen
}

func pageTotal(page backend.SearchPage, loaded int) int {
	if page.Total != nil {
		return *page.Total
	}
	return loaded
}

func caption(shown, total int) string {
	return fmt.Sprintf("Showing %d of %d", shown, total)
}
