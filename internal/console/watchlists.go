package console

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

const emptyWatchlistMeta = "Watchlist is empty."

// WatchlistCollection is the ordered list of watchlists and the selected id.
// SelectedID is empty or the id of a member of Items.
type WatchlistCollection struct {
	Items      []backend.Watchlist `json:"items"`
	SelectedID string              `json:"selected_id,omitempty"`
}

func (c WatchlistCollection) contains(id string) bool {
	for _, w := range c.Items {
		if w.ID == id {
			return true
		}
	}
	return false
}

// ItemsView is the items of the selected watchlist. It is replaced wholesale
// on every fetch, and WatchlistID always equals the collection's SelectedID.
type ItemsView struct {
	WatchlistID       string                    `json:"watchlist_id,omitempty"`
	Items             []backend.WatchlistItem   `json:"items"`
	QuotesRefreshedAt string                    `json:"quotes_refreshed_at,omitempty"`
	KiteStatus        *backend.CredentialStatus `json:"kite_status,omitempty"`
	Meta              string                    `json:"meta"`
}

// Watchlists owns the watchlist collection, the selection and the items
// view of the selected watchlist.
type Watchlists struct {
	client     *backend.Client
	surfaces   *Surfaces
	invalidate invalidateFunc

	mu         sync.Mutex
	collection WatchlistCollection
	items      ItemsView
	itemsGen   uint64
	// prefer is selected by the next successful refresh that lists it.
	prefer string
}

func newWatchlists(client *backend.Client, surfaces *Surfaces, invalidate invalidateFunc) *Watchlists {
	return &Watchlists{client: client, surfaces: surfaces, invalidate: invalidate}
}

func (w *Watchlists) Collection() WatchlistCollection {
	w.mu.Lock()
	defer w.mu.Unlock()
	return WatchlistCollection{
		Items:      append([]backend.Watchlist(nil), w.collection.Items...),
		SelectedID: w.collection.SelectedID,
	}
}

func (w *Watchlists) Items() ItemsView {
	w.mu.Lock()
	defer w.mu.Unlock()
	v := w.items
	v.Items = append([]backend.WatchlistItem(nil), w.items.Items...)
	return v
}

func (w *Watchlists) Selected() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.collection.SelectedID
}

// selectLocked moves the selection to id. Moving it empties the items view
// and invalidates any items fetch in flight. Caller holds mu.
func (w *Watchlists) selectLocked(id string) bool {
	if w.collection.SelectedID == id && w.items.WatchlistID == id {
		return false
	}
	w.collection.SelectedID = id
	w.itemsGen++
	w.items = ItemsView{WatchlistID: id}
	return true
}

// Refresh reloads the collection. The selection is kept only when preserve
// is set and the id is still present; otherwise it falls back to the first
// watchlist, or to none.
func (w *Watchlists) Refresh(ctx context.Context, preserve bool) error {
	return w.refresh(ctx, preserve, interactive)
}

func (w *Watchlists) refresh(ctx context.Context, preserve bool, mode loadMode) error {
	lists, err := w.client.ListWatchlists(ctx)
	if err != nil {
		mode.reportError(w.surfaces, SurfaceWatchlists, err)
		return err
	}

	w.mu.Lock()
	next := WatchlistCollection{Items: lists}
	var selected string
	switch {
	case w.prefer != "" && next.contains(w.prefer):
		selected = w.prefer
	case preserve && next.contains(w.collection.SelectedID):
		selected = w.collection.SelectedID
	case len(lists) > 0:
		selected = lists[0].ID
	}
	w.prefer = ""
	w.collection.Items = next.Items
	moved := w.selectLocked(selected)
	w.mu.Unlock()

	if moved {
		w.surfaces.SetLabel(LabelWatchlistMeta, "")
	}
	if selected == "" {
		return nil
	}
	return w.loadItems(ctx, selected, silent)
}

// Select makes id the selection and loads its items.
func (w *Watchlists) Select(ctx context.Context, id string) error {
	w.mu.Lock()
	known := w.collection.contains(id)
	moved := false
	if known {
		moved = w.selectLocked(id)
	}
	w.mu.Unlock()
	if !known {
		err := validation(fmt.Sprintf("Unknown watchlist %q", id), ErrNoWatchlistSelected)
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return err
	}
	if moved {
		w.surfaces.SetLabel(LabelWatchlistMeta, "")
	}
	return w.loadItems(ctx, id, interactive)
}

// reloadItems silently refetches the selected watchlist's items.
func (w *Watchlists) reloadItems(ctx context.Context) error {
	id := w.Selected()
	if id == "" {
		return nil
	}
	return w.loadItems(ctx, id, silent)
}

func (w *Watchlists) loadItems(ctx context.Context, id string, mode loadMode) error {
	w.mu.Lock()
	w.itemsGen++
	gen := w.itemsGen
	w.mu.Unlock()

	mode.report(w.surfaces, SurfaceWatchlists, "Loading watchlist…", ToneInfo)
	res, err := w.client.WatchlistItems(ctx, id)
	if err != nil {
		if !w.currentItems(gen, id) {
			slog.Debug("dropping stale watchlist items failure", "watchlist", id, "generation", gen, "error", err)
			return nil
		}
		mode.reportError(w.surfaces, SurfaceWatchlists, err)
		return err
	}

	view := ItemsView{
		WatchlistID:       id,
		Items:             res.Items,
		QuotesRefreshedAt: res.QuotesRefreshedAt,
		KiteStatus:        res.KiteStatus,
	}
	view.Meta = itemsMeta(view)

	w.mu.Lock()
	if gen != w.itemsGen || w.collection.SelectedID != id {
		w.mu.Unlock()
		slog.Debug("discarding stale watchlist items", "watchlist", id, "generation", gen)
		return nil
	}
	w.items = view
	w.mu.Unlock()

	w.surfaces.SetLabel(LabelWatchlistMeta, view.Meta)
	mode.report(w.surfaces, SurfaceWatchlists, fmt.Sprintf("Loaded %d items.", len(view.Items)), ToneSuccess)
	return nil
}

func (w *Watchlists) currentItems(gen uint64, id string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return gen == w.itemsGen && w.collection.SelectedID == id
}

func itemsMeta(v ItemsView) string {
	if len(v.Items) == 0 {
		return emptyWatchlistMeta
	}
	missing := 0
	for _, it := range v.Items {
		if it.Missing {
			missing++
		}
	}
	parts := []string{fmt.Sprintf("%d items", len(v.Items))}
	if missing > 0 {
		parts = append(parts, fmt.Sprintf("%d missing from catalog", missing))
	}
	if v.QuotesRefreshedAt != "" {
		parts = append(parts, "Quotes refreshed "+v.QuotesRefreshedAt)
	}
	return strings.Join(parts, " · ")
}

// Create adds a watchlist. It becomes the selection once a refresh lists it.
func (w *Watchlists) Create(ctx context.Context, name string) (backend.Watchlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		err := validation("Watchlist name is required", nil)
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return backend.Watchlist{}, err
	}
	if err := w.client.RequireAuthenticated(); err != nil {
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return backend.Watchlist{}, err
	}
	created, err := w.client.CreateWatchlist(ctx, name)
	if err != nil {
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return backend.Watchlist{}, err
	}

	w.mu.Lock()
	w.prefer = created.ID
	w.mu.Unlock()

	w.surfaces.Report(SurfaceWatchlists, fmt.Sprintf("Created watchlist %q.", created.Name), ToneSuccess)
	w.invalidate(ctx, ActionWatchlistCreated)
	return created, nil
}

// Rename changes the name of the selected watchlist.
func (w *Watchlists) Rename(ctx context.Context, name string) error {
	id, err := w.requireSelection()
	if err != nil {
		return err
	}
	name = strings.TrimSpace(name)
	if name == "" {
		err := validation("Watchlist name is required", nil)
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return err
	}
	renamed, err := w.client.RenameWatchlist(ctx, id, name)
	if err != nil {
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return err
	}
	w.surfaces.Report(SurfaceWatchlists, fmt.Sprintf("Renamed watchlist to %q.", renamed.Name), ToneSuccess)
	w.invalidate(ctx, ActionWatchlistRenamed)
	return nil
}

// Delete removes the selected watchlist. The selection moves to the first
// remaining watchlist.
func (w *Watchlists) Delete(ctx context.Context) error {
	id, err := w.requireSelection()
	if err != nil {
		return err
	}
	detail, err := w.client.DeleteWatchlist(ctx, id)
	if err != nil {
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return err
	}

	w.mu.Lock()
	remaining := w.collection.Items[:0:0]
	for _, wl := range w.collection.Items {
		if wl.ID != id {
			remaining = append(remaining, wl)
		}
	}
	w.collection.Items = remaining
	w.selectLocked("")
	w.mu.Unlock()
	w.surfaces.SetLabel(LabelWatchlistMeta, "")

	w.surfaces.Report(SurfaceWatchlists, detailOr(detail, "Watchlist deleted."), ToneSuccess)
	w.invalidate(ctx, ActionWatchlistDeleted)
	return nil
}

// AddItem appends an instrument to the selected watchlist.
func (w *Watchlists) AddItem(ctx context.Context, instrumentID string) error {
	id, err := w.requireSelection()
	if err != nil {
		return err
	}
	instrumentID = strings.TrimSpace(instrumentID)
	if instrumentID == "" {
		err := validation("Instrument id is required", nil)
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return err
	}
	if _, err := w.client.AddWatchlistItem(ctx, id, instrumentID); err != nil {
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return err
	}
	w.surfaces.Report(SurfaceWatchlists, "Instrument added to watchlist.", ToneSuccess)
	w.invalidate(ctx, ActionWatchlistItemAdded)
	return nil
}

// RemoveItem deletes one entry from the selected watchlist.
func (w *Watchlists) RemoveItem(ctx context.Context, itemID string) error {
	id, err := w.requireSelection()
	if err != nil {
		return err
	}
	detail, err := w.client.RemoveWatchlistItem(ctx, id, itemID)
	if err != nil {
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return err
	}
	w.surfaces.Report(SurfaceWatchlists, detailOr(detail, "Item removed."), ToneSuccess)
	w.invalidate(ctx, ActionWatchlistItemRemoved)
	return nil
}

func (w *Watchlists) requireSelection() (string, error) {
	if err := w.client.RequireAuthenticated(); err != nil {
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return "", err
	}
	id := w.Selected()
	if id == "" {
		err := validation("Select a watchlist first", ErrNoWatchlistSelected)
		w.surfaces.ReportError(SurfaceWatchlists, err)
		return "", err
	}
	return id, nil
}

func detailOr(d backend.Detail, fallback string) string {
	if d.Detail != "" {
		return d.Detail
	}
	return fallback
}
