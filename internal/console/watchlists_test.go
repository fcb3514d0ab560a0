package console

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

func TestCreateAddRemoveScenario(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	ctx := context.Background()
	fb.mu.Lock()
	fb.instruments = []backend.Instrument{{ID: "42", TradingSymbol: "INFY"}}
	fb.mu.Unlock()

	created, err := app.CreateWatchlist(ctx, "Tech")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	st := app.View()
	if st.Watchlists.SelectedID != created.ID {
		t.Fatalf("selected = %q; want %q", st.Watchlists.SelectedID, created.ID)
	}
	if len(st.Watchlists.Items) != 1 || st.Watchlists.Items[0].Name != "Tech" {
		t.Fatalf("collection = %+v", st.Watchlists.Items)
	}

	if err := app.AddWatchlistItem(ctx, "42"); err != nil {
		t.Fatalf("AddItem() error = %v", err)
	}
	items := app.View().Items
	if len(items.Items) != 1 || items.Items[0].InstrumentID != "42" {
		t.Fatalf("items = %+v; want one row with instrument 42", items.Items)
	}
	if items.Items[0].Missing {
		t.Fatal("item flagged missing; want resolved")
	}

	if err := app.RemoveWatchlistItem(ctx, items.Items[0].ItemID); err != nil {
		t.Fatalf("RemoveItem() error = %v", err)
	}
	items = app.View().Items
	if len(items.Items) != 0 {
		t.Fatalf("items = %+v; want empty", items.Items)
	}
	if items.Meta != emptyWatchlistMeta {
		t.Fatalf("meta = %q; want %q", items.Meta, emptyWatchlistMeta)
	}
	if got := app.Surfaces().Label(LabelWatchlistMeta); got != emptyWatchlistMeta {
		t.Fatalf("meta label = %q", got)
	}
	status, _ := app.Surfaces().Status(SurfaceWatchlists)
	if status.Tone == ToneError {
		t.Fatalf("status = %+v; empty watchlist is not an error", status)
	}
	if got := fb.seen("GET /api/v1/admin/dashboard"); got != 2 {
		t.Fatalf("dashboard refreshes = %d; want one per item mutation", got)
	}
}

func TestRefreshPreserveFallsBackWhenSelectionGone(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	ctx := context.Background()

	fb.mu.Lock()
	fb.watchlists = []backend.Watchlist{{ID: "wl_a", Name: "A"}, {ID: "wl_b", Name: "B"}}
	fb.mu.Unlock()
	if err := app.RefreshWatchlists(ctx); err != nil {
		t.Fatal(err)
	}
	if err := app.SelectWatchlist(ctx, "wl_b"); err != nil {
		t.Fatal(err)
	}

	fb.mu.Lock()
	fb.watchlists = []backend.Watchlist{{ID: "wl_c", Name: "C"}, {ID: "wl_a", Name: "A"}}
	fb.mu.Unlock()
	if err := app.RefreshWatchlists(ctx); err != nil {
		t.Fatal(err)
	}
	if got := app.View().Watchlists.SelectedID; got != "wl_c" {
		t.Fatalf("selected = %q; want first element wl_c", got)
	}

	fb.mu.Lock()
	fb.watchlists = nil
	fb.mu.Unlock()
	if err := app.RefreshWatchlists(ctx); err != nil {
		t.Fatal(err)
	}
	st := app.View()
	if st.Watchlists.SelectedID != "" {
		t.Fatalf("selected = %q; want none", st.Watchlists.SelectedID)
	}
	if len(st.Items.Items) != 0 {
		t.Fatalf("items = %+v; want cleared", st.Items.Items)
	}
}

func TestRefreshPreserveKeepsValidSelection(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	ctx := context.Background()

	fb.mu.Lock()
	fb.watchlists = []backend.Watchlist{{ID: "wl_a", Name: "A"}, {ID: "wl_b", Name: "B"}}
	fb.mu.Unlock()
	if err := app.RefreshWatchlists(ctx); err != nil {
		t.Fatal(err)
	}
	if err := app.SelectWatchlist(ctx, "wl_b"); err != nil {
		t.Fatal(err)
	}
	if err := app.RefreshWatchlists(ctx); err != nil {
		t.Fatal(err)
	}
	if got := app.View().Watchlists.SelectedID; got != "wl_b" {
		t.Fatalf("selected = %q; want wl_b", got)
	}
	if err := app.watchlists.Refresh(ctx, false); err != nil {
		t.Fatal(err)
	}
	if got := app.View().Watchlists.SelectedID; got != "wl_a" {
		t.Fatalf("selected = %q; want wl_a without preserve", got)
	}
}

func TestItemMutationsRequireSelection(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	ctx := context.Background()

	if err := app.AddWatchlistItem(ctx, "42"); !errors.Is(err, ErrNoWatchlistSelected) {
		t.Fatalf("AddItem() error = %v; want ErrNoWatchlistSelected", err)
	}
	if err := app.RemoveWatchlistItem(ctx, "item_1"); !errors.Is(err, ErrNoWatchlistSelected) {
		t.Fatalf("RemoveItem() error = %v; want ErrNoWatchlistSelected", err)
	}
	if fb.count() != 0 {
		t.Fatalf("requests = %d; want 0", fb.count())
	}
}

func TestCreateRequiresName(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	_, err := app.CreateWatchlist(context.Background(), "   ")
	if backend.Message(err) != "Watchlist name is required" {
		t.Fatalf("error = %v", err)
	}
	if fb.count() != 0 {
		t.Fatalf("requests = %d; want 0", fb.count())
	}
}

func TestMissingItemsAfterCatalogReplace(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	ctx := context.Background()
	fb.mu.Lock()
	fb.instruments = []backend.Instrument{{ID: "42"}, {ID: "43"}}
	fb.mu.Unlock()

	if _, err := app.CreateWatchlist(ctx, "Tech"); err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{"42", "43"} {
		if err := app.AddWatchlistItem(ctx, id); err != nil {
			t.Fatal(err)
		}
	}
	csv := "tradingsymbol\nNEW\n"
	if _, err := app.UploadImport(ctx, backend.ImportUpload{Source: "zerodha", Data: []byte(csv), Replace: true}); err != nil {
		t.Fatal(err)
	}

	items := app.View().Items
	if len(items.Items) != 2 {
		t.Fatalf("items = %d; want 2", len(items.Items))
	}
	for _, it := range items.Items {
		if !it.Missing {
			t.Fatalf("item %+v not flagged missing after replace import", it)
		}
	}
	if items.Meta == emptyWatchlistMeta {
		t.Fatal("meta says empty for a watchlist with missing items")
	}
}

func TestDuplicateAddReportsBackendDetail(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	ctx := context.Background()
	fb.mu.Lock()
	fb.instruments = []backend.Instrument{{ID: "42"}}
	fb.mu.Unlock()

	if _, err := app.CreateWatchlist(ctx, "Tech"); err != nil {
		t.Fatal(err)
	}
	if err := app.AddWatchlistItem(ctx, "42"); err != nil {
		t.Fatal(err)
	}
	err := app.AddWatchlistItem(ctx, "42")
	var coded *backend.CodedError
	if !errors.As(err, &coded) || coded.Status != 409 {
		t.Fatalf("error = %v; want 409 request failure", err)
	}
	status, _ := app.Surfaces().Status(SurfaceWatchlists)
	if status.Text != "Instrument already in watchlist" {
		t.Fatalf("status = %q", status.Text)
	}
}

func TestDeleteAndRenameWatchlist(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	ctx := context.Background()

	first, err := app.CreateWatchlist(ctx, "One")
	if err != nil {
		t.Fatal(err)
	}
	second, err := app.CreateWatchlist(ctx, "Two")
	if err != nil {
		t.Fatal(err)
	}
	if err := app.RenameWatchlist(ctx, "Second"); err != nil {
		t.Fatal(err)
	}
	if got := app.View().Watchlists.Items[1].Name; got != "Second" {
		t.Fatalf("renamed = %q", got)
	}

	if err := app.DeleteWatchlist(ctx); err != nil {
		t.Fatal(err)
	}
	st := app.View()
	if len(st.Watchlists.Items) != 1 || st.Watchlists.SelectedID != first.ID {
		t.Fatalf("after delete of %s: %+v", second.ID, st.Watchlists)
	}
	if fb.seen("DELETE /api/v1/watchlists/"+second.ID) != 1 {
		t.Fatal("delete request not sent for the selected watchlist")
	}
}

// seedTwoWatchlists lists wl_a (one item) and wl_b (one item) and loads the
// collection so wl_a is selected with its row shown.
func seedTwoWatchlists(t *testing.T, app *App, fb *fakeBackend) {
	t.Helper()
	fb.mu.Lock()
	fb.watchlists = []backend.Watchlist{{ID: "wl_a", Name: "A"}, {ID: "wl_b", Name: "B"}}
	fb.items["wl_a"] = []fakeItem{{ID: "item_a1", InstrumentID: "42"}}
	fb.items["wl_b"] = []fakeItem{{ID: "item_b1", InstrumentID: "43"}}
	fb.mu.Unlock()
	if err := app.RefreshWatchlists(context.Background()); err != nil {
		t.Fatal(err)
	}
	st := app.View()
	if st.Watchlists.SelectedID != "wl_a" || len(st.Items.Items) != 1 {
		t.Fatalf("seed state = %+v / %+v", st.Watchlists, st.Items)
	}
	fb.reset()
}

func assertSelectionMatchesItems(t *testing.T, st State) {
	t.Helper()
	sel := st.Watchlists.SelectedID
	if sel != "" && !st.Watchlists.contains(sel) {
		t.Fatalf("selected %q is not in the collection %+v", sel, st.Watchlists.Items)
	}
	if st.Items.WatchlistID != sel {
		t.Fatalf("items belong to %q; selection is %q", st.Items.WatchlistID, sel)
	}
}

func TestSelectWithFailedItemsFetchDropsPreviousRows(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	seedTwoWatchlists(t, app, fb)
	fb.fail("GET /api/v1/watchlists/wl_b/items", http.StatusInternalServerError)

	if err := app.SelectWatchlist(context.Background(), "wl_b"); err == nil {
		t.Fatal("Select() error = nil; want request failure")
	}
	st := app.View()
	assertSelectionMatchesItems(t, st)
	if st.Watchlists.SelectedID != "wl_b" || len(st.Items.Items) != 0 {
		t.Fatalf("after failed select: %+v / %+v", st.Watchlists, st.Items)
	}
	if got := app.Surfaces().Label(LabelWatchlistMeta); got != "" {
		t.Fatalf("meta label = %q; want cleared", got)
	}
	status, _ := app.Surfaces().Status(SurfaceWatchlists)
	if status.Tone != ToneError {
		t.Fatalf("status = %+v; want error", status)
	}

	// A remove now targets wl_b and never one of wl_a's items.
	fb.heal("GET /api/v1/watchlists/wl_b/items")
	if err := app.RemoveWatchlistItem(context.Background(), "item_b1"); err != nil {
		t.Fatal(err)
	}
	if fb.seen("DELETE /api/v1/watchlists/wl_b/items/item_b1") != 1 {
		t.Fatal("remove not sent to the selected watchlist")
	}
}

func TestCreateWithFailedListRefreshKeepsValidSelection(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	seedTwoWatchlists(t, app, fb)
	ctx := context.Background()
	fb.fail("GET /api/v1/watchlists", http.StatusServiceUnavailable)

	created, err := app.CreateWatchlist(ctx, "New")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	st := app.View()
	assertSelectionMatchesItems(t, st)
	if st.Watchlists.SelectedID != "wl_a" {
		t.Fatalf("selected = %q; want wl_a until a refresh lists %s", st.Watchlists.SelectedID, created.ID)
	}

	fb.heal("GET /api/v1/watchlists")
	if err := app.RefreshWatchlists(ctx); err != nil {
		t.Fatal(err)
	}
	st = app.View()
	assertSelectionMatchesItems(t, st)
	if st.Watchlists.SelectedID != created.ID {
		t.Fatalf("selected = %q; want %s once listed", st.Watchlists.SelectedID, created.ID)
	}
}

func TestFailedListRefreshLeavesStateUntouched(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	seedTwoWatchlists(t, app, fb)
	fb.fail("GET /api/v1/watchlists", http.StatusServiceUnavailable)

	if err := app.RefreshWatchlists(context.Background()); err == nil {
		t.Fatal("Refresh() error = nil; want failure")
	}
	st := app.View()
	assertSelectionMatchesItems(t, st)
	if st.Watchlists.SelectedID != "wl_a" || len(st.Items.Items) != 1 {
		t.Fatalf("state changed on failed refresh: %+v / %+v", st.Watchlists, st.Items)
	}
	if fb.seen("GET /api/v1/watchlists/wl_a/items") != 0 {
		t.Fatal("items fetched after a failed list refresh")
	}
}

func TestDeleteClearsItemsWhenRefreshFails(t *testing.T) {
	app, fb := newLoggedInApp(t, Options{})
	seedTwoWatchlists(t, app, fb)
	ctx := context.Background()
	fb.fail("GET /api/v1/watchlists", http.StatusServiceUnavailable)

	if err := app.DeleteWatchlist(ctx); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	st := app.View()
	assertSelectionMatchesItems(t, st)
	if st.Watchlists.SelectedID != "" || len(st.Items.Items) != 0 {
		t.Fatalf("after delete: %+v / %+v", st.Watchlists, st.Items)
	}
	if st.Watchlists.contains("wl_a") {
		t.Fatal("deleted watchlist still listed")
	}
	if err := app.RemoveWatchlistItem(ctx, "item_a1"); !errors.Is(err, ErrNoWatchlistSelected) {
		t.Fatalf("RemoveItem() error = %v; want ErrNoWatchlistSelected", err)
	}
}

func TestStaleItemsResponseIsDiscarded(t *testing.T) {
	for _, tc := range []struct {
		name   string
		status int
		body   string
	}{
		{"success", http.StatusOK, `{"items":[{"item_id":"item_a1","instrument_id":"42"}]}`},
		{"failure", http.StatusInternalServerError, `{"detail":"boom"}`},
	} {
		t.Run(tc.name, func(t *testing.T) {
			hold := make(chan struct{})
			release := make(chan struct{})
			var holding bool
			httpClient := &http.Client{Transport: roundTripFunc(func(r *http.Request) (*http.Response, error) {
				switch r.URL.Path {
				case "/api/v1/watchlists":
					return jsonResponse(`[{"id":"wl_a","name":"A"},{"id":"wl_b","name":"B"}]`), nil
				case "/api/v1/watchlists/wl_b/items":
					return jsonResponse(`{"items":[{"item_id":"item_b1","instrument_id":"43"}]}`), nil
				case "/api/v1/watchlists/wl_a/items":
					if holding {
						close(hold)
						<-release
						return statusResponse(tc.status, tc.body), nil
					}
					return jsonResponse(`{"items":[]}`), nil
				}
				return statusResponse(http.StatusNotFound, `{"detail":"Not found"}`), nil
			})}
			client := backend.NewClient("http://backend.test", httpClient)
			client.Session().Set("opaque-token")
			app := New(client, NewSurfaces(), Options{})
			ctx := context.Background()

			if err := app.RefreshWatchlists(ctx); err != nil {
				t.Fatal(err)
			}
			holding = true

			done := make(chan error, 1)
			go func() { done <- app.SelectWatchlist(ctx, "wl_a") }()
			<-hold
			if err := app.SelectWatchlist(ctx, "wl_b"); err != nil {
				t.Fatalf("Select(wl_b) error = %v", err)
			}
			close(release)
			if err := <-done; err != nil {
				t.Fatalf("superseded Select(wl_a) error = %v; want nil", err)
			}

			st := app.View()
			assertSelectionMatchesItems(t, st)
			if len(st.Items.Items) != 1 || st.Items.Items[0].ItemID != "item_b1" {
				t.Fatalf("items = %+v; want wl_b's row", st.Items.Items)
			}
			status, _ := app.Surfaces().Status(SurfaceWatchlists)
			if status.Tone != ToneSuccess {
				t.Fatalf("status = %+v; stale response must not overwrite it", status)
			}
		})
	}
}
