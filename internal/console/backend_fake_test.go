package console

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

type fakeItem struct {
	ID           string
	InstrumentID string
}

// fakeBackend is an in-memory stand-in for the trading backend. It counts
// every request it receives.
type fakeBackend struct {
	mu sync.Mutex

	requests []string

	instruments []backend.Instrument
	pages       map[string]backend.SearchPage
	watchlists  []backend.Watchlist
	items       map[string][]fakeItem
	credential  backend.CredentialStatus
	testFails   bool
	users       []backend.User
	imports     []backend.ImportRecord
	nextID      int

	// meRoles are the roles /auth/me reports for the logged in admin.
	meRoles []string

	// failures maps "METHOD /path" to a status returned instead of the route.
	failures map[string]int
}

func newFakeBackend(t *testing.T) (*fakeBackend, *httptest.Server) {
	t.Helper()
	fb := &fakeBackend{
		pages:    make(map[string]backend.SearchPage),
		items:    make(map[string][]fakeItem),
		failures: make(map[string]int),
		meRoles:  []string{"admin"},
	}
	srv := httptest.NewServer(fb.routes())
	t.Cleanup(srv.Close)
	return fb, srv
}

func (fb *fakeBackend) count() int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	return len(fb.requests)
}

func (fb *fakeBackend) seen(prefix string) int {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	n := 0
	for _, r := range fb.requests {
		if strings.HasPrefix(r, prefix) {
			n++
		}
	}
	return n
}

func (fb *fakeBackend) id(prefix string) string {
	fb.nextID++
	return fmt.Sprintf("%s_%d", prefix, fb.nextID)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func detail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"detail": msg})
}

func (fb *fakeBackend) routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/login", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("email") != "admin@example.com" || q.Get("password") != "admin123" {
			detail(w, http.StatusUnauthorized, "Invalid credentials")
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"access_token": "opaque-token", "token_type": "bearer"})
	})

	mux.HandleFunc("GET /api/v1/auth/me", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer opaque-token" {
			detail(w, http.StatusUnauthorized, "Not authenticated")
			return
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		writeJSON(w, http.StatusOK, backend.User{
			ID: "usr_admin", Name: "Admin", Email: "admin@example.com", Roles: fb.meRoles, Approved: true,
		})
	})

	mux.HandleFunc("GET /api/v1/instruments", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		page, ok := fb.pages[r.URL.Query().Get("cursor")]
		if !ok {
			page = backend.SearchPage{Items: fb.instruments}
		}
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, page)
	})

	mux.HandleFunc("DELETE /api/v1/instruments", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		n := len(fb.instruments)
		fb.instruments = nil
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]any{"detail": "Instruments deleted", "deleted": n})
	})

	mux.HandleFunc("GET /api/v1/instruments/imports", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		writeJSON(w, http.StatusOK, append([]backend.ImportRecord{}, fb.imports...))
	})

	mux.HandleFunc("POST /api/v1/instruments/import", func(w http.ResponseWriter, r *http.Request) {
		file, _, err := r.FormFile("file")
		if err != nil {
			detail(w, http.StatusBadRequest, "file is required")
			return
		}
		data, _ := io.ReadAll(file)
		rows := 0
		sc := bufio.NewScanner(bytes.NewReader(data))
		for first := true; sc.Scan(); first = false {
			if first || strings.TrimSpace(sc.Text()) == "" {
				continue
			}
			rows++
		}

		fb.mu.Lock()
		if r.URL.Query().Get("replace_existing") == "true" {
			fb.instruments = nil
		}
		for i := 0; i < rows; i++ {
			fb.instruments = append(fb.instruments, backend.Instrument{ID: fb.id("ins")})
		}
		rec := backend.ImportRecord{ImportSummary: backend.ImportSummary{
			ID: fb.id("imp"), Source: r.URL.Query().Get("source"), Status: "success",
			RowsIn: rows, RowsOK: rows,
		}}
		fb.imports = append([]backend.ImportRecord{rec}, fb.imports...)
		fb.mu.Unlock()

		writeJSON(w, http.StatusOK, backend.ImportResult{
			ImportID: rec.ID, Status: "success", RowsIn: rows, RowsOK: rows,
		})
	})

	mux.HandleFunc("GET /api/v1/admin/dashboard", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		out := backend.DashboardSummary{
			Totals: backend.Totals{
				Users:       len(fb.users),
				Instruments: len(fb.instruments),
				Watchlists:  len(fb.watchlists),
			},
			KiteStatus: fb.credential,
		}
		for _, items := range fb.items {
			out.Totals.WatchlistItems += len(items)
		}
		if len(fb.imports) > 0 {
			latest := fb.imports[0].ImportSummary
			out.LatestImport = &latest
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("GET /api/v1/watchlists", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		writeJSON(w, http.StatusOK, append([]backend.Watchlist{}, fb.watchlists...))
	})

	mux.HandleFunc("POST /api/v1/watchlists", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		fb.mu.Lock()
		wl := backend.Watchlist{ID: fb.id("wl"), Name: in.Name}
		fb.watchlists = append(fb.watchlists, wl)
		fb.mu.Unlock()
		writeJSON(w, http.StatusCreated, wl)
	})

	mux.HandleFunc("PUT /api/v1/watchlists/{id}", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			Name string `json:"name"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		fb.mu.Lock()
		defer fb.mu.Unlock()
		for i, wl := range fb.watchlists {
			if wl.ID == r.PathValue("id") {
				fb.watchlists[i].Name = in.Name
				writeJSON(w, http.StatusOK, fb.watchlists[i])
				return
			}
		}
		detail(w, http.StatusNotFound, "Watchlist not found")
	})

	mux.HandleFunc("DELETE /api/v1/watchlists/{id}", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		for i, wl := range fb.watchlists {
			if wl.ID == r.PathValue("id") {
				fb.watchlists = append(fb.watchlists[:i:i], fb.watchlists[i+1:]...)
				delete(fb.items, wl.ID)
				detail(w, http.StatusOK, "Watchlist deleted")
				return
			}
		}
		detail(w, http.StatusNotFound, "Watchlist not found")
	})

	mux.HandleFunc("GET /api/v1/watchlists/{id}/items", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		out := backend.WatchlistItems{Items: []backend.WatchlistItem{}, QuotesRefreshedAt: "2026-10-15T09:15:00"}
		for _, it := range fb.items[r.PathValue("id")] {
			item := backend.WatchlistItem{ItemID: it.ID, InstrumentID: it.InstrumentID, Missing: true}
			for _, ins := range fb.instruments {
				if ins.ID == it.InstrumentID {
					item.Missing = false
					item.TradingSymbol = ins.TradingSymbol
				}
			}
			out.Items = append(out.Items, item)
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("POST /api/v1/watchlists/{id}/items", func(w http.ResponseWriter, r *http.Request) {
		var in struct {
			InstrumentID string `json:"instrument_id"`
		}
		_ = json.NewDecoder(r.Body).Decode(&in)
		fb.mu.Lock()
		defer fb.mu.Unlock()
		id := r.PathValue("id")
		for _, it := range fb.items[id] {
			if it.InstrumentID == in.InstrumentID {
				detail(w, http.StatusConflict, "Instrument already in watchlist")
				return
			}
		}
		it := fakeItem{ID: fb.id("item"), InstrumentID: in.InstrumentID}
		fb.items[id] = append(fb.items[id], it)
		writeJSON(w, http.StatusCreated, map[string]string{"id": it.ID, "instrument_id": it.InstrumentID})
	})

	mux.HandleFunc("DELETE /api/v1/watchlists/{id}/items/{item}", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		id := r.PathValue("id")
		for i, it := range fb.items[id] {
			if it.ID == r.PathValue("item") {
				fb.items[id] = append(fb.items[id][:i:i], fb.items[id][i+1:]...)
				detail(w, http.StatusOK, "Item removed")
				return
			}
		}
		detail(w, http.StatusNotFound, "Item not found")
	})

	mux.HandleFunc("GET /api/v1/admin/brokers/zerodha/token", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		defer fb.mu.Unlock()
		writeJSON(w, http.StatusOK, fb.credential)
	})

	mux.HandleFunc("POST /api/v1/admin/brokers/zerodha/token", func(w http.ResponseWriter, r *http.Request) {
		var in backend.CredentialInput
		_ = json.NewDecoder(r.Body).Decode(&in)
		fb.mu.Lock()
		fb.credential = backend.CredentialStatus{Configured: true, APIKeyLast4: last4(in.APIKey)}
		fb.mu.Unlock()
		detail(w, http.StatusOK, "Credentials stored")
	})

	mux.HandleFunc("DELETE /api/v1/admin/brokers/zerodha/token", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fb.credential = backend.CredentialStatus{}
		fb.mu.Unlock()
		detail(w, http.StatusOK, "Credentials cleared")
	})

	mux.HandleFunc("POST /api/v1/admin/brokers/zerodha/test", func(w http.ResponseWriter, r *http.Request) {
		fb.mu.Lock()
		fails := fb.testFails
		fb.mu.Unlock()
		if fails {
			detail(w, http.StatusBadGateway, "Kite rejected the access token")
			return
		}
		detail(w, http.StatusOK, "Kite connection OK")
	})

	mux.HandleFunc("GET /api/v1/admin/users", func(w http.ResponseWriter, r *http.Request) {
		term := strings.ToLower(r.URL.Query().Get("search"))
		fb.mu.Lock()
		defer fb.mu.Unlock()
		out := []backend.User{}
		for _, u := range fb.users {
			if term == "" || strings.Contains(strings.ToLower(u.Email), term) || strings.Contains(strings.ToLower(u.Name), term) {
				out = append(out, u)
			}
		}
		writeJSON(w, http.StatusOK, out)
	})

	mux.HandleFunc("PUT /api/v1/admin/users/{id}/roles", func(w http.ResponseWriter, r *http.Request) {
		var roles []string
		if err := json.NewDecoder(r.Body).Decode(&roles); err != nil {
			detail(w, http.StatusUnprocessableEntity, "roles must be a list")
			return
		}
		fb.mu.Lock()
		defer fb.mu.Unlock()
		for i, u := range fb.users {
			if u.ID == r.PathValue("id") {
				fb.users[i].Roles = roles
				writeJSON(w, http.StatusOK, map[string]any{"id": u.ID, "roles": roles})
				return
			}
		}
		detail(w, http.StatusNotFound, "User not found")
	})

	mux.HandleFunc("PUT /api/v1/admin/users/{id}/approve", func(w http.ResponseWriter, r *http.Request) {
		approved := r.URL.Query().Get("approved") == "true"
		fb.mu.Lock()
		defer fb.mu.Unlock()
		for i, u := range fb.users {
			if u.ID == r.PathValue("id") {
				fb.users[i].Approved = approved
				detail(w, http.StatusOK, "Approval updated")
				return
			}
		}
		detail(w, http.StatusNotFound, "User not found")
	})

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := r.Method + " " + r.URL.Path
		fb.mu.Lock()
		fb.requests = append(fb.requests, key)
		status, failing := fb.failures[key]
		fb.mu.Unlock()
		if failing {
			detail(w, status, "Injected failure")
			return
		}
		mux.ServeHTTP(w, r)
	})
}

func last4(s string) string {
	if len(s) <= 4 {
		return s
	}
	return s[len(s)-4:]
}

// newTestApp returns an App wired to a fresh fake backend.
func newTestApp(t *testing.T, opts Options) (*App, *fakeBackend) {
	t.Helper()
	fb, srv := newFakeBackend(t)
	client := backend.NewClient(srv.URL, srv.Client())
	return New(client, NewSurfaces(), opts), fb
}

// newLoggedInApp logs in against the fake backend and resets the request log.
func newLoggedInApp(t *testing.T, opts Options) (*App, *fakeBackend) {
	t.Helper()
	app, fb := newTestApp(t, opts)
	app.client.Session().Set("opaque-token")
	return app, fb
}

func (fb *fakeBackend) fail(key string, status int) {
	fb.mu.Lock()
	fb.failures[key] = status
	fb.mu.Unlock()
}

func (fb *fakeBackend) heal(key string) {
	fb.mu.Lock()
	delete(fb.failures, key)
	fb.mu.Unlock()
}

func (fb *fakeBackend) reset() {
	fb.mu.Lock()
	fb.requests = nil
	fb.mu.Unlock()
}
