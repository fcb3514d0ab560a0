package console

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/dgnsrekt/kite_console/internal/backend"
)

// Options tunes an App. Zero values pick defaults.
type Options struct {
	SearchLimit   int
	Notifier      Notifier
	ExpiryWarning time.Duration
	Invalidations Invalidations
	Now           func() time.Time
}

// App is the console state: the session plus one controller per panel.
// Controllers only reach each other through the invalidation table.
type App struct {
	client   *backend.Client
	surfaces *Surfaces
	table    Invalidations

	router     *Router
	search     *Search
	imports    *Imports
	watchlists *Watchlists
	mirror     *CredentialMirror
	dashboard  *Dashboard
	users      *Users
}

func New(client *backend.Client, surfaces *Surfaces, opts Options) *App {
	if surfaces == nil {
		surfaces = NewSurfaces()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Invalidations == nil {
		opts.Invalidations = DefaultInvalidations
	}
	a := &App{client: client, surfaces: surfaces, table: opts.Invalidations}

	a.search = newSearch(client, surfaces, a.Invalidate, opts.SearchLimit)
	a.imports = newImports(client, surfaces, a.Invalidate)
	a.watchlists = newWatchlists(client, surfaces, a.Invalidate)
	a.mirror = newCredentialMirror(client, surfaces, a.Invalidate, opts)
	a.dashboard = newDashboard(client, surfaces, a.mirror)
	a.users = newUsers(client, surfaces, a.Invalidate)
	a.router = newRouter(a.panelAccess, surfaces, map[Panel]loadPolicy{
		PanelOverview: func(ctx context.Context) error {
			return a.dashboard.Refresh(ctx, true)
		},
		PanelCatalog: func(ctx context.Context) error {
			err := a.search.LoadIfEmpty(ctx)
			if ierr := a.imports.Refresh(ctx); err == nil {
				err = ierr
			}
			return err
		},
		PanelWatchlists: func(ctx context.Context) error {
			return a.watchlists.Refresh(ctx, true)
		},
		PanelCredentials: func(ctx context.Context) error {
			return a.mirror.Refresh(ctx, false)
		},
		PanelUsers: func(ctx context.Context) error {
			return a.users.Load(ctx, a.users.SearchTerm())
		},
	})
	return a
}

func (a *App) Surfaces() *Surfaces { return a.surfaces }

func (a *App) panelAccess(p Panel) string {
	sess := a.client.Session()
	if !sess.Authenticated() {
		return PlaceholderText
	}
	if adminPanels[p] && sess.Claims().RolesKnown && !sess.HasRole("admin") {
		return AdminOnlyText
	}
	return ""
}

// Invalidate reloads, silently and in table order, every entity made stale
// by action. Failures are logged and never reach a status line.
func (a *App) Invalidate(ctx context.Context, action Action) {
	if !a.client.Session().Authenticated() {
		return
	}
	for _, e := range a.table.Entities(action) {
		if err := a.refreshEntity(ctx, e); err != nil {
			slog.Warn("silent refresh failed", "action", action, "entity", e, "error", err)
		}
	}
}

func (a *App) refreshEntity(ctx context.Context, e Entity) error {
	switch e {
	case EntityDashboard:
		return a.dashboard.Refresh(ctx, false)
	case EntityWatchlists:
		return a.watchlists.refresh(ctx, true, silent)
	case EntityWatchlistItems:
		return a.watchlists.reloadItems(ctx)
	case EntityCredentialStatus:
		return a.mirror.Refresh(ctx, false)
	case EntityUserDirectory:
		return a.users.reload(ctx)
	case EntityCatalog:
		return a.search.rerun(ctx)
	case EntityImports:
		return a.imports.refresh(ctx, silent)
	}
	slog.Debug("no refresh for entity", "entity", e)
	return nil
}

// Login exchanges credentials for a session and loads the active panel.
func (a *App) Login(ctx context.Context, email, password string) error {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		err := validation("Email and password are required", nil)
		a.surfaces.ReportError(SurfaceLogin, err)
		return err
	}
	a.surfaces.Report(SurfaceLogin, "Signing in…", ToneInfo)
	if err := a.client.Login(ctx, email, password); err != nil {
		a.surfaces.ReportError(SurfaceLogin, err)
		return err
	}
	if me, err := a.client.Me(ctx); err != nil {
		slog.Warn("profile lookup after login failed", "error", err)
	} else {
		a.client.Session().Identify(me.Email, me.Roles)
	}
	who := a.client.Session().Claims().Subject
	if who == "" {
		who = email
	}
	a.surfaces.Report(SurfaceLogin, "Logged in as "+who, ToneSuccess)
	slog.Info("console session started", "user", who)

	if err := a.router.Activate(ctx, string(a.router.Active())); err != nil {
		slog.Warn("panel load after login failed", "panel", a.router.Active(), "error", err)
	}
	return nil
}

func (a *App) ActivatePanel(ctx context.Context, id string) error {
	return a.router.Activate(ctx, id)
}

func (a *App) SearchCatalog(ctx context.Context, params SearchParams) error {
	return a.search.Search(ctx, params)
}

func (a *App) LoadMoreCatalog(ctx context.Context) error { return a.search.LoadMore(ctx) }

func (a *App) ClearCatalog(ctx context.Context) error { return a.search.ClearAll(ctx) }

func (a *App) RefreshImports(ctx context.Context) error { return a.imports.Refresh(ctx) }

func (a *App) UploadImport(ctx context.Context, up backend.ImportUpload) (backend.ImportResult, error) {
	return a.imports.Upload(ctx, up)
}

func (a *App) RefreshWatchlists(ctx context.Context) error { return a.watchlists.Refresh(ctx, true) }

func (a *App) SelectWatchlist(ctx context.Context, id string) error {
	return a.watchlists.Select(ctx, id)
}

func (a *App) CreateWatchlist(ctx context.Context, name string) (backend.Watchlist, error) {
	return a.watchlists.Create(ctx, name)
}

func (a *App) RenameWatchlist(ctx context.Context, name string) error {
	return a.watchlists.Rename(ctx, name)
}

func (a *App) DeleteWatchlist(ctx context.Context) error { return a.watchlists.Delete(ctx) }

func (a *App) AddWatchlistItem(ctx context.Context, instrumentID string) error {
	return a.watchlists.AddItem(ctx, instrumentID)
}

func (a *App) RemoveWatchlistItem(ctx context.Context, itemID string) error {
	return a.watchlists.RemoveItem(ctx, itemID)
}

func (a *App) RefreshCredential(ctx context.Context) error { return a.mirror.Refresh(ctx, true) }

func (a *App) SaveCredential(ctx context.Context, in backend.CredentialInput) error {
	return a.mirror.Save(ctx, in)
}

func (a *App) TestCredential(ctx context.Context) error { return a.mirror.Test(ctx) }

func (a *App) ClearCredential(ctx context.Context) error { return a.mirror.Clear(ctx) }

func (a *App) CompleteKiteSession(ctx context.Context, requestToken string) error {
	return a.mirror.CompleteSession(ctx, requestToken)
}

func (a *App) RefreshDashboard(ctx context.Context) error { return a.dashboard.Refresh(ctx, true) }

func (a *App) LoadUsers(ctx context.Context, search string) error { return a.users.Load(ctx, search) }

func (a *App) SaveUserRoles(ctx context.Context, userID string, roles []string) error {
	return a.users.SaveRoles(ctx, userID, roles)
}

func (a *App) SetUserApproval(ctx context.Context, userID string, approved bool) error {
	return a.users.SetApproval(ctx, userID, approved)
}

// SessionView describes the login state.
type SessionView struct {
	Authenticated bool       `json:"authenticated"`
	Subject       string     `json:"subject,omitempty"`
	Roles         []string   `json:"roles,omitempty"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
	Expired       bool       `json:"expired"`
}

// CredentialView is the mirrored credential status and its description.
type CredentialView struct {
	Loaded      bool                     `json:"loaded"`
	Status      backend.CredentialStatus `json:"status"`
	Description string                   `json:"description,omitempty"`
}

// State is a consistent-enough copy of everything the console shows. Each
// part is copied under its owner's lock.
type State struct {
	Session     SessionView               `json:"session"`
	Router      RouterView                `json:"router"`
	Search      SearchState               `json:"search"`
	Imports     []backend.ImportRecord    `json:"imports"`
	LastImport  *backend.ImportResult     `json:"last_import,omitempty"`
	Watchlists  WatchlistCollection       `json:"watchlists"`
	Items       ItemsView                 `json:"items"`
	Credential  CredentialView            `json:"credential"`
	Dashboard   *backend.DashboardSummary `json:"dashboard,omitempty"`
	Users       DirectoryView             `json:"users"`
	Surfaces    SurfacesView              `json:"surfaces"`
	GeneratedAt time.Time                 `json:"generated_at"`
}

func (a *App) View() State {
	sess := a.client.Session()
	claims := sess.Claims()
	now := time.Now()
	st := State{
		Session: SessionView{
			Authenticated: sess.Authenticated(),
			Subject:       claims.Subject,
			Roles:         claims.Roles,
			Expired:       sess.Expired(now),
		},
		Router:      a.router.View(),
		Search:      a.search.State(),
		Imports:     a.imports.Records(),
		LastImport:  a.imports.LastResult(),
		Watchlists:  a.watchlists.Collection(),
		Items:       a.watchlists.Items(),
		Users:       a.users.View(),
		Surfaces:    a.surfaces.View(),
		GeneratedAt: now,
	}
	if !claims.ExpiresAt.IsZero() {
		exp := claims.ExpiresAt
		st.Session.ExpiresAt = &exp
	}
	if status, ok := a.mirror.Status(); ok {
		st.Credential = CredentialView{Loaded: true, Status: status, Description: Describe(status)}
	}
	if summary, ok := a.dashboard.Summary(); ok {
		st.Dashboard = &summary
	}
	return st
}
