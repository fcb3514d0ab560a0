package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dgnsrekt/kite_console/internal/backend"
	"github.com/dgnsrekt/kite_console/internal/console"
	"github.com/dgnsrekt/kite_console/internal/relay"
	"github.com/dgnsrekt/kite_console/internal/render"
)

// Service is the console surface the control API drives. *console.App
// implements it.
type Service interface {
	View() console.State
	Login(ctx context.Context, email, password string) error
	ActivatePanel(ctx context.Context, id string) error

	SearchCatalog(ctx context.Context, params console.SearchParams) error
	LoadMoreCatalog(ctx context.Context) error
	ClearCatalog(ctx context.Context) error
	RefreshImports(ctx context.Context) error
	UploadImport(ctx context.Context, up backend.ImportUpload) (backend.ImportResult, error)

	RefreshWatchlists(ctx context.Context) error
	SelectWatchlist(ctx context.Context, id string) error
	CreateWatchlist(ctx context.Context, name string) (backend.Watchlist, error)
	RenameWatchlist(ctx context.Context, name string) error
	DeleteWatchlist(ctx context.Context) error
	AddWatchlistItem(ctx context.Context, instrumentID string) error
	RemoveWatchlistItem(ctx context.Context, itemID string) error

	RefreshCredential(ctx context.Context) error
	SaveCredential(ctx context.Context, in backend.CredentialInput) error
	TestCredential(ctx context.Context) error
	ClearCredential(ctx context.Context) error
	CompleteKiteSession(ctx context.Context, requestToken string) error

	RefreshDashboard(ctx context.Context) error
	LoadUsers(ctx context.Context, search string) error
	SaveUserRoles(ctx context.Context, userID string, roles []string) error
	SetUserApproval(ctx context.Context, userID string, approved bool) error
}

// LivePrices exposes the latest tick per configured feed.
type LivePrices interface {
	Last() map[string]relay.Tick
}

// Options carries the optional parts of the server.
type Options struct {
	Title  string
	Broker *relay.Broker
	Live   LivePrices
}

func NewServer(svc Service, opts Options) http.Handler {
	if opts.Title == "" {
		opts.Title = "Kite Admin Console"
	}

	router := chi.NewMux()
	router.Use(middleware.RequestID)
	router.Use(requestLogger)
	router.Use(requestMetrics)
	router.Use(middleware.Recoverer)

	cfg := huma.DefaultConfig(opts.Title+" API", "1.0.0")
	cfg.DocsPath = ""
	api := humachi.New(router, cfg)

	router.Get("/docs", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(docsHTML)); err != nil {
			slog.Debug("docs response write failed", "error", err)
		}
	})
	router.Get("/docs/events", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		if _, err := w.Write([]byte(eventsDocsHTML)); err != nil {
			slog.Debug("events docs response write failed", "error", err)
		}
	})
	router.Handle("/metrics", promhttp.Handler())
	if opts.Broker != nil {
		router.Get("/events", relay.SSEHandler(opts.Broker))
	}
	router.Get("/", pageHandler(svc, opts.Title))

	registerSessionHandlers(api, svc)
	registerCatalogHandlers(api, svc)
	registerWatchlistHandlers(api, svc)
	registerCredentialHandlers(api, svc)
	registerAdminHandlers(api, svc)
	registerLiveHandlers(api, opts.Live)

	return router
}

// pageHandler renders the console. ?panel= activates a panel first, like a
// click on the navigation.
func pageHandler(svc Service, title string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if panel := r.URL.Query().Get("panel"); panel != "" {
			if err := svc.ActivatePanel(r.Context(), panel); err != nil {
				slog.Debug("page panel activation failed", "panel", panel, "error", err)
			}
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := render.Page(w, title, svc.View()); err != nil {
			slog.Error("render console page", "error", err)
		}
	}
}

func mapErr(err error) error {
	if err == nil {
		return nil
	}
	var coded *backend.CodedError
	if errors.As(err, &coded) {
		switch coded.Code {
		case backend.CodeUnauthenticated:
			return huma.Error401Unauthorized(coded.Message)
		case backend.CodeValidation:
			return huma.Error400BadRequest(coded.Message)
		case backend.CodeRequestFailure:
			if coded.Status >= 400 && coded.Status < 500 {
				return huma.NewError(coded.Status, coded.Message)
			}
			return huma.Error502BadGateway(coded.Message)
		case backend.CodeTransportFailure:
			return huma.Error502BadGateway(coded.Message)
		default:
			return huma.Error500InternalServerError(fmt.Sprintf("%s: %s", coded.Code, coded.Message))
		}
	}
	return huma.Error500InternalServerError(err.Error())
}
