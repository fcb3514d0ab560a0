package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/dgnsrekt/kite_console/internal/api"
	"github.com/dgnsrekt/kite_console/internal/backend"
	"github.com/dgnsrekt/kite_console/internal/config"
	"github.com/dgnsrekt/kite_console/internal/console"
	"github.com/dgnsrekt/kite_console/internal/journal"
	"github.com/dgnsrekt/kite_console/internal/netutil"
	"github.com/dgnsrekt/kite_console/internal/notify"
	"github.com/dgnsrekt/kite_console/internal/relay"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load console config", "error", err)
		os.Exit(1)
	}

	if err := setupLogger(cfg.LogLevel, cfg.LogFile); err != nil {
		_, _ = io.WriteString(os.Stderr, "logger setup failed: "+err.Error()+"\n")
		os.Exit(1)
	}

	slog.Info("console config loaded",
		"backend_url", cfg.BackendURL,
		"bind_addr", cfg.BindAddr,
		"http_timeout_ms", cfg.HTTPTimeoutMS,
		"port_auto_fallback", cfg.PortAutoFallback,
		"port_candidates", cfg.PortCandidates,
		"default_panel", cfg.DefaultPanel,
		"feeds_config", cfg.FeedsConfigPath,
		"log_level", cfg.LogLevel,
		"log_file", cfg.LogFile,
		"journal_dir", cfg.JournalDir,
	)

	bindAddr, err := netutil.SelectBindAddr(cfg.BindAddr, cfg.PortCandidates, cfg.PortAutoFallback)
	if err != nil {
		slog.Error("failed to select bind address", "preferred", cfg.BindAddr, "error", err)
		os.Exit(1)
	}

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	client := backend.NewClient(cfg.BackendURL, &http.Client{Timeout: cfg.HTTPTimeout()})
	broker := relay.NewBroker()
	surfaces := console.NewSurfaces(relay.SurfaceSink(broker))
	if cfg.JournalDir != "" {
		j := journal.New(cfg.JournalDir)
		defer func() { _ = j.Close() }()
		surfaces.Attach(j)
	}

	opts := console.Options{
		SearchLimit:   cfg.SearchLimit,
		ExpiryWarning: cfg.ExpiryWarning(),
	}
	if cfg.NTFYEndpoint != "" {
		opts.Notifier = notify.New(cfg.NTFYEndpoint, &http.Client{Timeout: cfg.HTTPTimeout()})
	}
	app := console.New(client, surfaces, opts)

	if cfg.LoginEmail != "" {
		if err := app.Login(ctx, cfg.LoginEmail, cfg.LoginPassword); err != nil {
			slog.Warn("startup login failed", "email", cfg.LoginEmail, "error", err)
		}
	}
	if err := app.ActivatePanel(ctx, cfg.DefaultPanel); err != nil {
		slog.Warn("default panel activation failed", "panel", cfg.DefaultPanel, "error", err)
	}

	srvOpts := api.Options{Title: cfg.Title, Broker: broker}
	if cfg.FeedsConfigPath != "" {
		feeds, err := relay.LoadConfig(cfg.FeedsConfigPath)
		if err != nil {
			slog.Error("failed to load live feeds", "path", cfg.FeedsConfigPath, "error", err)
			os.Exit(1)
		}
		live := relay.NewLiveFeed(cfg.BackendURL, feeds.Feeds, broker, client.Session().Token)
		go live.Run(ctx)
		srvOpts.Live = live
		slog.Info("live feeds started", "count", len(feeds.Feeds))
	}

	srv := &http.Server{Addr: bindAddr, Handler: api.NewServer(app, srvOpts)}

	go func() {
		slog.Info("console listening", "addr", bindAddr, "docs", "http://"+bindAddr+"/docs")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("console server failed", "error", err)
			os.Exit(1)
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("console shutdown failed", "error", err)
	}
}

func setupLogger(level, filename string) error {
	if err := os.MkdirAll(filepath.Dir(filename), 0o755); err != nil {
		return err
	}

	logWriter := &lumberjack.Logger{
		Filename:   filename,
		MaxSize:    25,
		MaxBackups: 10,
		MaxAge:     14,
		Compress:   true,
	}

	var slogLevel slog.Level
	switch level {
	case "debug":
		slogLevel = slog.LevelDebug
	case "warn":
		slogLevel = slog.LevelWarn
	case "error":
		slogLevel = slog.LevelError
	default:
		slogLevel = slog.LevelInfo
	}

	h := slog.NewTextHandler(io.MultiWriter(os.Stdout, logWriter), &slog.HandlerOptions{Level: slogLevel})
	slog.SetDefault(slog.New(h))
	return nil
}
