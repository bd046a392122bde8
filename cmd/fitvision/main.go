package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	mcpserver "github.com/mark3labs/mcp-go/server"
	"tailscale.com/tsnet"

	"github.com/meltforce/fitvision/internal/analyzer"
	"github.com/meltforce/fitvision/internal/app"
	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/config"
	"github.com/meltforce/fitvision/internal/mcp"
	"github.com/meltforce/fitvision/internal/metrics"
	"github.com/meltforce/fitvision/internal/server"
	"github.com/meltforce/fitvision/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file (empty for defaults)")
	migrateOnly := flag.Bool("migrate-only", false, "run postgres migrations and exit")
	ephemeral := flag.Bool("ephemeral", false, "keep state in memory only")
	flag.Parse()

	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	log.Info("FitVision starting", "version", Version)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if *ephemeral {
		cfg.Storage.Driver = config.DriverMemory
	}

	ctx := context.Background()

	gateway, closeGateway, err := openGateway(ctx, cfg, *migrateOnly, log)
	if err != nil {
		log.Error("storage setup failed", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}
	defer closeGateway()
	if *migrateOnly {
		log.Info("migrate-only: exiting")
		return
	}

	cat := catalog.Default()
	if cfg.Schedule.CatalogFile != "" {
		cat, err = catalog.LoadFile(cfg.Schedule.CatalogFile)
		if err != nil {
			log.Error("failed to load catalog", "path", cfg.Schedule.CatalogFile, "error", err)
			os.Exit(1)
		}
		log.Info("catalog loaded", "path", cfg.Schedule.CatalogFile, "programs", len(cat.Programs()))
	}

	loc, err := cfg.Schedule.Location()
	if err != nil {
		log.Error("invalid timezone", "timezone", cfg.Schedule.Timezone, "error", err)
		os.Exit(1)
	}

	reg := metrics.NewRegistry()
	m := metrics.NewManager("fitvision", reg)

	svc := app.New(ctx, app.Options{
		Catalog:  cat,
		Gateway:  gateway,
		Key:      cfg.Storage.Key,
		Analyzer: newAnalyzer(cfg.Analyzer, log),
		Metrics:  m,
		Location: loc,
		Rest:     cfg.Schedule.Rest(),
	}, log)
	defer svc.Close()
	svc.Activate(ctx)

	srv := server.New(svc, m, reg, log)
	srv.Mount("/mcp", mcpserver.NewStreamableHTTPServer(mcp.New(svc, Version, log)))

	// Start server: tsnet or plain HTTP
	var listener net.Listener
	if cfg.Tailscale.Enabled {
		tsServer := &tsnet.Server{
			Hostname: cfg.Tailscale.Hostname,
			Dir:      cfg.Tailscale.StateDir,
		}
		if err := tsServer.Start(); err != nil {
			log.Error("tsnet start failed", "error", err)
			os.Exit(1)
		}
		defer tsServer.Close()

		lc, err := tsServer.LocalClient()
		if err != nil {
			log.Error("tsnet local client failed", "error", err)
			os.Exit(1)
		}
		srv.SetTailscale(lc)

		listener, err = tsServer.Listen("tcp", ":80")
		if err != nil {
			log.Error("tsnet listen failed", "error", err)
			os.Exit(1)
		}
		log.Info("tsnet server starting", "hostname", cfg.Tailscale.Hostname)
	} else {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		listener, err = net.Listen("tcp", addr)
		if err != nil {
			log.Error("listen failed", "addr", addr, "error", err)
			os.Exit(1)
		}
		log.Info("server starting", "addr", addr, "storage", cfg.Storage.Driver)
	}

	httpSrv := &http.Server{Handler: srv, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		if err := httpSrv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	log.Info("shutting down", "signal", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", "error", err)
	}
	log.Info("server stopped")
}

// openGateway connects the configured snapshot store. For postgres it
// applies migrations first.
func openGateway(ctx context.Context, cfg *config.Config, migrateOnly bool, log *slog.Logger) (storage.Gateway, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		dsn := cfg.Database.DSN()
		if err := storage.RunMigrations(dsn, "migrations"); err != nil {
			return nil, nil, fmt.Errorf("migrations: %w", err)
		}
		log.Info("migrations applied")
		if migrateOnly {
			return nil, func() {}, nil
		}
		db, err := storage.New(ctx, dsn)
		if err != nil {
			return nil, nil, err
		}
		log.Info("database connected", "host", cfg.Database.Host)
		return db, db.Close, nil
	case config.DriverMemory:
		log.Warn("state is kept in memory and lost on exit")
		return storage.NewMemory(), func() {}, nil
	default:
		if migrateOnly {
			return nil, func() {}, nil
		}
		db, err := storage.OpenSQLite(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		log.Info("sqlite opened", "dir", cfg.Storage.Dir)
		return db, func() {
			if err := db.Close(); err != nil {
				log.Warn("closing sqlite", "error", err)
			}
		}, nil
	}
}

// newAnalyzer builds the meal photo analyzer, rate limited when enabled.
func newAnalyzer(cfg config.AnalyzerConfig, log *slog.Logger) analyzer.Analyzer {
	var a analyzer.Analyzer
	switch cfg.Provider {
	case config.ProviderOpenAI:
		a = analyzer.NewOpenAI(cfg.APIKey, cfg.Model, cfg.BaseURL, log)
	case config.ProviderHTTP:
		a = analyzer.NewHTTPClient(cfg.URL)
	default:
		log.Info("meal analyzer disabled")
		return analyzer.Unavailable{}
	}
	log.Info("meal analyzer enabled", "provider", cfg.Provider, "rate_per_minute", cfg.RatePerMinute)
	return analyzer.NewLimited(a, cfg.RatePerMinute)
}
