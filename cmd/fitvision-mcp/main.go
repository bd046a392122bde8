package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/meltforce/fitvision/internal/app"
	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/config"
	"github.com/meltforce/fitvision/internal/mcp"
	"github.com/meltforce/fitvision/internal/storage"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	remote := flag.String("remote", "", "base URL of a running FitVision server (e.g. http://fitvision)")
	configPath := flag.String("config", "", "path to config file for local mode")
	flag.Parse()

	// stdout carries the MCP protocol; logs go to stderr.
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	var ds mcp.DataSource
	if *remote != "" {
		log.Info("remote mode", "url", *remote)
		ds = mcp.NewHTTPClient(*remote)
	} else {
		svc, closeFn, err := localService(*configPath, log)
		if err != nil {
			log.Error("local mode setup failed", "error", err)
			os.Exit(1)
		}
		defer closeFn()
		ds = svc
	}

	if err := mcpserver.ServeStdio(mcp.New(ds, Version, log)); err != nil {
		log.Error("mcp server error", "error", err)
		os.Exit(1)
	}
}

// localService opens the server's store read-only. Every tool call reloads
// the snapshot, so the running server stays the only writer.
func localService(configPath string, log *slog.Logger) (*app.Service, func(), error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	loc, err := cfg.Schedule.Location()
	if err != nil {
		return nil, nil, err
	}
	cat := catalog.Default()
	if cfg.Schedule.CatalogFile != "" {
		if cat, err = catalog.LoadFile(cfg.Schedule.CatalogFile); err != nil {
			return nil, nil, err
		}
	}
	ctx := context.Background()
	gw, closeGateway, err := openGateway(ctx, cfg, log)
	if err != nil {
		return nil, nil, err
	}
	svc := app.New(ctx, app.Options{
		Catalog:  cat,
		Gateway:  gw,
		Key:      cfg.Storage.Key,
		Location: loc,
		ReadOnly: true,
	}, log)
	return svc, func() {
		svc.Close()
		closeGateway()
	}, nil
}

// openGateway opens the store named by storage.driver without migrating it.
func openGateway(ctx context.Context, cfg *config.Config, log *slog.Logger) (storage.Gateway, func(), error) {
	switch cfg.Storage.Driver {
	case config.DriverPostgres:
		db, err := storage.New(ctx, cfg.Database.DSN())
		if err != nil {
			return nil, nil, err
		}
		log.Info("local mode", "driver", cfg.Storage.Driver, "host", cfg.Database.Host)
		return db, db.Close, nil
	case config.DriverMemory:
		return nil, nil, errors.New("storage driver memory keeps no state to read, use -remote")
	default:
		db, err := storage.OpenSQLite(cfg.Storage.Dir)
		if err != nil {
			return nil, nil, err
		}
		log.Info("local mode", "driver", "sqlite", "dir", cfg.Storage.Dir)
		return db, func() { _ = db.Close() }, nil
	}
}
