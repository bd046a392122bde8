package mcp

import (
	"context"

	"github.com/meltforce/fitvision/internal/app"
	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/history"
	"github.com/meltforce/fitvision/internal/models"
)

// DataSource is the read-only view MCP tools query. Both *app.Service
// (local) and HTTPClient (remote via REST API) satisfy this interface.
type DataSource interface {
	Today(ctx context.Context) (*app.TodayView, error)
	Schedule(ctx context.Context, from, to models.Date) ([]app.CalendarDay, error)
	History(ctx context.Context, from, to models.Date) ([]history.Record, error)
	Stats(ctx context.Context) (*app.Stats, error)
	Programs(ctx context.Context) ([]catalog.Program, error)
}

// Compile-time check: *app.Service satisfies DataSource.
var _ DataSource = (*app.Service)(nil)
