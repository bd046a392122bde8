package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
)

func (h *handlers) today(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	view, err := h.ds.Today(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := h.ds.Stats(ctx)
	if err != nil {
		h.log.Warn("today resource: stats failed", "error", err)
	}

	data, err := json.Marshal(map[string]any{
		"today": view,
		"stats": stats,
	})
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
