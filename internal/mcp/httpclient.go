package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/meltforce/fitvision/internal/app"
	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/history"
	"github.com/meltforce/fitvision/internal/models"
)

// HTTPClient implements DataSource by calling the FitVision REST API.
// Used for remote MCP mode where the binary runs locally (stdio) but
// the state lives on the server (usually reached over Tailscale).
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

// Compile-time check: HTTPClient satisfies DataSource.
var _ DataSource = (*HTTPClient)(nil)

// NewHTTPClient creates an HTTPClient targeting the given base URL.
func NewHTTPClient(baseURL string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// get fetches path and decodes the JSON response into v.
func (c *HTTPClient) get(ctx context.Context, path string, params url.Values, v any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("httpclient: create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("httpclient: %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("httpclient: read body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, apiErr.Error)
		}
		return fmt.Errorf("httpclient: %s returned %d: %s", path, resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, v); err != nil {
		return fmt.Errorf("httpclient: decode %s: %w", path, err)
	}
	return nil
}

func dateParams(from, to models.Date) url.Values {
	v := url.Values{}
	v.Set("start", from.String())
	v.Set("end", to.String())
	return v
}

func (c *HTTPClient) Today(ctx context.Context) (*app.TodayView, error) {
	var view app.TodayView
	if err := c.get(ctx, "/api/v1/today", nil, &view); err != nil {
		return nil, err
	}
	return &view, nil
}

func (c *HTTPClient) Schedule(ctx context.Context, from, to models.Date) ([]app.CalendarDay, error) {
	var days []app.CalendarDay
	if err := c.get(ctx, "/api/v1/schedule", dateParams(from, to), &days); err != nil {
		return nil, err
	}
	return days, nil
}

func (c *HTTPClient) History(ctx context.Context, from, to models.Date) ([]history.Record, error) {
	var records []history.Record
	if err := c.get(ctx, "/api/v1/history", dateParams(from, to), &records); err != nil {
		return nil, err
	}
	return records, nil
}

func (c *HTTPClient) Stats(ctx context.Context) (*app.Stats, error) {
	var stats app.Stats
	if err := c.get(ctx, "/api/v1/stats", nil, &stats); err != nil {
		return nil, err
	}
	return &stats, nil
}

func (c *HTTPClient) Programs(ctx context.Context) ([]catalog.Program, error) {
	var programs []catalog.Program
	if err := c.get(ctx, "/api/v1/catalog/programs", nil, &programs); err != nil {
		return nil, err
	}
	return programs, nil
}
