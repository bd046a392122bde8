package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/fitvision/internal/app"
	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/history"
	"github.com/meltforce/fitvision/internal/models"
)

// fakeSource records the ranges it was asked for. Its today defaults to
// 2026-10-15.
type fakeSource struct {
	today    models.Date
	from, to models.Date
	err      error
}

func (f *fakeSource) Today(context.Context) (*app.TodayView, error) {
	if f.err != nil {
		return nil, f.err
	}
	d := f.today
	if d.IsZero() {
		d = models.NewDate(2026, 10, 15)
	}
	return &app.TodayView{Date: d, Mode: app.ModeActive, ProgramID: catalog.ThreeDaySplit}, nil
}

func (f *fakeSource) Schedule(_ context.Context, from, to models.Date) ([]app.CalendarDay, error) {
	f.from, f.to = from, to
	return []app.CalendarDay{{WorkoutName: "Chest & Triceps"}}, f.err
}

func (f *fakeSource) History(_ context.Context, from, to models.Date) ([]history.Record, error) {
	f.from, f.to = from, to
	return []history.Record{{Date: from, WorkoutID: catalog.LegsCore, SetsCompleted: 12}}, f.err
}

func (f *fakeSource) Stats(context.Context) (*app.Stats, error) {
	return &app.Stats{Summary: history.Summary{Total: 3, Streak: 2}}, f.err
}

func (f *fakeSource) Programs(context.Context) ([]catalog.Program, error) {
	return catalog.Default().Programs(), f.err
}

func newHandlers(ds DataSource) *handlers {
	return &handlers{
		ds:  ds,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	tc, ok := mcp.AsTextContent(res.Content[0])
	if !ok {
		t.Fatalf("content is %T, want text", res.Content[0])
	}
	return tc.Text
}

// TestScheduleDefaultRange verifies get_schedule defaults to two weeks from today.
func TestScheduleDefaultRange(t *testing.T) {
	ds := &fakeSource{}
	res, err := newHandlers(ds).getSchedule(context.Background(), callRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("getSchedule: %v %+v", err, res)
	}
	if ds.from != models.NewDate(2026, 10, 15) || ds.to != models.NewDate(2026, 10, 28) {
		t.Errorf("range = %v..%v", ds.from, ds.to)
	}
	if !strings.Contains(resultText(t, res), "Chest & Triceps") {
		t.Error("result missing workout name")
	}
}

// TestHistoryExplicitRange verifies explicit start/end are passed through.
func TestHistoryExplicitRange(t *testing.T) {
	ds := &fakeSource{}
	res, err := newHandlers(ds).getWorkoutHistory(context.Background(),
		callRequest(map[string]any{"start": "2026-09-01", "end": "2026-09-30"}))
	if err != nil || res.IsError {
		t.Fatalf("getWorkoutHistory: %v %+v", err, res)
	}
	if ds.from != models.NewDate(2026, 9, 1) || ds.to != models.NewDate(2026, 9, 30) {
		t.Errorf("range = %v..%v", ds.from, ds.to)
	}
	var body struct {
		Count int `json:"count"`
	}
	if err := json.Unmarshal([]byte(resultText(t, res)), &body); err != nil {
		t.Fatal(err)
	}
	if body.Count != 1 {
		t.Errorf("count = %d, want 1", body.Count)
	}
}

// TestInvalidDate verifies a malformed date is reported as a tool error.
func TestInvalidDate(t *testing.T) {
	res, err := newHandlers(&fakeSource{}).getSchedule(context.Background(),
		callRequest(map[string]any{"start": "yesterday"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "invalid date format") {
		t.Errorf("result = %+v", res)
	}
}

// TestDefaultRangeFollowsSourceDate verifies default bounds come from the
// data source's today, not the local clock.
func TestDefaultRangeFollowsSourceDate(t *testing.T) {
	ds := &fakeSource{today: models.NewDate(2031, 2, 27)}
	h := newHandlers(ds)

	if res, err := h.getSchedule(context.Background(), callRequest(nil)); err != nil || res.IsError {
		t.Fatalf("getSchedule: %v %+v", err, res)
	}
	if ds.from != models.NewDate(2031, 2, 27) || ds.to != models.NewDate(2031, 3, 12) {
		t.Errorf("schedule range = %v..%v", ds.from, ds.to)
	}

	if res, err := h.getWorkoutHistory(context.Background(), callRequest(map[string]any{"start": "2031-01-01"})); err != nil || res.IsError {
		t.Fatalf("getWorkoutHistory: %v %+v", err, res)
	}
	if ds.from != models.NewDate(2031, 1, 1) || ds.to != models.NewDate(2031, 2, 27) {
		t.Errorf("history range = %v..%v", ds.from, ds.to)
	}
}

// TestDefaultRangeSourceFailure verifies a failing today lookup is a tool error.
func TestDefaultRangeSourceFailure(t *testing.T) {
	res, err := newHandlers(&fakeSource{err: errors.New("connection refused")}).getSchedule(context.Background(), callRequest(nil))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError || !strings.Contains(resultText(t, res), "query failed") {
		t.Errorf("result = %+v", res)
	}
}

// TestQueryFailure verifies data source errors become tool errors, not protocol errors.
func TestQueryFailure(t *testing.T) {
	h := newHandlers(&fakeSource{err: errors.New("connection refused")})
	for name, call := range map[string]func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error){
		"today":    h.getTodayWorkout,
		"stats":    h.getTrainingStats,
		"programs": h.listPrograms,
	} {
		res, err := call(context.Background(), callRequest(nil))
		if err != nil {
			t.Errorf("%s: protocol error %v", name, err)
			continue
		}
		if !res.IsError {
			t.Errorf("%s: expected tool error", name)
		}
	}
}

// TestListPrograms verifies the catalog programs are returned.
func TestListPrograms(t *testing.T) {
	res, err := newHandlers(&fakeSource{}).listPrograms(context.Background(), callRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("listPrograms: %v %+v", err, res)
	}
	if !strings.Contains(resultText(t, res), string(catalog.ThreeDaySplit)) {
		t.Error("three-day split missing")
	}
}

// TestTodayResource verifies the resource combines today's view and stats.
func TestTodayResource(t *testing.T) {
	var req mcp.ReadResourceRequest
	req.Params.URI = "fitvision://today"
	contents, err := newHandlers(&fakeSource{}).today(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if len(contents) != 1 {
		t.Fatalf("contents = %d", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents is %T", contents[0])
	}
	var body struct {
		Today app.TodayView `json:"today"`
		Stats app.Stats     `json:"stats"`
	}
	if err := json.Unmarshal([]byte(text.Text), &body); err != nil {
		t.Fatal(err)
	}
	if body.Today.ProgramID != catalog.ThreeDaySplit || body.Stats.Total != 3 {
		t.Errorf("body = %+v", body)
	}
}

// TestNewRegistersTools verifies New builds a server without panicking.
func TestNewRegistersTools(t *testing.T) {
	if s := New(&fakeSource{}, "test", slog.New(slog.NewTextHandler(io.Discard, nil))); s == nil {
		t.Fatal("nil server")
	}
}
