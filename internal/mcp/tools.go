package mcp

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/meltforce/fitvision/internal/models"
)

// dateRange parses optional YYYY-MM-DD bounds. A missing bound is the data
// source's today shifted by fromOffset or toOffset days, so defaults follow
// the server's time zone rather than this process's.
func (h *handlers) dateRange(ctx context.Context, req mcp.CallToolRequest, fromOffset, toOffset int) (models.Date, models.Date, error) {
	start, end := req.GetString("start", ""), req.GetString("end", "")
	var from, to models.Date
	if start == "" || end == "" {
		view, err := h.ds.Today(ctx)
		if err != nil {
			return from, to, fmt.Errorf("query failed: %w", err)
		}
		from, to = view.Date.AddDays(fromOffset), view.Date.AddDays(toOffset)
	}
	var err error
	if start != "" {
		if from, err = models.ParseDate(start); err != nil {
			return from, to, fmt.Errorf("invalid date format: start: %w", err)
		}
	}
	if end != "" {
		if to, err = models.ParseDate(end); err != nil {
			return from, to, fmt.Errorf("invalid date format: end: %w", err)
		}
	}
	return from, to, nil
}

var toolGetTodayWorkout = mcp.NewTool("get_today_workout",
	mcp.WithDescription("Today's scheduled workout with exercises, sets and reps, or a rest day. Includes completed sets, completion ratio, whether today is already logged, and the next workout."),
)

var toolGetSchedule = mcp.NewTool("get_schedule",
	mcp.WithDescription("Resolve the workout rotation for a date range. Each day lists the scheduled workout (or rest) and any logged record."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to today.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to 13 days after today.")),
)

var toolGetWorkoutHistory = mcp.NewTool("get_workout_history",
	mcp.WithDescription("Logged workouts in a date range: date, workout, duration and sets completed."),
	mcp.WithString("start", mcp.Description("Start date (YYYY-MM-DD). Defaults to 30 days ago.")),
	mcp.WithString("end", mcp.Description("End date (YYYY-MM-DD). Defaults to today.")),
)

var toolGetTrainingStats = mcp.NewTool("get_training_stats",
	mcp.WithDescription("Total workouts, this week, this month, current streak, last workout and the active program."),
)

var toolListPrograms = mcp.NewTool("list_programs",
	mcp.WithDescription("All training programs in the catalog with their workout rotation."),
)

func (h *handlers) getTodayWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	view, err := h.ds.Today(ctx)
	if err != nil {
		h.log.Error("mcp get_today_workout", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(view)
}

func (h *handlers) getSchedule(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, to, err := h.dateRange(ctx, req, 0, 13)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	days, err := h.ds.Schedule(ctx, from, to)
	if err != nil {
		h.log.Error("mcp get_schedule", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(days)
}

func (h *handlers) getWorkoutHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	from, to, err := h.dateRange(ctx, req, -29, 0)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	records, err := h.ds.History(ctx, from, to)
	if err != nil {
		h.log.Error("mcp get_workout_history", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(map[string]any{
		"start":   from,
		"end":     to,
		"count":   len(records),
		"records": records,
	})
}

func (h *handlers) getTrainingStats(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := h.ds.Stats(ctx)
	if err != nil {
		h.log.Error("mcp get_training_stats", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(stats)
}

func (h *handlers) listPrograms(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	programs, err := h.ds.Programs(ctx)
	if err != nil {
		h.log.Error("mcp list_programs", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(programs)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
