package app

import (
	"context"
	"fmt"
	"time"

	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/history"
	"github.com/meltforce/fitvision/internal/models"
	"github.com/meltforce/fitvision/internal/schedule"
)

// MaxRangeDays bounds schedule and history range queries.
const MaxRangeDays = 366

// CalendarDay is a resolved day joined with its workout name and history record.
type CalendarDay struct {
	schedule.Day
	WorkoutName string          `json:"workout_name,omitempty"`
	Record      *history.Record `json:"record,omitempty"`
}

// calendar decorates days. The caller holds s.mu.
func (s *Service) calendar(days []schedule.Day) ([]CalendarDay, error) {
	byDate, err := history.ByDate(s.state.History.Records())
	if err != nil {
		return nil, err
	}
	out := make([]CalendarDay, 0, len(days))
	for _, d := range days {
		cd := CalendarDay{Day: d}
		if d.Scheduled {
			if w, err := s.catalog.Workout(d.WorkoutID); err == nil {
				cd.WorkoutName = w.Name
			}
		}
		if rec, ok := byDate[d.Date]; ok {
			cd.Record = &rec
		}
		out = append(out, cd)
	}
	return out, nil
}

func checkRange(from, to models.Date) error {
	if to.Before(from) {
		return fmt.Errorf("%w: end %s before start %s", ErrInvalidInput, to, from)
	}
	if to.DaysSince(from) >= MaxRangeDays {
		return fmt.Errorf("%w: range longer than %d days", ErrInvalidInput, MaxRangeDays)
	}
	return nil
}

// Week returns the Sunday-started week containing today.
func (s *Service) Week(ctx context.Context) ([]CalendarDay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.enter(ctx)
	plan, err := s.plan()
	if err != nil {
		return nil, err
	}
	return s.calendar(plan.Week(today))
}

// Month returns every day of the given month.
func (s *Service) Month(ctx context.Context, year int, month time.Month) ([]CalendarDay, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", ErrInvalidInput, month)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.enter(ctx)
	plan, err := s.plan()
	if err != nil {
		return nil, err
	}
	days, err := s.calendar(plan.Month(year, month))
	if err != nil {
		return nil, err
	}
	for i := range days {
		days[i].IsToday = days[i].Date == today
	}
	return days, nil
}

// Schedule resolves every day from from to to, inclusive.
func (s *Service) Schedule(ctx context.Context, from, to models.Date) ([]CalendarDay, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.enter(ctx)
	plan, err := s.plan()
	if err != nil {
		return nil, err
	}
	days, err := s.calendar(plan.Range(from, to))
	if err != nil {
		return nil, err
	}
	for i := range days {
		days[i].IsToday = days[i].Date == today
	}
	return days, nil
}

// History returns the records dated from from to to, inclusive.
func (s *Service) History(ctx context.Context, from, to models.Date) ([]history.Record, error) {
	if to.Before(from) {
		return nil, fmt.Errorf("%w: end %s before start %s", ErrInvalidInput, to, from)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enter(ctx)
	recs := history.Between(s.state.History.Records(), from, to)
	if recs == nil {
		recs = []history.Record{}
	}
	return recs, nil
}

// Stats is the training overview.
type Stats struct {
	history.Summary
	Today       models.Date       `json:"today"`
	ProgramID   catalog.ProgramID `json:"program_id,omitempty"`
	ProgramName string            `json:"program_name,omitempty"`
	RestDays    int               `json:"rest_days"`
	Goal        string            `json:"goal,omitempty"`
}

// Stats summarizes the workout history as of today.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.enter(ctx)
	st := &Stats{
		Summary:  history.Summarize(s.state.History.Records(), today),
		Today:    today,
		RestDays: s.state.Program.RestDays,
		Goal:     s.state.Program.Goal,
	}
	if plan, err := s.plan(); err == nil {
		st.ProgramID = plan.Program.ID
		st.ProgramName = plan.Program.Name
	}
	return st, nil
}

// Programs lists the catalog programs.
func (s *Service) Programs(ctx context.Context) ([]catalog.Program, error) {
	return s.catalog.Programs(), nil
}

// Workout returns a catalog workout.
func (s *Service) Workout(ctx context.Context, id catalog.WorkoutID) (*catalog.Workout, error) {
	w, err := s.catalog.Workout(id)
	if err != nil {
		return nil, err
	}
	return &w, nil
}
