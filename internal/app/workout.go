package app

import (
	"context"
	"errors"
	"time"

	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/history"
	"github.com/meltforce/fitvision/internal/models"
	"github.com/meltforce/fitvision/internal/schedule"
	"github.com/meltforce/fitvision/internal/session"
)

// TodayView is everything the workout screen needs for today.
type TodayView struct {
	Date      models.Date       `json:"date"`
	Mode      Mode              `json:"mode"`
	ProgramID catalog.ProgramID `json:"program_id,omitempty"`
	Workout   *catalog.Workout  `json:"workout,omitempty"`
	RestDay   bool              `json:"rest_day"`
	Equipment catalog.Equipment `json:"equipment"`
	Ratio     float64           `json:"completion_ratio"`
	Completed []session.SetKey  `json:"completed_sets"`
	Logged    *history.Record   `json:"logged,omitempty"`
	Next      *schedule.Day     `json:"next,omitempty"`
	NextName  string            `json:"next_workout_name,omitempty"`
}

// todayWorkout resolves today's workout. The caller holds s.mu.
func (s *Service) todayWorkout(today models.Date) (catalog.Workout, error) {
	plan, err := s.plan()
	if err != nil {
		return catalog.Workout{}, err
	}
	id, ok := plan.Resolve(today)
	if !ok {
		return catalog.Workout{}, ErrRestDay
	}
	return s.catalog.Workout(id)
}

// Today returns today's workout and session progress. In onboarding mode
// only Date and Mode are set.
func (s *Service) Today(ctx context.Context) (*TodayView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.enter(ctx)

	v := &TodayView{
		Date:      today,
		Mode:      s.state.Mode(),
		Equipment: s.state.Settings.Equipment,
		Completed: []session.SetKey{},
	}
	if v.Mode == ModeOnboarding {
		return v, nil
	}
	v.ProgramID = s.state.Program.ProgramID
	if rec, ok := s.state.History.Get(today); ok {
		v.Logged = &rec
	}

	plan, err := s.plan()
	if err != nil {
		return nil, err
	}
	if next, ok := plan.Next(today); ok {
		v.Next = &next
		if w, err := s.catalog.Workout(next.WorkoutID); err == nil {
			v.NextName = w.Name
		}
	}

	w, err := s.todayWorkout(today)
	switch {
	case errors.Is(err, ErrRestDay):
		v.RestDay = true
		return v, nil
	case err != nil:
		return nil, err
	}
	v.Workout = &w
	v.Ratio = s.state.Session.CompletionRatio(w)
	v.Completed = s.state.Session.Keys()
	return v, nil
}

// SetResult is the outcome of a set toggle.
type SetResult struct {
	Complete bool        `json:"complete"`
	Ratio    float64     `json:"completion_ratio"`
	Rest     *RestStatus `json:"rest,omitempty"`
}

// ToggleSet flips set setIndex of exercise id. Completing a set starts the
// rest timer. Keys are stored as given without range checks.
func (s *Service) ToggleSet(ctx context.Context, id catalog.ExerciseID, setIndex int) (*SetResult, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.enter(ctx)

	w, err := s.todayWorkout(today)
	if err != nil {
		return nil, err
	}

	res := &SetResult{Complete: s.state.Session.Toggle(session.SetKey{ExerciseID: id, SetIndex: setIndex})}
	res.Ratio = s.state.Session.CompletionRatio(w)
	s.metrics.SetToggled()
	s.save(ctx)

	if res.Complete {
		rest := s.startRest(s.rest)
		res.Rest = &rest
	}
	return res, nil
}

// Finalize logs today's workout to the history. The session is cleared
// whether or not a record was written. A second call on the same day
// returns history.ErrAlreadyLogged and changes nothing else.
func (s *Service) Finalize(ctx context.Context) (history.Record, error) {
	if err := s.writable(); err != nil {
		return history.Record{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	today, _ := s.begin()
	defer s.save(ctx)
	defer s.state.Session.Reset()

	w, err := s.todayWorkout(today)
	if err != nil {
		s.metrics.Finalized("rejected")
		return history.Record{}, err
	}

	rec, err := s.state.History.Finalize(w, s.state.Session.CompletedIn(w), today)
	if err != nil {
		s.metrics.Finalized("already_logged")
		return rec, err
	}
	s.metrics.Finalized("logged")
	s.timers.Cancel()
	s.log.Info("workout logged", "date", today, "workout", w.ID, "sets", rec.SetsCompleted)
	return rec, nil
}

// RestStatus describes the rest timer.
type RestStatus struct {
	Active           bool `json:"active"`
	RemainingSeconds int  `json:"remaining_seconds"`
}

func restStatus(c *session.Countdown) RestStatus {
	if c == nil {
		return RestStatus{}
	}
	rem := c.Remaining()
	return RestStatus{Active: true, RemainingSeconds: int((rem + time.Second - 1) / time.Second)}
}

func (s *Service) startRest(d time.Duration) RestStatus {
	c := s.timers.Start(d, nil, func() {
		s.log.Debug("rest finished")
	})
	return restStatus(c)
}

// StartRest starts a rest timer of d, replacing any running one. d <= 0
// uses the configured rest period.
func (s *Service) StartRest(d time.Duration) RestStatus {
	if d <= 0 {
		d = s.rest
	}
	return s.startRest(d)
}

// CancelRest stops the rest timer. It reports whether one was running.
func (s *Service) CancelRest() bool {
	return s.timers.Cancel()
}

// AddRestTime extends the running rest timer by d.
func (s *Service) AddRestTime(d time.Duration) (RestStatus, error) {
	c := s.timers.Active()
	if c == nil {
		return RestStatus{}, ErrNoActiveRest
	}
	c.AddTime(d)
	return restStatus(c), nil
}

// RestRemaining reports the rest timer state.
func (s *Service) RestRemaining() RestStatus {
	return restStatus(s.timers.Active())
}
