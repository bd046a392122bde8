package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/history"
	"github.com/meltforce/fitvision/internal/models"
	"github.com/meltforce/fitvision/internal/nutrition"
	"github.com/meltforce/fitvision/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// clock is a settable time source.
type clock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// failingGateway fails every call.
type failingGateway struct{}

func (failingGateway) Load(context.Context, string) (*storage.Snapshot, error) {
	return nil, storage.ErrPersistence
}

func (failingGateway) Save(context.Context, string, *storage.Snapshot) error {
	return storage.ErrPersistence
}

type stubAnalyzer struct {
	result *nutrition.Analysis
	err    error
}

func (a stubAnalyzer) Analyze(context.Context, []byte, string) (*nutrition.Analysis, error) {
	return a.result, a.err
}

var start = time.Date(2026, 10, 15, 9, 0, 0, 0, time.UTC)

func newService(t *testing.T, opts Options) (*Service, *clock) {
	t.Helper()
	c := &clock{t: start}
	if opts.Now == nil {
		opts.Now = c.Now
	}
	if opts.Gateway == nil {
		opts.Gateway = storage.NewMemory()
	}
	if opts.Tick == 0 {
		opts.Tick = time.Millisecond
	}
	s := New(context.Background(), opts, testLogger())
	t.Cleanup(s.Close)
	return s, c
}

func activeService(t *testing.T, restDays int) (*Service, *clock) {
	t.Helper()
	s, c := newService(t, Options{})
	if _, err := s.SelectProgram(context.Background(), catalog.ThreeDaySplit, restDays, "muscle"); err != nil {
		t.Fatal(err)
	}
	return s, c
}

// TestNewStartsInOnboarding verifies a fresh state has no program and
// program-dependent operations report ErrOnboarding.
func TestNewStartsInOnboarding(t *testing.T) {
	s, _ := newService(t, Options{})
	ctx := context.Background()

	v, err := s.Today(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Mode != ModeOnboarding || v.Workout != nil {
		t.Errorf("today = %+v", v)
	}
	if _, err := s.Finalize(ctx); !errors.Is(err, ErrOnboarding) {
		t.Errorf("Finalize err = %v", err)
	}
	if _, err := s.Week(ctx); !errors.Is(err, ErrOnboarding) {
		t.Errorf("Week err = %v", err)
	}
	if _, err := s.SetRestDays(ctx, 1); !errors.Is(err, ErrOnboarding) {
		t.Errorf("SetRestDays err = %v", err)
	}
}

// TestSelectProgramValidation verifies bad ids, goals and rest days are rejected.
func TestSelectProgramValidation(t *testing.T) {
	s, _ := newService(t, Options{})
	ctx := context.Background()

	if _, err := s.SelectProgram(ctx, "nope", 0, ""); !errors.Is(err, catalog.ErrUnknownProgram) {
		t.Errorf("unknown program err = %v", err)
	}
	if _, err := s.SelectProgram(ctx, catalog.ThreeDaySplit, -1, ""); !errors.Is(err, ErrInvalidRestDays) || !errors.Is(err, ErrInvalidInput) {
		t.Errorf("negative rest days err = %v", err)
	}
	if _, err := s.SelectProgram(ctx, catalog.ThreeDaySplit, 0, "yoga"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("unknown goal err = %v", err)
	}

	v, err := s.SelectProgram(ctx, catalog.FourDaySplit, 2, "")
	if err != nil {
		t.Fatal(err)
	}
	if v.Mode != ModeActive || v.Program.Goal != GoalGeneral || v.Program.StartDate != models.DateOf(start, time.UTC) {
		t.Errorf("state = %+v", v)
	}
}

// TestTodayFollowsRotation verifies today's workout follows the start date
// and rest-day spacing.
func TestTodayFollowsRotation(t *testing.T) {
	s, c := activeService(t, 1)
	ctx := context.Background()

	want := []catalog.WorkoutID{catalog.ChestTriceps, "", catalog.BackBiceps, "", catalog.LegsCore, "", catalog.ChestTriceps}
	for day, id := range want {
		v, err := s.Today(ctx)
		if err != nil {
			t.Fatal(err)
		}
		switch {
		case id == "" && !v.RestDay:
			t.Errorf("day %d: want rest day, got %+v", day, v.Workout)
		case id != "" && (v.Workout == nil || v.Workout.ID != id):
			t.Errorf("day %d: want %s, got %+v", day, id, v)
		}
		if v.Next == nil {
			t.Errorf("day %d: no next workout", day)
		}
		c.Advance(24 * time.Hour)
	}
}

// TestFinalizeOncePerDay verifies a second finalize on the same day is
// rejected, leaves one record, and clears the session both times.
func TestFinalizeOncePerDay(t *testing.T) {
	s, _ := activeService(t, 0)
	ctx := context.Background()

	for i := range 3 {
		if _, err := s.ToggleSet(ctx, "bench-press", i); err != nil {
			t.Fatal(err)
		}
	}
	rec, err := s.Finalize(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if rec.SetsCompleted != 3 || rec.WorkoutID != catalog.ChestTriceps {
		t.Errorf("record = %+v", rec)
	}

	if _, err := s.ToggleSet(ctx, "bench-press", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Finalize(ctx); !errors.Is(err, history.ErrAlreadyLogged) {
		t.Fatalf("second finalize err = %v", err)
	}

	v, _ := s.Today(ctx)
	if len(v.Completed) != 0 || v.Ratio != 0 {
		t.Errorf("session not cleared after rejected finalize: %+v", v.Completed)
	}
	if v.Logged == nil || v.Logged.SetsCompleted != 3 {
		t.Errorf("logged = %+v", v.Logged)
	}
	recs, _ := s.History(ctx, models.NewDate(2026, 1, 1), models.NewDate(2026, 12, 31))
	if len(recs) != 1 {
		t.Errorf("history has %d records, want 1", len(recs))
	}
}

// TestFinalizeOnRestDay verifies rest days cannot be logged.
func TestFinalizeOnRestDay(t *testing.T) {
	s, c := activeService(t, 1)
	c.Advance(24 * time.Hour)
	if _, err := s.Finalize(context.Background()); !errors.Is(err, ErrRestDay) {
		t.Errorf("err = %v, want ErrRestDay", err)
	}
	if _, err := s.ToggleSet(context.Background(), "bench-press", 0); !errors.Is(err, ErrRestDay) {
		t.Errorf("toggle err = %v, want ErrRestDay", err)
	}
}

// TestSessionRollsOverAtMidnight verifies yesterday's checkmarks are gone the next day.
func TestSessionRollsOverAtMidnight(t *testing.T) {
	s, c := activeService(t, 0)
	ctx := context.Background()
	if _, err := s.ToggleSet(ctx, "bench-press", 0); err != nil {
		t.Fatal(err)
	}
	c.Advance(24 * time.Hour)
	if !s.Activate(ctx) {
		t.Error("Activate should report the cleared session")
	}
	v, _ := s.Today(ctx)
	if len(v.Completed) != 0 {
		t.Errorf("completed = %+v", v.Completed)
	}
}

// TestToggleStartsRest verifies completing a set starts the rest timer and
// unchecking does not.
func TestToggleStartsRest(t *testing.T) {
	s, _ := activeService(t, 0)
	ctx := context.Background()

	res, err := s.ToggleSet(ctx, "bench-press", 0)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Complete || res.Rest == nil || !res.Rest.Active || res.Rest.RemainingSeconds != 60 {
		t.Errorf("toggle = %+v rest=%+v", res, res.Rest)
	}
	if st, err := s.AddRestTime(30 * time.Second); err != nil || st.RemainingSeconds < 89 {
		t.Errorf("extended = %+v, %v", st, err)
	}

	res, err = s.ToggleSet(ctx, "bench-press", 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Complete || res.Rest != nil {
		t.Errorf("untoggle = %+v", res)
	}
	if !s.CancelRest() {
		t.Error("CancelRest should stop the running timer")
	}
	if _, err := s.AddRestTime(time.Second); !errors.Is(err, ErrNoActiveRest) {
		t.Errorf("AddRestTime err = %v", err)
	}
	if s.RestRemaining().Active {
		t.Error("rest still active")
	}
}

// TestStateSurvivesRestart verifies a snapshot reloads every field while the
// rest timer comes back absent.
func TestStateSurvivesRestart(t *testing.T) {
	g := storage.NewMemory()
	ctx := context.Background()
	s, _ := newService(t, Options{Gateway: g})
	if _, err := s.SelectProgram(ctx, catalog.FourDaySplit, 1, "strength"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.ToggleSet(ctx, "bench-press", 1); err != nil {
		t.Fatal(err)
	}
	if _, err := s.LogWeight(ctx, "80.5"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddMeal(ctx, nutrition.Meal{Type: nutrition.Lunch, Name: "Salad", Calories: 400}); err != nil {
		t.Fatal(err)
	}
	before, err := s.Snapshot()
	if err != nil {
		t.Fatal(err)
	}

	s2, _ := newService(t, Options{Gateway: g})
	after, err := s2.Snapshot()
	if err != nil {
		t.Fatal(err)
	}
	if string(before.State) != string(after.State) {
		t.Errorf("state changed across restart:\n%s\n%s", before.State, after.State)
	}
	if s2.RestRemaining().Active {
		t.Error("rest timer survived restart")
	}
	v, _ := s2.Today(ctx)
	if v.ProgramID != catalog.FourDaySplit || len(v.Completed) != 1 {
		t.Errorf("today after restart = %+v", v)
	}
}

// TestPersistenceFailureIsNotFatal verifies load and save errors fall back
// to defaults and never fail operations.
func TestPersistenceFailureIsNotFatal(t *testing.T) {
	s, _ := newService(t, Options{Gateway: failingGateway{}})
	ctx := context.Background()

	if _, err := s.SelectProgram(ctx, catalog.ThreeDaySplit, 0, ""); err != nil {
		t.Fatalf("SelectProgram with failing storage: %v", err)
	}
	if _, err := s.ToggleSet(ctx, "bench-press", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Finalize(ctx); err != nil {
		t.Fatal(err)
	}
	st, _ := s.Stats(ctx)
	if st.Total != 1 {
		t.Errorf("total = %d, want 1", st.Total)
	}
}

// TestCorruptSnapshotFallsBack verifies an undecodable snapshot yields the default state.
func TestCorruptSnapshotFallsBack(t *testing.T) {
	g := storage.NewMemory()
	g.Save(context.Background(), DefaultKey, &storage.Snapshot{Version: 1, State: []byte("{not json")})
	s, _ := newService(t, Options{Gateway: g})
	if v := s.State(context.Background()); v.Mode != ModeOnboarding {
		t.Errorf("mode = %s", v.Mode)
	}
}

// TestScanMeal verifies a successful scan updates totals and a failed one leaves state alone.
func TestScanMeal(t *testing.T) {
	ctx := context.Background()
	ok, _ := newService(t, Options{Analyzer: stubAnalyzer{result: &nutrition.Analysis{MealName: "Bowl", TotalCalories: 500}}})
	meal, _, err := ok.ScanMeal(ctx, []byte("img"), "image/jpeg")
	if err != nil {
		t.Fatal(err)
	}
	if meal.Type != nutrition.Scan {
		t.Errorf("meal = %+v", meal)
	}
	if l := ok.Nutrition(ctx); l.Consumed != 500 || l.Macros.Protein != 31 {
		t.Errorf("log = %+v", l)
	}

	down, _ := newService(t, Options{Analyzer: stubAnalyzer{err: errors.New("timeout")}})
	if _, _, err := down.ScanMeal(ctx, []byte("img"), ""); !errors.Is(err, ErrCollaboratorUnavailable) {
		t.Errorf("err = %v, want ErrCollaboratorUnavailable", err)
	}
	if l := down.Nutrition(ctx); l.Consumed != 0 || len(l.Meals) != 0 {
		t.Errorf("state changed after failed scan: %+v", l)
	}

	zero, _ := newService(t, Options{Analyzer: stubAnalyzer{result: &nutrition.Analysis{MealName: "Water"}}})
	if _, _, err := zero.ScanMeal(ctx, []byte("img"), ""); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("zero calories err = %v, want ErrInvalidInput", err)
	}
}

// TestLogWeightUsesDisplayUnit verifies entries in lbs are stored as kg and shown back in lbs.
func TestLogWeightUsesDisplayUnit(t *testing.T) {
	s, _ := newService(t, Options{})
	ctx := context.Background()
	if _, err := s.SetUnit(ctx, "lbs"); err != nil {
		t.Fatal(err)
	}
	v, err := s.LogWeight(ctx, "176")
	if err != nil {
		t.Fatal(err)
	}
	if v.Unit != nutrition.Pounds || v.Latest == nil || v.Latest.Value != 176 {
		t.Errorf("weight = %+v", v)
	}
	if _, err := s.LogWeight(ctx, "abc"); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("err = %v", err)
	}
}

// TestResetProgress verifies history and session are cleared but the program stays.
func TestResetProgress(t *testing.T) {
	s, _ := activeService(t, 0)
	ctx := context.Background()
	if _, err := s.Finalize(ctx); err != nil {
		t.Fatal(err)
	}
	s.ResetProgress(ctx)
	st, _ := s.Stats(ctx)
	if st.Total != 0 || st.ProgramID != catalog.ThreeDaySplit {
		t.Errorf("stats = %+v", st)
	}
}

// TestChangeProgramKeepsHistory verifies returning to onboarding does not drop records.
func TestChangeProgramKeepsHistory(t *testing.T) {
	s, _ := activeService(t, 0)
	ctx := context.Background()
	if _, err := s.Finalize(ctx); err != nil {
		t.Fatal(err)
	}
	if v := s.ChangeProgram(ctx); v.Mode != ModeOnboarding {
		t.Errorf("mode = %s", v.Mode)
	}
	st, _ := s.Stats(ctx)
	if st.Total != 1 {
		t.Errorf("total = %d, want 1", st.Total)
	}
}

// TestMonthMarksRecords verifies calendar days carry their history records.
func TestMonthMarksRecords(t *testing.T) {
	s, _ := activeService(t, 1)
	ctx := context.Background()
	if _, err := s.Finalize(ctx); err != nil {
		t.Fatal(err)
	}
	days, err := s.Month(ctx, 2026, time.October)
	if err != nil {
		t.Fatal(err)
	}
	if len(days) != 31 {
		t.Fatalf("days = %d", len(days))
	}
	d := days[14]
	if !d.IsToday || d.Record == nil || d.WorkoutName == "" {
		t.Errorf("Oct 15 = %+v", d)
	}
	if days[15].Scheduled {
		t.Errorf("Oct 16 should be a rest day: %+v", days[15])
	}
	if _, err := s.Schedule(ctx, models.NewDate(2026, 1, 1), models.NewDate(2027, 6, 1)); !errors.Is(err, ErrInvalidInput) {
		t.Errorf("oversized range err = %v", err)
	}
}

// TestUpdateProfileValidation verifies bad fields are rejected together.
func TestUpdateProfileValidation(t *testing.T) {
	s, _ := newService(t, Options{})
	ctx := context.Background()
	_, err := s.UpdateProfile(ctx, ProfileUpdate{Profile: Profile{Age: -1}, Unit: "stone"})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v", err)
	}
	v, err := s.UpdateProfile(ctx, ProfileUpdate{Profile: Profile{Name: " Alex ", Age: 28}, CalorieGoal: 2200, Equipment: catalog.Machine})
	if err != nil {
		t.Fatal(err)
	}
	if v.Profile.Name != "Alex" || v.CalorieGoal != 2200 || v.Settings.Equipment != catalog.Machine || v.Settings.Unit != nutrition.Kilograms {
		t.Errorf("profile = %+v", v)
	}
}

// TestRestDaysBounds verifies rest days above MaxRestDays are rejected by
// both selection and later changes.
func TestRestDaysBounds(t *testing.T) {
	ctx := context.Background()
	s, _ := newService(t, Options{})
	for _, n := range []int{MaxRestDays + 1, math.MaxInt, math.MinInt} {
		if _, err := s.SelectProgram(ctx, catalog.ThreeDaySplit, n, ""); !errors.Is(err, ErrInvalidRestDays) {
			t.Errorf("SelectProgram(%d) err = %v", n, err)
		}
	}
	if _, err := s.SelectProgram(ctx, catalog.ThreeDaySplit, MaxRestDays, ""); err != nil {
		t.Fatalf("SelectProgram(MaxRestDays): %v", err)
	}
	if _, err := s.SetRestDays(ctx, math.MaxInt); !errors.Is(err, ErrInvalidRestDays) {
		t.Errorf("SetRestDays err = %v", err)
	}
	v := s.State(ctx)
	if v.Program.RestDays != MaxRestDays {
		t.Errorf("rest days = %d, want %d", v.Program.RestDays, MaxRestDays)
	}
}

// TestStoredHugeRestDays verifies an out-of-range rest-day count already in
// a snapshot loads and schedules without failing.
func TestStoredHugeRestDays(t *testing.T) {
	ctx := context.Background()
	today := models.DateOf(start, time.UTC)
	st := NewState(today)
	st.Program = ProgramState{ProgramID: catalog.ThreeDaySplit, StartDate: today.AddDays(-10), RestDays: math.MaxInt, Goal: GoalGeneral}
	snap, err := st.Encode(start)
	if err != nil {
		t.Fatal(err)
	}
	g := storage.NewMemory()
	if err := g.Save(ctx, DefaultKey, snap); err != nil {
		t.Fatal(err)
	}

	s, _ := newService(t, Options{Gateway: g})
	v, err := s.Today(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !v.RestDay || v.Next != nil {
		t.Errorf("today = %+v", v)
	}
	if _, err := s.Week(ctx); err != nil {
		t.Errorf("Week: %v", err)
	}
	if _, err := s.Month(ctx, 2026, time.October); err != nil {
		t.Errorf("Month: %v", err)
	}
	if _, err := s.Stats(ctx); err != nil {
		t.Errorf("Stats: %v", err)
	}
}

// TestReadOnlyFollowsWriter verifies a read-only service on the writer's
// store sees every write, never saves across a day change and rejects
// writes of its own.
func TestReadOnlyFollowsWriter(t *testing.T) {
	ctx := context.Background()
	g, err := storage.OpenSQLite(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = g.Close() })
	c := &clock{t: start}
	writer, _ := newService(t, Options{Gateway: g, Now: c.Now})
	reader, _ := newService(t, Options{Gateway: g, Now: c.Now, ReadOnly: true})

	if v, _ := reader.Today(ctx); v.Mode != ModeOnboarding {
		t.Fatalf("reader mode = %s", v.Mode)
	}
	if _, err := writer.SelectProgram(ctx, catalog.ThreeDaySplit, 0, "muscle"); err != nil {
		t.Fatal(err)
	}
	if _, err := writer.ToggleSet(ctx, "bench-press", 0); err != nil {
		t.Fatal(err)
	}
	if _, err := writer.Finalize(ctx); err != nil {
		t.Fatal(err)
	}

	v, err := reader.Today(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if v.Mode != ModeActive || v.Logged == nil || v.Logged.SetsCompleted != 1 {
		t.Errorf("reader today = %+v", v)
	}

	before, err := g.Load(ctx, DefaultKey)
	if err != nil {
		t.Fatal(err)
	}
	c.Advance(24 * time.Hour)
	reader.Activate(ctx)
	if _, err := reader.Today(ctx); err != nil {
		t.Fatal(err)
	}
	after, err := g.Load(ctx, DefaultKey)
	if err != nil {
		t.Fatal(err)
	}
	if !after.SavedAt.Equal(before.SavedAt) || string(after.State) != string(before.State) {
		t.Error("read-only service rewrote the snapshot")
	}

	if _, err := reader.ToggleSet(ctx, "bench-press", 0); !errors.Is(err, ErrReadOnly) {
		t.Errorf("ToggleSet err = %v, want ErrReadOnly", err)
	}
	if _, err := reader.SelectProgram(ctx, catalog.FourDaySplit, 0, ""); !errors.Is(err, ErrReadOnly) {
		t.Errorf("SelectProgram err = %v, want ErrReadOnly", err)
	}
	if _, err := reader.LogWeight(ctx, "80"); !errors.Is(err, ErrReadOnly) {
		t.Errorf("LogWeight err = %v, want ErrReadOnly", err)
	}
	reader.ResetProgress(ctx)
	if v := reader.ChangeProgram(ctx); v.Mode != ModeActive {
		t.Errorf("ChangeProgram on read-only service changed mode to %s", v.Mode)
	}

	fresh, _ := newService(t, Options{Gateway: g, Now: c.Now})
	stats, err := fresh.Stats(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if stats.Total != 1 || fresh.State(ctx).Mode != ModeActive {
		t.Errorf("after restart total = %d mode = %s", stats.Total, fresh.State(ctx).Mode)
	}
}
