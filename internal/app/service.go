// Package app owns the application state and runs every user operation
// against it.
//
// A Service call is one turn: it takes the state lock, applies the day
// boundary rollover, runs the operation to completion and saves a snapshot
// if anything changed. Save failures are logged and counted but never
// returned; the in-memory state stays authoritative.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/meltforce/fitvision/internal/analyzer"
	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/metrics"
	"github.com/meltforce/fitvision/internal/models"
	"github.com/meltforce/fitvision/internal/nutrition"
	"github.com/meltforce/fitvision/internal/schedule"
	"github.com/meltforce/fitvision/internal/session"
	"github.com/meltforce/fitvision/internal/storage"
)

// MaxRestDays is the largest accepted number of rest days between workouts.
const MaxRestDays = 365

var (
	// ErrInvalidInput marks input rejected before any state change.
	ErrInvalidInput    = nutrition.ErrInvalidInput
	ErrInvalidRestDays = fmt.Errorf("%w: rest days must be between 0 and %d", ErrInvalidInput, MaxRestDays)
	// ErrOnboarding is returned by operations that need a selected program.
	ErrOnboarding = errors.New("no program selected")
	// ErrRestDay is returned when today has no scheduled workout.
	ErrRestDay                 = errors.New("no workout scheduled today")
	ErrCollaboratorUnavailable = errors.New("meal analysis unavailable")
	ErrNoActiveRest            = errors.New("no rest timer running")
	// ErrReadOnly is returned by writes on a service opened with ReadOnly.
	ErrReadOnly = errors.New("state is read-only")
)

// DefaultKey is the snapshot key of the single user.
const DefaultKey = "default"

// Options configures a Service. Zero fields get defaults.
type Options struct {
	Catalog  *catalog.Catalog
	Gateway  storage.Gateway
	Key      string
	Analyzer analyzer.Analyzer
	Metrics  *metrics.Manager
	Location *time.Location
	Now      func() time.Time
	Rest     time.Duration
	Tick     time.Duration
	// ReadOnly reloads the stored state at the start of every turn and
	// never saves. Another process owns the snapshot.
	ReadOnly bool
}

// Service serializes all operations on one State.
type Service struct {
	mu    sync.Mutex
	state *State

	catalog  *catalog.Catalog
	gateway  storage.Gateway
	key      string
	analyzer analyzer.Analyzer
	metrics  *metrics.Manager
	log      *slog.Logger
	loc      *time.Location
	now      func() time.Time
	rest     time.Duration
	readOnly bool
	timers   *session.Countdowns
}

// New loads the stored state through opts.Gateway and returns a ready
// service. A missing or unreadable snapshot yields the default state.
func New(ctx context.Context, opts Options, log *slog.Logger) *Service {
	s := &Service{
		catalog:  opts.Catalog,
		gateway:  opts.Gateway,
		key:      opts.Key,
		analyzer: opts.Analyzer,
		metrics:  opts.Metrics,
		log:      log,
		loc:      opts.Location,
		now:      opts.Now,
		rest:     opts.Rest,
		readOnly: opts.ReadOnly,
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.key == "" {
		s.key = DefaultKey
	}
	if s.analyzer == nil {
		s.analyzer = analyzer.Unavailable{}
	}
	if s.loc == nil {
		s.loc = time.UTC
	}
	if s.now == nil {
		s.now = time.Now
	}
	if s.rest <= 0 {
		s.rest = session.DefaultRest
	}
	s.timers = session.NewCountdowns(opts.Tick)

	today := s.today()
	st, err := Load(ctx, s.gateway, s.key, today)
	if err != nil {
		s.log.Error("loading state failed, using defaults", "key", s.key, "error", err)
		s.metrics.PersistenceFailed("load")
	}
	s.state = s.checkProgram(st)
	return s
}

// checkProgram drops a stored program the catalog no longer knows.
func (s *Service) checkProgram(st *State) *State {
	if id := st.Program.ProgramID; id != "" {
		if _, err := s.catalog.Program(id); err != nil {
			s.log.Warn("stored program not in catalog, onboarding again", "program", id)
			st.Program = ProgramState{}
		}
	}
	return st
}

// reload replaces the state with the stored one. On a read failure the last
// known state is kept. The caller holds s.mu.
func (s *Service) reload(ctx context.Context) {
	st, err := Load(ctx, s.gateway, s.key, s.today())
	if err != nil {
		s.log.Warn("reloading state failed, keeping last known state", "key", s.key, "error", err)
		s.metrics.PersistenceFailed("load")
		return
	}
	s.state = s.checkProgram(st)
}

// writable returns ErrReadOnly for a read-only service.
func (s *Service) writable() error {
	if s.readOnly {
		return ErrReadOnly
	}
	return nil
}

// Close stops the rest timer.
func (s *Service) Close() {
	s.timers.Cancel()
}

// Catalog returns the catalog the service schedules from.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// Date returns today's date in the service's time zone.
func (s *Service) Date() models.Date {
	return s.today()
}

func (s *Service) today() models.Date {
	return models.DateOf(s.now(), s.loc)
}

// begin starts a turn. The caller holds s.mu. It returns today and whether
// the day boundary rollover changed the state.
func (s *Service) begin() (models.Date, bool) {
	today := s.today()
	sessionCleared := s.state.Session.Rollover(today)
	mealsCleared := s.state.Nutrition.Rollover(today)
	if sessionCleared {
		s.log.Info("new day, cleared unfinished session", "date", today)
	}
	return today, sessionCleared || mealsCleared
}

// enter is begin for turns that otherwise only read. The caller holds s.mu.
func (s *Service) enter(ctx context.Context) models.Date {
	if s.readOnly {
		s.reload(ctx)
	}
	today, changed := s.begin()
	if changed {
		s.save(ctx)
	}
	return today
}

// save writes a snapshot. The caller holds s.mu.
func (s *Service) save(ctx context.Context) {
	if s.gateway == nil || s.readOnly {
		return
	}
	snap, err := s.state.Encode(s.now())
	if err == nil {
		err = s.gateway.Save(context.WithoutCancel(ctx), s.key, snap)
	}
	if err != nil {
		s.log.Error("saving state failed", "key", s.key, "error", err)
		s.metrics.PersistenceFailed("save")
	}
}

// plan returns the active schedule plan, or ErrOnboarding. The caller holds s.mu.
func (s *Service) plan() (schedule.Plan, error) {
	ps := s.state.Program
	if s.state.Mode() == ModeOnboarding {
		return schedule.Plan{}, ErrOnboarding
	}
	p, err := s.catalog.Program(ps.ProgramID)
	if err != nil {
		return schedule.Plan{}, err
	}
	return schedule.Plan{Program: p, Start: ps.StartDate, RestDays: ps.RestDays}, nil
}

// Activate runs the day boundary check. It is called once at startup and
// reports whether anything was cleared.
func (s *Service) Activate(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, changed := s.begin()
	if changed {
		s.save(ctx)
	}
	return changed
}

// StateView is the program selection as seen by clients.
type StateView struct {
	Mode    Mode             `json:"mode"`
	Program ProgramState     `json:"program_state"`
	Details *catalog.Program `json:"program,omitempty"`
	Today   models.Date      `json:"today"`
}

func (s *Service) stateView(today models.Date) *StateView {
	v := &StateView{Mode: s.state.Mode(), Program: s.state.Program, Today: today}
	if plan, err := s.plan(); err == nil {
		p := plan.Program
		v.Details = &p
	}
	return v
}

// State returns the current mode and program selection.
func (s *Service) State(ctx context.Context) *StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateView(s.enter(ctx))
}

// SelectProgram starts program id today with restDays rest days between
// workouts. Any session in progress is discarded; history is kept.
func (s *Service) SelectProgram(ctx context.Context, id catalog.ProgramID, restDays int, goal string) (*StateView, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if restDays < 0 || restDays > MaxRestDays {
		return nil, ErrInvalidRestDays
	}
	goal = strings.ToLower(strings.TrimSpace(goal))
	if goal == "" {
		goal = GoalGeneral
	}
	if !goals[goal] {
		return nil, fmt.Errorf("%w: unknown goal %q", ErrInvalidInput, goal)
	}
	if _, err := s.catalog.Program(id); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	today, _ := s.begin()
	s.state.Program = ProgramState{ProgramID: id, StartDate: today, RestDays: restDays, Goal: goal}
	s.state.Session.Reset()
	s.save(ctx)
	s.log.Info("program selected", "program", id, "rest_days", restDays, "goal", goal)
	return s.stateView(today), nil
}

// ChangeProgram deselects the program and returns to onboarding. A
// read-only service returns the state unchanged.
func (s *Service) ChangeProgram(ctx context.Context) *StateView {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.readOnly {
		return s.stateView(s.enter(ctx))
	}
	today, _ := s.begin()
	s.state.Program.ProgramID = ""
	s.state.Session.Reset()
	s.save(ctx)
	return s.stateView(today)
}

// SetRestDays changes the rest-day spacing. The start date is kept, so the
// schedule of past and future days changes alike.
func (s *Service) SetRestDays(ctx context.Context, n int) (*StateView, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if n < 0 || n > MaxRestDays {
		return nil, ErrInvalidRestDays
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.enter(ctx)
	if s.state.Mode() == ModeOnboarding {
		return nil, ErrOnboarding
	}
	s.state.Program.RestDays = n
	s.save(ctx)
	return s.stateView(today), nil
}

// ResetProgress clears the workout history and the session in progress.
func (s *Service) ResetProgress(ctx context.Context) {
	if s.readOnly {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin()
	s.state.History.Reset()
	s.state.Session.Reset()
	s.save(ctx)
	s.log.Info("progress reset")
}

// Snapshot returns the state as it would be saved.
func (s *Service) Snapshot() (*storage.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Encode(s.now())
}
