package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/history"
	"github.com/meltforce/fitvision/internal/models"
	"github.com/meltforce/fitvision/internal/nutrition"
	"github.com/meltforce/fitvision/internal/session"
	"github.com/meltforce/fitvision/internal/storage"
)

// SchemaVersion is written into every snapshot. Snapshots from a newer
// version are not loaded.
const SchemaVersion = 1

// Mode is the top-level application mode.
type Mode string

const (
	// ModeOnboarding means no program is selected yet.
	ModeOnboarding Mode = "onboarding"
	ModeActive     Mode = "active"
)

// Fitness goals offered during onboarding.
const (
	GoalMuscle    = "muscle"
	GoalStrength  = "strength"
	GoalEndurance = "endurance"
	GoalGeneral   = "general"
)

var goals = map[string]bool{GoalMuscle: true, GoalStrength: true, GoalEndurance: true, GoalGeneral: true}

// Profile is the user's personal data.
type Profile struct {
	Name           string      `json:"name"`
	Email          string      `json:"email"`
	Age            int         `json:"age"`
	Sex            string      `json:"sex"`
	TargetWeightKg float64     `json:"target_weight_kg"`
	TargetDate     models.Date `json:"target_date"`
}

// Settings are display preferences.
type Settings struct {
	Unit      nutrition.Unit    `json:"unit"`
	Equipment catalog.Equipment `json:"equipment"`
}

// ProgramState is the user's program selection. An empty ProgramID means
// no program is selected.
type ProgramState struct {
	ProgramID catalog.ProgramID `json:"program_id"`
	StartDate models.Date       `json:"start_date"`
	RestDays  int               `json:"rest_days"`
	Goal      string            `json:"goal"`
}

// State is the whole application state of one user. Timers are not part of it.
type State struct {
	Profile   Profile             `json:"profile"`
	Settings  Settings            `json:"settings"`
	Program   ProgramState        `json:"program"`
	Session   *session.Tracker    `json:"session"`
	History   *history.Log        `json:"history"`
	Nutrition nutrition.Log       `json:"nutrition"`
	Weight    nutrition.WeightLog `json:"weight"`
}

// NewState returns the default state of a new user on today.
func NewState(today models.Date) *State {
	return &State{
		Settings:  Settings{Unit: nutrition.Kilograms, Equipment: catalog.FreeWeight},
		Session:   session.NewTracker(today),
		History:   &history.Log{},
		Nutrition: nutrition.NewLog(today),
	}
}

// Mode reports whether the user still has to pick a program.
func (s *State) Mode() Mode {
	if s.Program.ProgramID == "" {
		return ModeOnboarding
	}
	return ModeActive
}

// Encode builds a snapshot of s.
func (s *State) Encode(now time.Time) (*storage.Snapshot, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encoding state: %w", err)
	}
	return &storage.Snapshot{Version: SchemaVersion, SavedAt: now.UTC(), State: data}, nil
}

// Decode restores a state from snap. Fields missing from the snapshot keep
// their defaults for today.
func Decode(snap *storage.Snapshot, today models.Date) (*State, error) {
	if snap.Version > SchemaVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", snap.Version, SchemaVersion)
	}
	st := NewState(today)
	if err := json.Unmarshal(snap.State, st); err != nil {
		return nil, fmt.Errorf("decoding state: %w", err)
	}
	if st.Session == nil {
		st.Session = session.NewTracker(today)
	}
	if st.History == nil {
		st.History = &history.Log{}
	}
	if st.Nutrition.Meals == nil {
		st.Nutrition.Meals = []nutrition.Meal{}
	}
	if !st.Settings.Unit.Valid() {
		st.Settings.Unit = nutrition.Kilograms
	}
	if !st.Settings.Equipment.Valid() {
		st.Settings.Equipment = catalog.FreeWeight
	}
	return st, nil
}

// Load returns the state stored under key. When nothing is stored it returns
// the default state and no error. When the stored state cannot be read it
// returns the default state together with the error, which callers log and
// otherwise ignore.
func Load(ctx context.Context, g storage.Gateway, key string, today models.Date) (*State, error) {
	if g == nil {
		return NewState(today), nil
	}
	snap, err := g.Load(ctx, key)
	if errors.Is(err, storage.ErrNotFound) {
		return NewState(today), nil
	}
	if err != nil {
		return NewState(today), err
	}
	st, err := Decode(snap, today)
	if err != nil {
		return NewState(today), fmt.Errorf("%w: %v", storage.ErrPersistence, err)
	}
	return st, nil
}
