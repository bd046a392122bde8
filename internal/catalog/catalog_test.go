package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

// TestDefaultCatalog verifies the built-in programs resolve to known workouts.
func TestDefaultCatalog(t *testing.T) {
	c := Default()
	programs := c.Programs()
	if len(programs) != 2 {
		t.Fatalf("programs = %d, want 2", len(programs))
	}
	if programs[0].ID != ThreeDaySplit || programs[1].ID != FourDaySplit {
		t.Errorf("program order = %v, %v", programs[0].ID, programs[1].ID)
	}
	for _, p := range programs {
		for _, id := range p.Schedule {
			if _, err := c.Workout(id); err != nil {
				t.Errorf("program %s: %v", p.ID, err)
			}
		}
	}
}

// TestUnknownIDs verifies lookups of unknown ids return typed errors instead of zero values.
func TestUnknownIDs(t *testing.T) {
	c := Default()
	if _, err := c.Workout("cardio"); !errors.Is(err, ErrUnknownWorkout) {
		t.Errorf("Workout err = %v, want ErrUnknownWorkout", err)
	}
	if _, err := c.Program("ppl"); !errors.Is(err, ErrUnknownProgram) {
		t.Errorf("Program err = %v, want ErrUnknownProgram", err)
	}
}

// TestNewRejectsInvalid verifies the catalog invariants: non-empty schedules,
// known schedule references and at least one variation per exercise.
func TestNewRejectsInvalid(t *testing.T) {
	w := Workout{ID: "a", Exercises: []Exercise{{ID: "x", Sets: 3, Variations: map[Equipment]Variation{Other: {Name: "x"}}}}}

	tests := []struct {
		name     string
		workouts []Workout
		programs []Program
	}{
		{"empty schedule", []Workout{w}, []Program{{ID: "p"}}},
		{"unknown workout", []Workout{w}, []Program{{ID: "p", Schedule: []WorkoutID{"b"}}}},
		{"no variations", []Workout{{ID: "a", Exercises: []Exercise{{ID: "x", Sets: 1}}}}, nil},
		{"bad equipment", []Workout{{ID: "a", Exercises: []Exercise{{ID: "x", Variations: map[Equipment]Variation{"band": {}}}}}}, nil},
		{"duplicate workout", []Workout{w, w}, nil},
		{"duplicate exercise", []Workout{{ID: "a", Exercises: []Exercise{w.Exercises[0], w.Exercises[0]}}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.workouts, tt.programs); !errors.Is(err, ErrInvalidCatalog) {
				t.Errorf("err = %v, want ErrInvalidCatalog", err)
			}
		})
	}
}

// TestVariationFallback verifies preferred equipment wins and missing
// equipment falls back in a stable order.
func TestVariationFallback(t *testing.T) {
	ex := Exercise{Variations: map[Equipment]Variation{
		Machine: {Name: "machine"},
		Other:   {Name: "band"},
	}}
	if got := ex.Variation(Other).Name; got != "band" {
		t.Errorf("preferred = %q, want band", got)
	}
	if got := ex.Variation(FreeWeight).Name; got != "machine" {
		t.Errorf("fallback = %q, want machine", got)
	}
}

// TestRepsJSON verifies reps accept both counts and duration strings.
func TestRepsJSON(t *testing.T) {
	var reps []Reps
	if err := json.Unmarshal([]byte(`[10, "60s", "12"]`), &reps); err != nil {
		t.Fatal(err)
	}
	if reps[0].Count != 10 || reps[1].Duration != "60s" || reps[2].Count != 12 {
		t.Errorf("reps = %+v", reps)
	}
	data, err := json.Marshal(reps)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != `[10,"60s",12]` {
		t.Errorf("json = %s", data)
	}
}

// TestTotalSets verifies the sum used as the completion ratio denominator.
func TestTotalSets(t *testing.T) {
	w, err := Default().Workout(ChestTriceps)
	if err != nil {
		t.Fatal(err)
	}
	if got := w.TotalSets(); got != 10 {
		t.Errorf("TotalSets = %d, want 10", got)
	}
}

const catalogYAML = `
workouts:
  - id: push
    name: Push
    duration_min: 40
    exercises:
      - id: dips
        name: Dips
        sets: 3
        reps: 12
        variations:
          other:
            name: Bar Dips
      - id: hold
        name: Hollow Hold
        sets: 2
        reps: 45s
        variations:
          other:
            name: Hollow Hold
  - id: pull
    name: Pull
    exercises: []
programs:
  - id: ppl
    name: Push Pull
    schedule: [push, pull]
`

// TestLoadFile verifies a YAML catalog file loads and validates.
func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	if err := os.WriteFile(path, []byte(catalogYAML), 0644); err != nil {
		t.Fatal(err)
	}
	c, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	p, err := c.Program("ppl")
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Schedule) != 2 {
		t.Errorf("schedule = %v", p.Schedule)
	}
	w, err := c.Workout("push")
	if err != nil {
		t.Fatal(err)
	}
	if w.Exercises[1].Reps.Duration != "45s" || w.Exercises[0].Reps.Count != 12 {
		t.Errorf("reps = %+v / %+v", w.Exercises[0].Reps, w.Exercises[1].Reps)
	}
}

// TestLoadFileMissing verifies a missing catalog file is an error.
func TestLoadFileMissing(t *testing.T) {
	if _, err := LoadFile("/nonexistent/catalog.yaml"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

// TestNewLeavesInputUntouched verifies filling in variation equipment does not
// write into the caller's workouts.
func TestNewLeavesInputUntouched(t *testing.T) {
	in := []Workout{{ID: "a", Exercises: []Exercise{{
		ID: "x", Sets: 3,
		Variations: map[Equipment]Variation{Machine: {Name: "Leg Press"}},
	}}}}

	c, err := New(in, []Program{{ID: "p", Schedule: []WorkoutID{"a"}}})
	if err != nil {
		t.Fatal(err)
	}
	if got := in[0].Exercises[0].Variations[Machine].Equipment; got != "" {
		t.Errorf("input variation equipment = %q, want empty", got)
	}
	w, err := c.Workout("a")
	if err != nil {
		t.Fatal(err)
	}
	if got := w.Exercises[0].Variations[Machine].Equipment; got != Machine {
		t.Errorf("catalog variation equipment = %q, want %q", got, Machine)
	}
}
