package catalog

import (
	"encoding/json"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"
)

// ExerciseID identifies an exercise within a workout.
type ExerciseID string

// WorkoutID identifies a workout definition in the catalog.
type WorkoutID string

// ProgramID identifies a multi-day program in the catalog.
type ProgramID string

// Equipment is the category a variation of an exercise is performed with.
type Equipment string

const (
	FreeWeight Equipment = "free_weight"
	Machine    Equipment = "machine"
	Other      Equipment = "other"
)

// equipmentOrder is the fallback order when a preferred variation is missing.
var equipmentOrder = []Equipment{FreeWeight, Machine, Other}

// Valid reports whether e is a known equipment category.
func (e Equipment) Valid() bool {
	switch e {
	case FreeWeight, Machine, Other:
		return true
	}
	return false
}

// Variation is one way of performing an exercise with a given equipment category.
type Variation struct {
	Name         string    `yaml:"name" json:"name"`
	Equipment    Equipment `yaml:"equipment" json:"equipment"`
	Instructions string    `yaml:"instructions" json:"instructions"`
	Tips         []string  `yaml:"tips" json:"tips,omitempty"`
	ImageURL     string    `yaml:"image_url" json:"image_url,omitempty"`
	VideoURL     string    `yaml:"video_url" json:"video_url,omitempty"`
}

// Reps is a target repetition count or a timed target such as "60s".
// Exactly one of Count and Duration is set.
type Reps struct {
	Count    int
	Duration string
}

func (r Reps) String() string {
	if r.Duration != "" {
		return r.Duration
	}
	return strconv.Itoa(r.Count)
}

// IsTimed reports whether the target is a duration rather than a count.
func (r Reps) IsTimed() bool {
	return r.Duration != ""
}

func (r Reps) MarshalJSON() ([]byte, error) {
	if r.IsTimed() {
		return json.Marshal(r.Duration)
	}
	return json.Marshal(r.Count)
}

func (r *Reps) UnmarshalJSON(b []byte) error {
	var n int
	if err := json.Unmarshal(b, &n); err == nil {
		*r = Reps{Count: n}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("reps must be a number or a duration string: %s", b)
	}
	*r = parseReps(s)
	return nil
}

func (r Reps) MarshalYAML() (any, error) {
	if r.IsTimed() {
		return r.Duration, nil
	}
	return r.Count, nil
}

func (r *Reps) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: reps must be a scalar", value.Line)
	}
	*r = parseReps(value.Value)
	return nil
}

func parseReps(s string) Reps {
	if n, err := strconv.Atoi(s); err == nil {
		return Reps{Count: n}
	}
	return Reps{Duration: s}
}

// Exercise is a single movement with a target volume and its variations.
type Exercise struct {
	ID         ExerciseID              `yaml:"id" json:"id"`
	Name       string                  `yaml:"name" json:"name"`
	Sets       int                     `yaml:"sets" json:"sets"`
	Reps       Reps                    `yaml:"reps" json:"reps"`
	Variations map[Equipment]Variation `yaml:"variations" json:"variations"`
}

// Variation returns the variation for pref, falling back to the first
// available one in free-weight, machine, other order.
func (e Exercise) Variation(pref Equipment) Variation {
	if v, ok := e.Variations[pref]; ok {
		return v
	}
	for _, eq := range equipmentOrder {
		if v, ok := e.Variations[eq]; ok {
			return v
		}
	}
	return Variation{}
}

// Workout is one day's worth of exercises.
type Workout struct {
	ID          WorkoutID  `yaml:"id" json:"id"`
	Name        string     `yaml:"name" json:"name"`
	Muscles     []string   `yaml:"muscles" json:"muscles"`
	DurationMin int        `yaml:"duration_min" json:"duration_min"`
	Difficulty  string     `yaml:"difficulty" json:"difficulty"`
	Exercises   []Exercise `yaml:"exercises" json:"exercises"`
}

// TotalSets returns the sum of target sets across all exercises.
func (w Workout) TotalSets() int {
	total := 0
	for _, ex := range w.Exercises {
		total += ex.Sets
	}
	return total
}

// Exercise looks up an exercise of the workout by id.
func (w Workout) Exercise(id ExerciseID) (Exercise, bool) {
	for _, ex := range w.Exercises {
		if ex.ID == id {
			return ex, true
		}
	}
	return Exercise{}, false
}

// Program is a rotation of workouts. The rest-day spacing is a per-user
// setting and is deliberately not part of the template.
type Program struct {
	ID          ProgramID   `yaml:"id" json:"id"`
	Name        string      `yaml:"name" json:"name"`
	Description string      `yaml:"description" json:"description"`
	Difficulty  string      `yaml:"difficulty" json:"difficulty"`
	Schedule    []WorkoutID `yaml:"schedule" json:"schedule"`
}
