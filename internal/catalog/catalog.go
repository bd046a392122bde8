package catalog

import (
	"errors"
	"fmt"
	"maps"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownWorkout = errors.New("unknown workout")
	ErrUnknownProgram = errors.New("unknown program")
	ErrInvalidCatalog = errors.New("invalid catalog")
)

// Catalog is the immutable set of workout definitions and programs.
type Catalog struct {
	workouts map[WorkoutID]Workout
	programs map[ProgramID]Program
	order    []ProgramID
}

// file is the on-disk layout of a catalog YAML file.
type file struct {
	Workouts []Workout `yaml:"workouts"`
	Programs []Program `yaml:"programs"`
}

// New builds a catalog and validates every cross reference.
func New(workouts []Workout, programs []Program) (*Catalog, error) {
	c := &Catalog{
		workouts: make(map[WorkoutID]Workout, len(workouts)),
		programs: make(map[ProgramID]Program, len(programs)),
	}

	for _, w := range workouts {
		if err := validateWorkout(w); err != nil {
			return nil, err
		}
		if _, dup := c.workouts[w.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate workout %q", ErrInvalidCatalog, w.ID)
		}
		// YAML files key variations by equipment and may omit the field.
		// The caller's exercises and maps are left untouched.
		w.Exercises = slices.Clone(w.Exercises)
		for i, ex := range w.Exercises {
			vs := maps.Clone(ex.Variations)
			for eq, v := range vs {
				if v.Equipment == "" {
					v.Equipment = eq
					vs[eq] = v
				}
			}
			w.Exercises[i].Variations = vs
		}
		c.workouts[w.ID] = w
	}

	for _, p := range programs {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: program without id", ErrInvalidCatalog)
		}
		if _, dup := c.programs[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate program %q", ErrInvalidCatalog, p.ID)
		}
		if len(p.Schedule) == 0 {
			return nil, fmt.Errorf("%w: program %q has an empty schedule", ErrInvalidCatalog, p.ID)
		}
		for i, id := range p.Schedule {
			if _, ok := c.workouts[id]; !ok {
				return nil, fmt.Errorf("%w: program %q day %d references unknown workout %q", ErrInvalidCatalog, p.ID, i+1, id)
			}
		}
		c.programs[p.ID] = p
		c.order = append(c.order, p.ID)
	}

	return c, nil
}

func validateWorkout(w Workout) error {
	if w.ID == "" {
		return fmt.Errorf("%w: workout without id", ErrInvalidCatalog)
	}
	seen := make(map[ExerciseID]bool, len(w.Exercises))
	for _, ex := range w.Exercises {
		if ex.ID == "" {
			return fmt.Errorf("%w: workout %q has an exercise without id", ErrInvalidCatalog, w.ID)
		}
		if seen[ex.ID] {
			return fmt.Errorf("%w: workout %q repeats exercise %q", ErrInvalidCatalog, w.ID, ex.ID)
		}
		seen[ex.ID] = true
		if ex.Sets < 0 {
			return fmt.Errorf("%w: exercise %q has negative sets", ErrInvalidCatalog, ex.ID)
		}
		if len(ex.Variations) == 0 {
			return fmt.Errorf("%w: exercise %q has no variations", ErrInvalidCatalog, ex.ID)
		}
		for eq := range ex.Variations {
			if !eq.Valid() {
				return fmt.Errorf("%w: exercise %q has unknown equipment %q", ErrInvalidCatalog, ex.ID, eq)
			}
		}
	}
	return nil
}

// LoadFile reads a catalog from a YAML file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading catalog file: %w", err)
	}
	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing catalog file: %w", err)
	}
	return New(f.Workouts, f.Programs)
}

// Workout returns the workout with the given id.
func (c *Catalog) Workout(id WorkoutID) (Workout, error) {
	w, ok := c.workouts[id]
	if !ok {
		return Workout{}, fmt.Errorf("%w: %q", ErrUnknownWorkout, id)
	}
	return w, nil
}

// Program returns the program with the given id.
func (c *Catalog) Program(id ProgramID) (Program, error) {
	p, ok := c.programs[id]
	if !ok {
		return Program{}, fmt.Errorf("%w: %q", ErrUnknownProgram, id)
	}
	return p, nil
}

// Programs returns all programs in declaration order.
func (c *Catalog) Programs() []Program {
	out := make([]Program, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.programs[id])
	}
	return out
}

// MustNew is like New but panics on error. Only for static catalogs.
func MustNew(workouts []Workout, programs []Program) *Catalog {
	c, err := New(workouts, programs)
	if err != nil {
		panic(err)
	}
	return c
}
