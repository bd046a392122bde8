package nutrition

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/meltforce/fitvision/internal/models"
)

// Unit is the display unit for body weight. Weights are stored in kg.
type Unit string

const (
	Kilograms Unit = "kg"
	Pounds    Unit = "lbs"
)

const lbsPerKg = 2.20462

// Valid reports whether u is a known unit.
func (u Unit) Valid() bool {
	return u == Kilograms || u == Pounds
}

// ParseUnit validates a unit string.
func ParseUnit(s string) (Unit, error) {
	switch u := Unit(strings.ToLower(strings.TrimSpace(s))); u {
	case Kilograms, Pounds:
		return u, nil
	}
	return "", fmt.Errorf("%w: unknown unit %q", ErrInvalidInput, s)
}

// ToUnit converts kg to u.
func ToUnit(kg float64, u Unit) float64 {
	if u == Pounds {
		return kg * lbsPerKg
	}
	return kg
}

// FromUnit converts v in u to kg.
func FromUnit(v float64, u Unit) float64 {
	if u == Pounds {
		return v / lbsPerKg
	}
	return v
}

// ParseWeight parses a user-entered weight. Non-numeric, non-finite and
// non-positive values are rejected.
func ParseWeight(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%w: weight %q is not a number", ErrInvalidInput, s)
	}
	if err := validWeight(v); err != nil {
		return 0, err
	}
	return v, nil
}

func validWeight(kg float64) error {
	if math.IsNaN(kg) || math.IsInf(kg, 0) || kg <= 0 {
		return fmt.Errorf("%w: weight must be a positive number", ErrInvalidInput)
	}
	return nil
}

// WeightEntry is one weigh-in.
type WeightEntry struct {
	Date models.Date `json:"date"`
	Kg   float64     `json:"kg"`
}

// WeightLog holds at most one entry per day, oldest first.
type WeightLog struct {
	Entries []WeightEntry `json:"entries"`
}

// Add records kg for date, replacing an existing entry for that day.
func (w *WeightLog) Add(date models.Date, kg float64) (WeightEntry, error) {
	if err := validWeight(kg); err != nil {
		return WeightEntry{}, err
	}
	e := WeightEntry{Date: date, Kg: kg}
	i, found := slices.BinarySearchFunc(w.Entries, date, func(e WeightEntry, d models.Date) int {
		return e.Date.DaysSince(d)
	})
	if found {
		w.Entries[i] = e
	} else {
		w.Entries = slices.Insert(w.Entries, i, e)
	}
	return e, nil
}

// Latest returns the most recent entry.
func (w *WeightLog) Latest() (WeightEntry, bool) {
	if len(w.Entries) == 0 {
		return WeightEntry{}, false
	}
	return w.Entries[len(w.Entries)-1], true
}
