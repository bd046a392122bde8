package session

import (
	"encoding/json"
	"slices"
	"strings"

	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/models"
)

// SetKey identifies one set of one exercise in the session in progress.
type SetKey struct {
	ExerciseID catalog.ExerciseID `json:"exercise_id"`
	SetIndex   int                `json:"set_index"`
}

// Tracker holds the completed sets of the session for ActiveDate.
// Keys are stored as given; no range checking against the workout is done.
type Tracker struct {
	activeDate models.Date
	completed  map[SetKey]struct{}
}

// NewTracker returns an empty tracker active on today.
func NewTracker(today models.Date) *Tracker {
	return &Tracker{activeDate: today, completed: make(map[SetKey]struct{})}
}

// ActiveDate is the day the tracked sets belong to.
func (t *Tracker) ActiveDate() models.Date {
	return t.activeDate
}

// Toggle flips the completion of key and returns the new state.
func (t *Tracker) Toggle(key SetKey) bool {
	if _, ok := t.completed[key]; ok {
		delete(t.completed, key)
		return false
	}
	if t.completed == nil {
		t.completed = make(map[SetKey]struct{})
	}
	t.completed[key] = struct{}{}
	return true
}

// IsComplete reports whether key is marked complete.
func (t *Tracker) IsComplete(key SetKey) bool {
	_, ok := t.completed[key]
	return ok
}

// Count returns the number of completed sets.
func (t *Tracker) Count() int {
	return len(t.completed)
}

// Keys returns the completed sets ordered by exercise then set index.
func (t *Tracker) Keys() []SetKey {
	keys := make([]SetKey, 0, len(t.completed))
	for k := range t.completed {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b SetKey) int {
		if c := strings.Compare(string(a.ExerciseID), string(b.ExerciseID)); c != 0 {
			return c
		}
		return a.SetIndex - b.SetIndex
	})
	return keys
}

// CompletedIn counts the completed keys that address a real set of one of
// w's exercises.
func (t *Tracker) CompletedIn(w catalog.Workout) int {
	done := 0
	for k := range t.completed {
		ex, ok := w.Exercise(k.ExerciseID)
		if ok && k.SetIndex >= 0 && k.SetIndex < ex.Sets {
			done++
		}
	}
	return done
}

// CompletionRatio returns the completed share of w's target sets in [0, 1].
func (t *Tracker) CompletionRatio(w catalog.Workout) float64 {
	total := w.TotalSets()
	if total <= 0 {
		return 0
	}
	return min(float64(t.CompletedIn(w))/float64(total), 1)
}

// Reset clears all completed sets.
func (t *Tracker) Reset() {
	clear(t.completed)
}

// Rollover clears the tracker when today differs from the active date and
// moves the active date to today. It reports whether any sets were dropped.
func (t *Tracker) Rollover(today models.Date) bool {
	if t.activeDate == today {
		return false
	}
	dropped := len(t.completed) > 0
	t.Reset()
	t.activeDate = today
	return dropped
}

type trackerJSON struct {
	ActiveDate models.Date `json:"active_date"`
	Completed  []SetKey    `json:"completed"`
}

func (t *Tracker) MarshalJSON() ([]byte, error) {
	return json.Marshal(trackerJSON{ActiveDate: t.activeDate, Completed: t.Keys()})
}

func (t *Tracker) UnmarshalJSON(b []byte) error {
	var v trackerJSON
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	t.activeDate = v.ActiveDate
	t.completed = make(map[SetKey]struct{}, len(v.Completed))
	for _, k := range v.Completed {
		t.completed[k] = struct{}{}
	}
	return nil
}
