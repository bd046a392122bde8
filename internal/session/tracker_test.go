package session

import (
	"encoding/json"
	"testing"

	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/models"
)

var today = models.NewDate(2026, 10, 15)

func workout(sets ...int) catalog.Workout {
	w := catalog.Workout{ID: "w"}
	for i, n := range sets {
		w.Exercises = append(w.Exercises, catalog.Exercise{
			ID:   catalog.ExerciseID(string(rune('a' + i))),
			Sets: n,
		})
	}
	return w
}

// TestToggleFlipsMembership verifies toggling twice restores the original state.
func TestToggleFlipsMembership(t *testing.T) {
	tr := NewTracker(today)
	key := SetKey{ExerciseID: "a", SetIndex: 0}

	if !tr.Toggle(key) || !tr.IsComplete(key) {
		t.Fatal("first toggle should complete the set")
	}
	if tr.Toggle(key) || tr.IsComplete(key) {
		t.Fatal("second toggle should clear the set")
	}
	if tr.Count() != 0 {
		t.Errorf("count = %d, want 0", tr.Count())
	}
}

// TestToggleOutOfRange verifies arbitrary keys are stored without validation or panics.
func TestToggleOutOfRange(t *testing.T) {
	var tr Tracker
	tr.Toggle(SetKey{ExerciseID: "ghost", SetIndex: 99})
	tr.Toggle(SetKey{ExerciseID: "a", SetIndex: -1})
	if tr.Count() != 2 {
		t.Errorf("count = %d, want 2", tr.Count())
	}
}

// TestCompletionRatio verifies the ratio counts only sets that belong to the workout.
func TestCompletionRatio(t *testing.T) {
	w := workout(4, 3, 3)
	tr := NewTracker(today)
	tr.Toggle(SetKey{"a", 0})
	tr.Toggle(SetKey{"a", 1})
	tr.Toggle(SetKey{"b", 2})
	tr.Toggle(SetKey{"a", 7})     // beyond the target sets
	tr.Toggle(SetKey{"other", 0}) // not in this workout

	if got := tr.CompletionRatio(w); got != 0.3 {
		t.Errorf("ratio = %v, want 0.3", got)
	}
}

// TestCompletionRatioZeroSets verifies the 0/0 case yields 0, not NaN.
func TestCompletionRatioZeroSets(t *testing.T) {
	tr := NewTracker(today)
	tr.Toggle(SetKey{"a", 0})
	if got := tr.CompletionRatio(workout(0, 0)); got != 0 {
		t.Errorf("ratio = %v, want 0", got)
	}
	if got := tr.CompletionRatio(catalog.Workout{}); got != 0 {
		t.Errorf("empty workout ratio = %v, want 0", got)
	}
}

// TestCompletionRatioFull verifies a fully completed workout yields exactly 1.
func TestCompletionRatioFull(t *testing.T) {
	w := workout(2, 1)
	tr := NewTracker(today)
	tr.Toggle(SetKey{"a", 0})
	tr.Toggle(SetKey{"a", 1})
	tr.Toggle(SetKey{"b", 0})
	if got := tr.CompletionRatio(w); got != 1 {
		t.Errorf("ratio = %v, want 1", got)
	}
}

// TestRollover verifies yesterday's checkmarks are cleared on a new day and
// kept on the same day.
func TestRollover(t *testing.T) {
	tr := NewTracker(today)
	tr.Toggle(SetKey{"a", 0})

	if tr.Rollover(today) {
		t.Error("same-day rollover should not clear")
	}
	if tr.Count() != 1 {
		t.Fatalf("count = %d, want 1", tr.Count())
	}

	tomorrow := today.AddDays(1)
	if !tr.Rollover(tomorrow) {
		t.Error("next-day rollover should report dropped sets")
	}
	if tr.Count() != 0 || tr.ActiveDate() != tomorrow {
		t.Errorf("after rollover count=%d active=%v", tr.Count(), tr.ActiveDate())
	}
	if tr.Rollover(tomorrow.AddDays(1)) {
		t.Error("rollover of an empty tracker should report nothing dropped")
	}
}

// TestTrackerJSON verifies the tracker round-trips through its snapshot encoding.
func TestTrackerJSON(t *testing.T) {
	tr := NewTracker(today)
	tr.Toggle(SetKey{"b", 1})
	tr.Toggle(SetKey{"a", 2})

	data, err := json.Marshal(tr)
	if err != nil {
		t.Fatal(err)
	}
	want := `{"active_date":"2026-10-15","completed":[{"exercise_id":"a","set_index":2},{"exercise_id":"b","set_index":1}]}`
	if string(data) != want {
		t.Errorf("json = %s", data)
	}

	back := &Tracker{}
	if err := json.Unmarshal(data, back); err != nil {
		t.Fatal(err)
	}
	if back.ActiveDate() != today || !back.IsComplete(SetKey{"a", 2}) || back.Count() != 2 {
		t.Errorf("round trip = %+v", back.Keys())
	}
}
