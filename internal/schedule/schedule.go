// Package schedule maps calendar days to the workouts of a rotating program.
//
// Resolution depends only on its arguments. Changing the start date or the
// rest-day count changes the answer for past and future days alike; the
// workout history is the only record of what was actually done.
package schedule

import (
	"math"
	"time"

	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/models"
)

// NoWorkoutScheduled is the id returned for rest days.
const NoWorkoutScheduled catalog.WorkoutID = ""

// Resolve returns the workout scheduled on target for a program started on
// start with restDays rest days after every workout. ok is false on rest days.
//
// Days before start resolve to the first workout of the rotation.
func Resolve(p catalog.Program, start models.Date, restDays int, target models.Date) (id catalog.WorkoutID, ok bool) {
	n := len(p.Schedule)
	if n == 0 {
		return NoWorkoutScheduled, false
	}

	diff := target.DaysSince(start)
	if diff < 0 {
		return p.Schedule[0], true
	}
	if restDays <= 0 {
		return p.Schedule[diff%n], true
	}

	// The first workout falls on start; the next one is restDays+1 days
	// later. Compare before adding so huge rest-day counts cannot overflow.
	if restDays >= diff {
		if diff == 0 {
			return p.Schedule[0], true
		}
		return NoWorkoutScheduled, false
	}
	stride := 1 + restDays
	pos := diff
	if stride <= diff/n {
		pos = diff % (n * stride)
	}
	if pos%stride != 0 {
		return NoWorkoutScheduled, false
	}
	return p.Schedule[pos/stride], true
}

// Plan binds a program to a user's start date and rest-day setting.
type Plan struct {
	Program  catalog.Program
	Start    models.Date
	RestDays int
}

// Day is one resolved calendar day.
type Day struct {
	Date      models.Date       `json:"date"`
	WorkoutID catalog.WorkoutID `json:"workout_id,omitempty"`
	Scheduled bool              `json:"scheduled"`
	IsToday   bool              `json:"is_today,omitempty"`
}

// Resolve resolves a single day.
func (p Plan) Resolve(target models.Date) (catalog.WorkoutID, bool) {
	return Resolve(p.Program, p.Start, p.RestDays, target)
}

// CycleLength is the number of calendar days before the rotation repeats.
// It saturates at math.MaxInt.
func (p Plan) CycleLength() int {
	n := len(p.Program.Schedule)
	if n == 0 {
		return 0
	}
	rest := max(p.RestDays, 0)
	if rest >= math.MaxInt/n-1 {
		return math.MaxInt
	}
	return n * (1 + rest)
}

func (p Plan) day(d models.Date) Day {
	id, ok := p.Resolve(d)
	return Day{Date: d, WorkoutID: id, Scheduled: ok}
}

// Range resolves every day from from to to, inclusive. An inverted range is empty.
func (p Plan) Range(from, to models.Date) []Day {
	n := to.DaysSince(from) + 1
	if n <= 0 {
		return nil
	}
	days := make([]Day, 0, n)
	for i := range n {
		days = append(days, p.day(from.AddDays(i)))
	}
	return days
}

// Week resolves the seven days of the Sunday-started week containing today.
func (p Plan) Week(today models.Date) []Day {
	sunday := today.AddDays(-int(today.Weekday()))
	days := p.Range(sunday, sunday.AddDays(6))
	for i := range days {
		days[i].IsToday = days[i].Date == today
	}
	return days
}

// Month resolves every day of the given month.
func (p Plan) Month(year int, month time.Month) []Day {
	first := models.NewDate(year, month, 1)
	last := models.NewDate(year, month+1, 0)
	return p.Range(first, last)
}

// maxLookahead bounds how far Next searches, in days.
const maxLookahead = 100 * 366

// Next returns the first scheduled day strictly after after. It reports
// false when the program is empty or the next workout is more than
// maxLookahead days away.
func (p Plan) Next(after models.Date) (Day, bool) {
	if len(p.Program.Schedule) == 0 {
		return Day{}, false
	}
	diff := after.DaysSince(p.Start)
	if diff < 0 || p.RestDays <= 0 {
		return p.day(after.AddDays(1)), true
	}
	var offset int
	if p.RestDays >= diff {
		if p.RestDays-diff >= maxLookahead {
			return Day{}, false
		}
		offset = p.RestDays - diff + 1
	} else {
		stride := 1 + p.RestDays
		offset = stride - diff%stride
	}
	if offset > maxLookahead {
		return Day{}, false
	}
	return p.day(after.AddDays(offset)), true
}
