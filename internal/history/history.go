// Package history keeps the log of finalized workouts and derives statistics
// from it. A record is written once per calendar day and never edited.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/models"
)

var (
	// ErrAlreadyLogged is returned when a workout was already finalized for the day.
	ErrAlreadyLogged = errors.New("workout already logged for this date")
	// ErrDuplicateDate means a log holds more than one record for a date.
	ErrDuplicateDate = errors.New("duplicate history date")
)

// Record is one finalized workout.
type Record struct {
	Date          models.Date       `json:"date"`
	WorkoutID     catalog.WorkoutID `json:"workout_id"`
	WorkoutName   string            `json:"workout_name"`
	DurationMin   int               `json:"duration_min"`
	SetsCompleted int               `json:"sets_completed"`
}

// Log is the append-only workout history, kept in date order.
type Log struct {
	records []Record
}

// NewLog builds a log from stored records. Records are sorted by date; a
// second record for the same date is rejected with ErrDuplicateDate.
func NewLog(records []Record) (*Log, error) {
	sorted := slices.Clone(records)
	sortByDate(sorted)
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Date == sorted[i-1].Date {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDate, sorted[i].Date)
		}
	}
	return &Log{records: sorted}, nil
}

// Records returns a copy of the records, oldest first.
func (l *Log) Records() []Record {
	return slices.Clone(l.records)
}

// Len returns the number of records.
func (l *Log) Len() int {
	return len(l.records)
}

// Get returns the record for date.
func (l *Log) Get(date models.Date) (Record, bool) {
	i, ok := l.search(date)
	if !ok {
		return Record{}, false
	}
	return l.records[i], true
}

// Has reports whether a record exists for date.
func (l *Log) Has(date models.Date) bool {
	_, ok := l.search(date)
	return ok
}

// Finalize logs w as completed today with sets finished sets. If a record
// for today already exists the log is unchanged and ErrAlreadyLogged is returned.
func (l *Log) Finalize(w catalog.Workout, sets int, today models.Date) (Record, error) {
	i, ok := l.search(today)
	if ok {
		return l.records[i], fmt.Errorf("finalizing %s: %w", today, ErrAlreadyLogged)
	}
	rec := Record{
		Date:          today,
		WorkoutID:     w.ID,
		WorkoutName:   w.Name,
		DurationMin:   w.DurationMin,
		SetsCompleted: max(sets, 0),
	}
	l.records = slices.Insert(l.records, i, rec)
	return rec, nil
}

// Reset drops every record.
func (l *Log) Reset() {
	l.records = nil
}

func (l *Log) search(date models.Date) (int, bool) {
	return slices.BinarySearchFunc(l.records, date, func(r Record, d models.Date) int {
		return r.Date.DaysSince(d)
	})
}

func (l *Log) MarshalJSON() ([]byte, error) {
	if l.records == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(l.records)
}

func (l *Log) UnmarshalJSON(b []byte) error {
	var records []Record
	if err := json.Unmarshal(b, &records); err != nil {
		return err
	}
	parsed, err := NewLog(records)
	if err != nil {
		return err
	}
	*l = *parsed
	return nil
}

func sortByDate(records []Record) {
	slices.SortStableFunc(records, func(a, b Record) int {
		return a.Date.DaysSince(b.Date)
	})
}

// CurrentStreak counts consecutive days of training, walking back from the
// most recent record on or before today and stopping at the first gap of
// more than one day. Records dated after today are ignored.
func CurrentStreak(records []Record, today models.Date) int {
	var dates []models.Date
	for _, r := range records {
		if !r.Date.After(today) {
			dates = append(dates, r.Date)
		}
	}
	if len(dates) == 0 {
		return 0
	}
	slices.SortFunc(dates, func(a, b models.Date) int { return b.DaysSince(a) })
	dates = slices.Compact(dates)

	streak := 1
	for i := 1; i < len(dates); i++ {
		if dates[i-1].DaysSince(dates[i]) > 1 {
			break
		}
		streak++
	}
	return streak
}

// MonthlyCount returns the number of records in the given month.
func MonthlyCount(records []Record, year int, month time.Month) int {
	n := 0
	for _, r := range records {
		if r.Date.Year == year && r.Date.Month == month {
			n++
		}
	}
	return n
}

// ByDate indexes records by date for calendar lookups.
func ByDate(records []Record) (map[models.Date]Record, error) {
	m := make(map[models.Date]Record, len(records))
	for _, r := range records {
		if _, dup := m[r.Date]; dup {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDate, r.Date)
		}
		m[r.Date] = r
	}
	return m, nil
}

// Between returns the records dated from from to to, inclusive, oldest first.
func Between(records []Record, from, to models.Date) []Record {
	var out []Record
	for _, r := range records {
		if !r.Date.Before(from) && !r.Date.After(to) {
			out = append(out, r)
		}
	}
	sortByDate(out)
	return out
}

// Summary is the training overview shown on the profile and stats pages.
type Summary struct {
	Total     int     `json:"total"`
	ThisWeek  int     `json:"this_week"`
	ThisMonth int     `json:"this_month"`
	Streak    int     `json:"streak"`
	Last      *Record `json:"last,omitempty"`
}

// Summarize computes the Summary as of today. ThisWeek covers the last seven
// days including today.
func Summarize(records []Record, today models.Date) Summary {
	s := Summary{
		Total:     len(records),
		ThisWeek:  len(Between(records, today.AddDays(-6), today)),
		ThisMonth: MonthlyCount(records, today.Year, today.Month),
		Streak:    CurrentStreak(records, today),
	}
	for _, r := range records {
		if r.Date.After(today) {
			continue
		}
		if s.Last == nil || r.Date.After(s.Last.Date) {
			rec := r
			s.Last = &rec
		}
	}
	return s
}
