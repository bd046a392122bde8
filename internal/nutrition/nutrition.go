// Package nutrition tracks the daily calorie log and the body-weight log.
package nutrition

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/meltforce/fitvision/internal/models"
)

// ErrInvalidInput is returned for values rejected before any state changes.
var ErrInvalidInput = errors.New("invalid input")

// DefaultCalorieGoal is the daily goal of a new profile.
const DefaultCalorieGoal = 2000

// Meal types.
const (
	Breakfast = "Breakfast"
	Lunch     = "Lunch"
	Dinner    = "Dinner"
	Snack     = "Snack"
	Scan      = "Scan"
)

// Macros are grams of protein, carbohydrate and fat.
type Macros struct {
	Protein int `json:"protein"`
	Carbs   int `json:"carbs"`
	Fat     int `json:"fat"`
}

// Add returns the element-wise sum.
func (m Macros) Add(o Macros) Macros {
	return Macros{Protein: m.Protein + o.Protein, Carbs: m.Carbs + o.Carbs, Fat: m.Fat + o.Fat}
}

// EstimateMacros splits kcal 25/45/30 across protein, carbs and fat
// (4, 4 and 9 kcal per gram) and rounds to whole grams.
func EstimateMacros(kcal int) Macros {
	c := float64(kcal)
	return Macros{
		Protein: int(math.Round(c * 0.25 / 4)),
		Carbs:   int(math.Round(c * 0.45 / 4)),
		Fat:     int(math.Round(c * 0.30 / 9)),
	}
}

// Item is one recognized food on a plate.
type Item struct {
	Name     string `json:"name"`
	Calories int    `json:"calories"`
}

// Analysis is what the meal analyzer returns for a photo. Macros is nil when
// the analyzer gave none.
type Analysis struct {
	MealName      string  `json:"mealName"`
	TotalCalories int     `json:"totalCalories"`
	Items         []Item  `json:"items"`
	Macros        *Macros `json:"macros,omitempty"`
}

// Meal is one logged meal.
type Meal struct {
	ID       uuid.UUID `json:"id"`
	Type     string    `json:"type"`
	Name     string    `json:"name"`
	Calories int       `json:"calories"`
	Items    []Item    `json:"items,omitempty"`
	Macros   Macros    `json:"macros"`
	Time     time.Time `json:"time"`
}

// Log is the calorie log of a single day.
type Log struct {
	Date        models.Date `json:"date"`
	CalorieGoal int         `json:"calorie_goal"`
	Consumed    int         `json:"consumed"`
	Macros      Macros      `json:"macros"`
	Meals       []Meal      `json:"meals"`
}

// NewLog returns an empty log for today with the default goal.
func NewLog(today models.Date) Log {
	return Log{Date: today, CalorieGoal: DefaultCalorieGoal, Meals: []Meal{}}
}

// Remaining returns calories left until the goal; negative when over.
func (l *Log) Remaining() int {
	return l.CalorieGoal - l.Consumed
}

// Rollover starts a fresh day when today differs from the log's date.
// It reports whether the log was cleared.
func (l *Log) Rollover(today models.Date) bool {
	if l.Date == today {
		return false
	}
	l.Date = today
	l.Consumed = 0
	l.Macros = Macros{}
	l.Meals = []Meal{}
	return true
}

// AddScan logs an analyzed photo as a meal. A result without positive
// calories is rejected and the log is left unchanged.
func (l *Log) AddScan(a Analysis, now time.Time) (Meal, error) {
	if a.TotalCalories <= 0 {
		return Meal{}, fmt.Errorf("%w: calories must be greater than 0, got %d", ErrInvalidInput, a.TotalCalories)
	}
	name := strings.TrimSpace(a.MealName)
	if name == "" {
		name = "Scanned meal"
	}
	macros := EstimateMacros(a.TotalCalories)
	if a.Macros != nil {
		macros = *a.Macros
	}
	return l.AddMeal(Meal{
		Type:     Scan,
		Name:     name,
		Calories: a.TotalCalories,
		Items:    a.Items,
		Macros:   macros,
		Time:     now,
	})
}

// AddMeal logs a meal. Missing macros are estimated from the calories and a
// missing id is generated.
func (l *Log) AddMeal(m Meal) (Meal, error) {
	if m.Calories <= 0 {
		return Meal{}, fmt.Errorf("%w: calories must be greater than 0, got %d", ErrInvalidInput, m.Calories)
	}
	if strings.TrimSpace(m.Name) == "" {
		return Meal{}, fmt.Errorf("%w: meal name is required", ErrInvalidInput)
	}
	if m.Type == "" {
		m.Type = Snack
	}
	if m.Macros == (Macros{}) {
		m.Macros = EstimateMacros(m.Calories)
	}
	if m.ID == uuid.Nil {
		m.ID = uuid.New()
	}
	l.Meals = append(l.Meals, m)
	l.Consumed += m.Calories
	l.Macros = l.Macros.Add(m.Macros)
	return m, nil
}
