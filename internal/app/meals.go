package app

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/models"
	"github.com/meltforce/fitvision/internal/nutrition"
)

// Nutrition returns today's calorie log.
func (s *Service) Nutrition(ctx context.Context) nutrition.Log {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enter(ctx)
	l := s.state.Nutrition
	l.Meals = append([]nutrition.Meal(nil), l.Meals...)
	return l
}

// ScanMeal analyzes a meal photo and logs the result. The analyzer runs
// outside the state lock; its result is merged in a separate turn. On any
// failure the state is unchanged.
func (s *Service) ScanMeal(ctx context.Context, image []byte, mimeType string) (*nutrition.Meal, *nutrition.Analysis, error) {
	if err := s.writable(); err != nil {
		return nil, nil, err
	}
	if len(image) == 0 {
		return nil, nil, fmt.Errorf("%w: empty image", ErrInvalidInput)
	}
	a, err := s.analyzer.Analyze(ctx, image, mimeType)
	if err != nil {
		s.metrics.MealScanned("unavailable")
		s.log.Warn("meal analysis failed", "error", err)
		return nil, nil, fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err)
	}
	if a == nil {
		s.metrics.MealScanned("unavailable")
		return nil, nil, fmt.Errorf("%w: empty analysis", ErrCollaboratorUnavailable)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin()
	meal, err := s.state.Nutrition.AddScan(*a, s.now())
	if err != nil {
		s.metrics.MealScanned("invalid")
		s.save(ctx)
		return nil, a, err
	}
	s.metrics.MealScanned("ok")
	s.save(ctx)
	return &meal, a, nil
}

// AddMeal logs a manually entered meal.
func (s *Service) AddMeal(ctx context.Context, m nutrition.Meal) (*nutrition.Meal, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enter(ctx)
	if m.Time.IsZero() {
		m.Time = s.now()
	}
	meal, err := s.state.Nutrition.AddMeal(m)
	if err != nil {
		return nil, err
	}
	s.save(ctx)
	return &meal, nil
}

// WeightPoint is a weigh-in in the display unit.
type WeightPoint struct {
	Date  models.Date `json:"date"`
	Value float64     `json:"value"`
}

// WeightView is the weight log in the user's unit.
type WeightView struct {
	Unit     nutrition.Unit `json:"unit"`
	Entries  []WeightPoint  `json:"entries"`
	Latest   *WeightPoint   `json:"latest,omitempty"`
	Target   float64        `json:"target,omitempty"`
	ToTarget float64        `json:"to_target,omitempty"`
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// weightView builds the view. The caller holds s.mu.
func (s *Service) weightView() *WeightView {
	u := s.state.Settings.Unit
	v := &WeightView{Unit: u, Entries: make([]WeightPoint, 0, len(s.state.Weight.Entries))}
	for _, e := range s.state.Weight.Entries {
		v.Entries = append(v.Entries, WeightPoint{Date: e.Date, Value: round1(nutrition.ToUnit(e.Kg, u))})
	}
	if n := len(v.Entries); n > 0 {
		latest := v.Entries[n-1]
		v.Latest = &latest
	}
	if t := s.state.Profile.TargetWeightKg; t > 0 {
		v.Target = round1(nutrition.ToUnit(t, u))
		if v.Latest != nil {
			v.ToTarget = round1(v.Latest.Value - v.Target)
		}
	}
	return v
}

// Weight returns the weight log.
func (s *Service) Weight(ctx context.Context) *WeightView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enter(ctx)
	return s.weightView()
}

// LogWeight records today's weight. raw is in the user's display unit.
func (s *Service) LogWeight(ctx context.Context, raw string) (*WeightView, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	v, err := nutrition.ParseWeight(raw)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	today := s.enter(ctx)
	if _, err := s.state.Weight.Add(today, nutrition.FromUnit(v, s.state.Settings.Unit)); err != nil {
		return nil, err
	}
	s.save(ctx)
	return s.weightView(), nil
}

// ProfileView is the profile page.
type ProfileView struct {
	Profile     Profile      `json:"profile"`
	Settings    Settings     `json:"settings"`
	Program     ProgramState `json:"program"`
	CalorieGoal int          `json:"calorie_goal"`
	Workouts    int          `json:"total_workouts"`
}

// profileView builds the view. The caller holds s.mu.
func (s *Service) profileView() *ProfileView {
	return &ProfileView{
		Profile:     s.state.Profile,
		Settings:    s.state.Settings,
		Program:     s.state.Program,
		CalorieGoal: s.state.Nutrition.CalorieGoal,
		Workouts:    s.state.History.Len(),
	}
}

// Profile returns the profile page.
func (s *Service) Profile(ctx context.Context) *ProfileView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enter(ctx)
	return s.profileView()
}

// ProfileUpdate carries profile edits. Zero CalorieGoal, Unit and Equipment
// keep the current values.
type ProfileUpdate struct {
	Profile     Profile           `json:"profile"`
	CalorieGoal int               `json:"calorie_goal"`
	Unit        nutrition.Unit    `json:"unit"`
	Equipment   catalog.Equipment `json:"equipment"`
}

func (u ProfileUpdate) validate() error {
	var errs []error
	if u.Profile.Age < 0 || u.Profile.Age > 150 {
		errs = append(errs, fmt.Errorf("age %d out of range", u.Profile.Age))
	}
	if w := u.Profile.TargetWeightKg; math.IsNaN(w) || math.IsInf(w, 0) || w < 0 {
		errs = append(errs, errors.New("target weight must be a positive number"))
	}
	if u.CalorieGoal < 0 {
		errs = append(errs, fmt.Errorf("calorie goal %d must be positive", u.CalorieGoal))
	}
	if u.Unit != "" && !u.Unit.Valid() {
		errs = append(errs, fmt.Errorf("unknown unit %q", u.Unit))
	}
	if u.Equipment != "" && !u.Equipment.Valid() {
		errs = append(errs, fmt.Errorf("unknown equipment %q", u.Equipment))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// UpdateProfile replaces the profile and applies the given settings.
func (s *Service) UpdateProfile(ctx context.Context, u ProfileUpdate) (*ProfileView, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	if err := u.validate(); err != nil {
		return nil, err
	}
	u.Profile.Name = strings.TrimSpace(u.Profile.Name)
	u.Profile.Email = strings.TrimSpace(u.Profile.Email)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin()
	s.state.Profile = u.Profile
	if u.CalorieGoal > 0 {
		s.state.Nutrition.CalorieGoal = u.CalorieGoal
	}
	if u.Unit != "" {
		s.state.Settings.Unit = u.Unit
	}
	if u.Equipment != "" {
		s.state.Settings.Equipment = u.Equipment
	}
	s.save(ctx)
	return s.profileView(), nil
}

// SetUnit switches the weight display unit.
func (s *Service) SetUnit(ctx context.Context, raw string) (*ProfileView, error) {
	if err := s.writable(); err != nil {
		return nil, err
	}
	u, err := nutrition.ParseUnit(raw)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.begin()
	s.state.Settings.Unit = u
	s.save(ctx)
	return s.profileView(), nil
}
