package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/meltforce/fitvision/internal/app"
	"github.com/meltforce/fitvision/internal/catalog"
	"github.com/meltforce/fitvision/internal/history"
	"github.com/meltforce/fitvision/internal/models"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handlePrograms(w http.ResponseWriter, r *http.Request) {
	programs, err := s.svc.Programs(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, programs)
}

func (s *Server) handleWorkout(w http.ResponseWriter, r *http.Request) {
	wk, err := s.svc.Workout(r.Context(), catalog.WorkoutID(chi.URLParam(r, "id")))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wk)
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.State(r.Context()))
}

type selectProgramRequest struct {
	ProgramID catalog.ProgramID `json:"program_id"`
	RestDays  int               `json:"rest_days"`
	Goal      string            `json:"goal"`
}

func (s *Server) handleSelectProgram(w http.ResponseWriter, r *http.Request) {
	var req selectProgramRequest
	if !s.decode(w, r, &req) {
		return
	}
	view, err := s.svc.SelectProgram(r.Context(), req.ProgramID, req.RestDays, req.Goal)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleChangeProgram(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.ChangeProgram(r.Context()))
}

func (s *Server) handleSetRestDays(w http.ResponseWriter, r *http.Request) {
	var req struct {
		RestDays int `json:"rest_days"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	view, err := s.svc.SetRestDays(r.Context(), req.RestDays)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleResetProgress(w http.ResponseWriter, r *http.Request) {
	s.svc.ResetProgress(r.Context())
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

func (s *Server) handleToday(w http.ResponseWriter, r *http.Request) {
	view, err := s.svc.Today(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

type toggleSetRequest struct {
	ExerciseID catalog.ExerciseID `json:"exercise_id"`
	SetIndex   int                `json:"set_index"`
}

func (s *Server) handleToggleSet(w http.ResponseWriter, r *http.Request) {
	var req toggleSetRequest
	if !s.decode(w, r, &req) {
		return
	}
	if req.ExerciseID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise_id is required"})
		return
	}
	res, err := s.svc.ToggleSet(r.Context(), req.ExerciseID, req.SetIndex)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleFinalize(w http.ResponseWriter, r *http.Request) {
	rec, err := s.svc.Finalize(r.Context())
	if errors.Is(err, history.ErrAlreadyLogged) {
		writeJSON(w, http.StatusConflict, map[string]any{"error": err.Error(), "record": rec})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleWeek(w http.ResponseWriter, r *http.Request) {
	days, err := s.svc.Week(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleSchedule(w http.ResponseWriter, r *http.Request) {
	today := s.svc.Date()
	from, to, err := parseDateRange(r, today, today.AddDays(13))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	days, err := s.svc.Schedule(r.Context(), from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleCalendar(w http.ResponseWriter, r *http.Request) {
	today := s.svc.Date()
	year, month := today.Year, today.Month
	if v := r.URL.Query().Get("month"); v != "" {
		t, err := time.Parse("2006-01", v)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid month: expected YYYY-MM"})
			return
		}
		year, month = t.Year(), t.Month()
	}
	days, err := s.svc.Month(r.Context(), year, month)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, days)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	today := s.svc.Date()
	from, to, err := parseDateRange(r, today.AddDays(-(app.MaxRangeDays - 1)), today)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	records, err := s.svc.History(r.Context(), from, to)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.svc.Stats(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleRestStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.RestRemaining())
}

type restRequest struct {
	Seconds int `json:"seconds"`
}

func (s *Server) handleRestStart(w http.ResponseWriter, r *http.Request) {
	var req restRequest
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	writeJSON(w, http.StatusOK, s.svc.StartRest(time.Duration(req.Seconds)*time.Second))
}

func (s *Server) handleRestCancel(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": s.svc.CancelRest()})
}

func (s *Server) handleRestExtend(w http.ResponseWriter, r *http.Request) {
	req := restRequest{Seconds: 30}
	if r.ContentLength != 0 && !s.decode(w, r, &req) {
		return
	}
	if req.Seconds <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "seconds must be positive"})
		return
	}
	status, err := s.svc.AddRestTime(time.Duration(req.Seconds) * time.Second)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

// decode reads a JSON request body into v. On failure it writes a 400 and
// returns false.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return false
	}
	return true
}

// writeError maps service errors to HTTP status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, app.ErrInvalidInput),
		errors.Is(err, catalog.ErrUnknownProgram),
		errors.Is(err, catalog.ErrUnknownWorkout):
		status = http.StatusBadRequest
	case errors.Is(err, history.ErrAlreadyLogged),
		errors.Is(err, app.ErrRestDay),
		errors.Is(err, app.ErrOnboarding),
		errors.Is(err, app.ErrNoActiveRest),
		errors.Is(err, app.ErrReadOnly):
		status = http.StatusConflict
	case errors.Is(err, app.ErrCollaboratorUnavailable):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// parseDateRange reads the start and end query parameters as YYYY-MM-DD,
// falling back to the given defaults.
func parseDateRange(r *http.Request, defFrom, defTo models.Date) (from, to models.Date, err error) {
	from, to = defFrom, defTo
	if v := r.URL.Query().Get("start"); v != "" {
		from, err = models.ParseDate(v)
		if err != nil {
			return from, to, fmt.Errorf("invalid start date: %w", err)
		}
	}
	if v := r.URL.Query().Get("end"); v != "" {
		to, err = models.ParseDate(v)
		if err != nil {
			return from, to, fmt.Errorf("invalid end date: %w", err)
		}
	}
	return from, to, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
