package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/meltforce/fitvision/internal/app"
	"github.com/meltforce/fitvision/internal/nutrition"
)

func (s *Server) handleNutrition(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Nutrition(r.Context()))
}

type addMealRequest struct {
	Type     string            `json:"type"`
	Name     string            `json:"name"`
	Calories int               `json:"calories"`
	Items    []nutrition.Item  `json:"items"`
	Macros   *nutrition.Macros `json:"macros"`
}

func (s *Server) handleAddMeal(w http.ResponseWriter, r *http.Request) {
	var req addMealRequest
	if !s.decode(w, r, &req) {
		return
	}
	m := nutrition.Meal{Type: req.Type, Name: req.Name, Calories: req.Calories, Items: req.Items}
	if req.Macros != nil {
		m.Macros = *req.Macros
	}
	meal, err := s.svc.AddMeal(r.Context(), m)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, meal)
}

type scanResponse struct {
	Meal     *nutrition.Meal     `json:"meal"`
	Analysis *nutrition.Analysis `json:"analysis"`
}

// handleScanMeal accepts a multipart upload with the photo in the "image" field.
func (s *Server) handleScanMeal(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "image too large"})
			return
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid multipart form: " + err.Error()})
		return
	}
	f, hdr, err := r.FormFile("image")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "image field required"})
		return
	}
	defer f.Close()

	image, err := io.ReadAll(f)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	mimeType := hdr.Header.Get("Content-Type")
	if mimeType == "" || mimeType == "application/octet-stream" {
		mimeType = http.DetectContentType(image)
	}

	meal, analysis, err := s.svc.ScanMeal(r.Context(), image, mimeType)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, scanResponse{Meal: meal, Analysis: analysis})
}

func (s *Server) handleWeight(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Weight(r.Context()))
}

// handleLogWeight accepts {"weight": 80.5} or {"weight": "80.5"} in the
// current display unit.
func (s *Server) handleLogWeight(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Weight json.RawMessage `json:"weight"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	raw := string(bytes.Trim(req.Weight, `"`))
	view, err := s.svc.LogWeight(r.Context(), raw)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.svc.Profile(r.Context()))
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req app.ProfileUpdate
	if !s.decode(w, r, &req) {
		return
	}
	view, err := s.svc.UpdateProfile(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleSetUnit(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Unit string `json:"unit"`
	}
	if !s.decode(w, r, &req) {
		return
	}
	view, err := s.svc.SetUnit(r.Context(), req.Unit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}
