package server

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/meltforce/fitvision/internal/app"
	"github.com/meltforce/fitvision/internal/metrics"
)

// maxUploadBytes bounds meal photo uploads.
const maxUploadBytes = 10 << 20

// Server holds dependencies for HTTP handlers.
type Server struct {
	svc       *app.Service
	metrics   *metrics.Manager
	gatherer  prometheus.Gatherer
	log       *slog.Logger
	tailscale WhoIser
	router    chi.Router
}

// New creates a new Server with all routes configured. A nil gatherer
// disables /metrics.
func New(svc *app.Service, m *metrics.Manager, gatherer prometheus.Gatherer, log *slog.Logger) *Server {
	s := &Server{
		svc:      svc,
		metrics:  m,
		gatherer: gatherer,
		log:      log,
		router:   chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Mount attaches another handler, such as the MCP endpoint, under pattern.
func (s *Server) Mount(pattern string, h http.Handler) {
	s.router.Mount(pattern, h)
}

func (s *Server) routes() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(RequestLogging(s.log, s.metrics))
	s.router.Use(CORS)
	s.router.Use(s.identity)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/me", s.handleMe)

		r.Get("/catalog/programs", s.handlePrograms)
		r.Get("/catalog/workouts/{id}", s.handleWorkout)

		r.Get("/state", s.handleState)
		r.Post("/program", s.handleSelectProgram)
		r.Delete("/program", s.handleChangeProgram)
		r.Put("/program/rest-days", s.handleSetRestDays)
		r.Post("/progress/reset", s.handleResetProgress)

		r.Get("/today", s.handleToday)
		r.Post("/session/sets", s.handleToggleSet)
		r.Post("/session/finalize", s.handleFinalize)

		r.Get("/schedule/week", s.handleWeek)
		r.Get("/schedule", s.handleSchedule)
		r.Get("/calendar", s.handleCalendar)
		r.Get("/history", s.handleHistory)
		r.Get("/stats", s.handleStats)

		r.Get("/rest", s.handleRestStatus)
		r.Post("/rest/start", s.handleRestStart)
		r.Post("/rest/cancel", s.handleRestCancel)
		r.Post("/rest/extend", s.handleRestExtend)

		r.Get("/nutrition", s.handleNutrition)
		r.Post("/nutrition/meals", s.handleAddMeal)
		r.Post("/nutrition/scan", s.handleScanMeal)

		r.Get("/weight", s.handleWeight)
		r.Post("/weight", s.handleLogWeight)

		r.Get("/profile", s.handleProfile)
		r.Put("/profile", s.handleUpdateProfile)
		r.Put("/settings/unit", s.handleSetUnit)
	})

	if s.gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
}
