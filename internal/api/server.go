package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/utakatalp/goal-forecaster/internal/store"
	"github.com/utakatalp/goal-forecaster/internal/telemetry"
)

const defaultAccuracyDays = 30

// Analyzer produces predictions.
type Analyzer interface {
	Analyze(ctx context.Context, fixtureID int) (store.PredictionRecord, error)
	AnalyzeDate(ctx context.Context, day time.Time) ([]store.PredictionRecord, error)
	Validate(ctx context.Context, fixtureID int) (store.PredictionRecord, error)
}

// Predictions reads stored predictions.
type Predictions interface {
	Prediction(ctx context.Context, fixtureID int) (store.PredictionRecord, error)
	PredictionsByDate(ctx context.Context, day time.Time) ([]store.PredictionRecord, error)
	PredictionAccuracy(ctx context.Context, since time.Time) (store.Accuracy, error)
	Counts(ctx context.Context) (map[string]int, error)
}

type Server struct {
	analyzer    Analyzer
	predictions Predictions
	router      *mux.Router
	now         func() time.Time
}

func NewServer(a Analyzer, p Predictions) *Server {
	s := &Server{
		analyzer:    a,
		predictions: p,
		router:      mux.NewRouter(),
		now:         time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/health", s.healthHandler).Methods("GET")
	api.HandleFunc("/analyze", s.analyzeHandler).Methods("POST")
	api.HandleFunc("/predictions", s.predictionsHandler).Methods("GET")
	api.HandleFunc("/predictions/{fixtureID:[0-9]+}", s.predictionHandler).Methods("GET")
	api.HandleFunc("/predictions/{fixtureID:[0-9]+}/validate", s.validateHandler).Methods("POST")
	api.HandleFunc("/accuracy", s.accuracyHandler).Methods("GET")
}

// Handler wraps the router with CORS, access logging and panic recovery.
func (s *Server) Handler(allowedOrigins []string) http.Handler {
	c := cors.New(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
		MaxAge:         86400,
	})

	var h http.Handler = s.router
	h = c.Handler(h)
	h = handlers.CombinedLoggingHandler(logWriter{}, h)
	h = handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(h)
	return h
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context, addr string, allowedOrigins []string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.Handler(allowedOrigins),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	counts, err := s.predictions.Counts(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"time":   s.now().UTC(),
		"counts": counts,
	})
}

type analyzeRequest struct {
	FixtureID int    `json:"fixture_id"`
	Date      string `json:"date"`
}

func (s *Server) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	switch {
	case req.FixtureID > 0:
		rec, err := s.analyzer.Analyze(r.Context(), req.FixtureID)
		if err != nil {
			s.storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	case req.Date != "":
		day, err := parseDate(req.Date, s.now())
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		recs, err := s.analyzer.AnalyzeDate(r.Context(), day)
		if err != nil {
			s.storeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, nonNil(recs))
	default:
		writeError(w, http.StatusBadRequest, "fixture_id or date is required")
	}
}

func (s *Server) predictionsHandler(w http.ResponseWriter, r *http.Request) {
	day, err := parseDate(r.URL.Query().Get("date"), s.now())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	recs, err := s.predictions.PredictionsByDate(r.Context(), day)
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nonNil(recs))
}

func fixtureID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["fixtureID"])
	return id
}

func (s *Server) predictionHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := s.predictions.Prediction(r.Context(), fixtureID(r))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) validateHandler(w http.ResponseWriter, r *http.Request) {
	rec, err := s.analyzer.Validate(r.Context(), fixtureID(r))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *Server) accuracyHandler(w http.ResponseWriter, r *http.Request) {
	days, err := parsePositive("days", r.URL.Query().Get("days"), defaultAccuracyDays)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	acc, err := s.predictions.PredictionAccuracy(r.Context(), s.now().UTC().AddDate(0, 0, -days))
	if err != nil {
		s.storeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, acc)
}

func (s *Server) storeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, store.ErrNotFinished):
		writeError(w, http.StatusConflict, err.Error())
	default:
		telemetry.Errorf("api: %v", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func nonNil(recs []store.PredictionRecord) []store.PredictionRecord {
	if recs == nil {
		return []store.PredictionRecord{}
	}
	return recs
}
