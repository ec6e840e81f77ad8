package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/pbaille/katas/internal/clock"
	"github.com/pbaille/katas/internal/domain"
	"github.com/pbaille/katas/internal/logging"
	"github.com/pbaille/katas/internal/onehot"
	"github.com/pbaille/katas/internal/store"
)

// Server handles HTTP requests for the exercises
type Server struct {
	store *store.Store
	clock clock.Fetcher
	addr  string
	log   *slog.Logger
}

// New creates a new API server
func New(s *store.Store, c clock.Fetcher, addr string, log *slog.Logger) *Server {
	return &Server{store: s, clock: c, addr: addr, log: logging.OrDefault(log)}
}

// Run starts the HTTP server
func (s *Server) Run() error {
	s.log.Info("starting server", "addr", s.addr)
	return http.ListenAndServe(s.addr, s.Handler())
}

// Handler returns the router with middleware applied
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Post("/encode", s.encode)
	r.Get("/year", s.year)
	r.Get("/runs", s.listRuns)
	r.Get("/runs/{id}", s.getRun)

	return r
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"elapsed", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()),
		)
	})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// EncodeRequest is the request body for encoding labels
type EncodeRequest struct {
	Labels []string `json:"labels"`
	NoSave bool     `json:"no_save,omitempty"`
}

// EncodeResponse is the response for encoding labels
type EncodeResponse struct {
	Rows  []domain.EncodedRow `json:"rows"`
	Width int                 `json:"width"`
	RunID string              `json:"run_id,omitempty"`
}

func (s *Server) encode(w http.ResponseWriter, r *http.Request) {
	var req EncodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	rows, err := onehot.Encode(req.Labels...)
	if errors.Is(err, onehot.ErrNoCategories) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := EncodeResponse{Rows: rows, Width: len(rows[0].Code)}

	if !req.NoSave {
		run, err := s.store.RecordEncode(req.Labels, rows)
		if err != nil {
			s.log.Warn("record encode failed", "error", err)
		} else {
			resp.RunID = run.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// YearResponse is the response for a year lookup
type YearResponse struct {
	clock.Reading
	RunID string `json:"run_id,omitempty"`
}

func (s *Server) year(w http.ResponseWriter, r *http.Request) {
	reading, err := clock.Lookup(r.Context(), s.clock)
	if err != nil {
		s.log.Warn("year lookup failed", "error", err)
		writeError(w, http.StatusBadGateway, err.Error())
		return
	}

	resp := YearResponse{Reading: reading}

	if noSave, _ := strconv.ParseBool(r.URL.Query().Get("no_save")); !noSave {
		run, err := s.store.RecordYear(reading)
		if err != nil {
			s.log.Warn("record year failed", "error", err)
		} else {
			resp.RunID = run.ID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	limit := 20
	offset := 0

	if l := r.URL.Query().Get("limit"); l != "" {
		if n, err := strconv.Atoi(l); err == nil && n > 0 {
			limit = n
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if n, err := strconv.Atoi(o); err == nil && n >= 0 {
			offset = n
		}
	}

	kind := domain.RunKind(r.URL.Query().Get("kind"))
	switch kind {
	case "", domain.KindEncode, domain.KindYear:
	default:
		writeError(w, http.StatusBadRequest, fmt.Sprintf("unknown kind %q", kind))
		return
	}

	runs, err := s.store.ListRuns(kind, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if runs == nil {
		runs = []domain.Run{}
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"runs":   runs,
		"limit":  limit,
		"offset": offset,
	})
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.FindRun(chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, run)
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
