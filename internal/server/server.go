// Package server exposes batch scrapes and run history over HTTP.
package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/contact-scraper/internal/model"
	"github.com/sells-group/contact-scraper/internal/query"
	"github.com/sells-group/contact-scraper/internal/store"
)

// Scraper runs one batch.
type Scraper interface {
	Scrape(ctx context.Context, businessType, location string, limit int) (model.ResultFile, error)
}

// Options tunes a Server.
type Options struct {
	AllowedOrigins    []string
	DefaultMaxResults int
}

// Server handles API requests. Scrapes run in the background against the
// context given to New and are recorded in the store.
type Server struct {
	ctx     context.Context
	store   store.Store
	scraper Scraper
	opts    Options
	wg      sync.WaitGroup
}

// New returns a Server. ctx bounds every background scrape.
func New(ctx context.Context, st store.Store, sc Scraper, opts Options) *Server {
	if opts.DefaultMaxResults <= 0 {
		opts.DefaultMaxResults = 100
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{ctx: ctx, store: st, scraper: sc, opts: opts}
}

// Handler returns the API router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", s.health)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/scrape", s.scrape)
		r.Get("/runs", s.listRuns)
		r.Get("/runs/{id}", s.getRun)
	})
	return r
}

// Wait blocks until every background scrape has finished.
func (s *Server) Wait() {
	s.wg.Wait()
}

// ScrapeRequest is the POST /v1/scrape body. Query is split into business
// type and location unless both are given explicitly.
type ScrapeRequest struct {
	Query        string `json:"query"`
	BusinessType string `json:"business_type"`
	Location     string `json:"location"`
	MaxResults   int    `json:"max_results"`
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) scrape(w http.ResponseWriter, r *http.Request) {
	var req ScrapeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	in, err := s.resolve(req)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	run, err := s.store.CreateRun(r.Context(), in)
	if err != nil {
		zap.L().Error("server: create run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not create run")
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.execute(run)
	}()

	writeJSON(w, http.StatusAccepted, map[string]string{
		"run_id": run.ID,
		"status": string(run.Status),
	})
}

func (s *Server) resolve(req ScrapeRequest) (store.NewRun, error) {
	in := store.NewRun{
		Query:        strings.TrimSpace(req.Query),
		BusinessType: strings.TrimSpace(req.BusinessType),
		Location:     strings.ToLower(strings.TrimSpace(req.Location)),
		MaxResults:   req.MaxResults,
	}
	if in.MaxResults <= 0 {
		in.MaxResults = s.opts.DefaultMaxResults
	}

	if in.BusinessType == "" {
		if in.Query == "" {
			return in, eris.New("query or business_type is required")
		}
		p, err := query.Parse(in.Query)
		if err != nil {
			return in, err
		}
		in.BusinessType = p.BusinessType
		if in.Location == "" {
			in.Location = p.Location
		}
	}
	if in.Location == "" {
		in.Location = query.DefaultLocation
	}
	if in.Query == "" {
		in.Query = in.BusinessType + " " + in.Location
	}
	return in, nil
}

func (s *Server) execute(run *model.Run) {
	log := zap.L().With(zap.String("run_id", run.ID), zap.String("query", run.Query))

	rf, err := s.scraper.Scrape(s.ctx, run.BusinessType, run.Location, run.MaxResults)
	if err != nil {
		log.Error("server: scrape failed", zap.Error(err))
	}
	if rerr := store.RecordOutcome(s.ctx, s.store, run.ID, rf.Results, err); rerr != nil {
		log.Error("server: record outcome", zap.Error(rerr))
		return
	}
	if err == nil && s.ctx.Err() == nil {
		log.Info("server: scrape complete", zap.Int("records", len(rf.Results)))
	}
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := store.RunFilter{
		Status:       model.RunStatus(q.Get("status")),
		BusinessType: q.Get("business_type"),
		Location:     q.Get("location"),
	}
	var err error
	if filter.Limit, err = intParam(q.Get("limit")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}
	if filter.Offset, err = intParam(q.Get("offset")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid offset")
		return
	}

	runs, err := s.store.ListRuns(r.Context(), filter)
	if err != nil {
		zap.L().Error("server: list runs", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not list runs")
		return
	}
	// Listings omit records; fetch a run by id for its results.
	for i := range runs {
		runs[i].Records = nil
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.store.GetRun(r.Context(), chi.URLParam(r, "id"))
	if eris.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "run not found")
		return
	}
	if err != nil {
		zap.L().Error("server: get run", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not load run")
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, eris.Errorf("invalid integer %q", v)
	}
	return n, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Debug("server: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
