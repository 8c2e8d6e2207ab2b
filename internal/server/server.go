// Package server exposes run triggering and run history over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	singleflight "golang.org/x/sync/singleflight"
	rate "golang.org/x/time/rate"

	"workshopmods/internal/httpx"
	"workshopmods/internal/metrics"
	"workshopmods/internal/pipeline"
	"workshopmods/internal/source"
	"workshopmods/internal/store"
	"workshopmods/internal/telemetry"
)

// TriggerFunc runs one pipeline variant to completion.
type TriggerFunc func(ctx context.Context, v pipeline.Variant) (*pipeline.Run, error)

// ErrShuttingDown is returned by Runs.Do after Close.
var ErrShuttingDown = errors.New("server is shutting down")

// Runs collapses concurrent requests for the same variant into one run.
// HTTP triggers and scheduled runs share it. Close stops new runs and
// Wait blocks until the ones in flight have finished.
type Runs struct {
	trigger TriggerFunc
	group   singleflight.Group

	mu       sync.Mutex
	closed   bool
	inflight sync.WaitGroup
}

// NewRuns returns a Runs executing t.
func NewRuns(t TriggerFunc) *Runs {
	return &Runs{trigger: t}
}

// Do runs v, or waits for the run of v already in flight. shared reports
// whether the result was handed to more than one caller.
func (r *Runs) Do(ctx context.Context, v pipeline.Variant) (run *pipeline.Run, shared bool, err error) {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil, false, ErrShuttingDown
	}
	r.inflight.Add(1)
	r.mu.Unlock()
	defer r.inflight.Done()

	res, err, shared := r.group.Do(string(v), func() (any, error) {
		return r.trigger(ctx, v)
	})
	if err != nil {
		return nil, shared, err
	}
	return res.(*pipeline.Run), shared, nil
}

// Close makes later calls to Do fail with ErrShuttingDown.
func (r *Runs) Close() {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
}

// Wait blocks until every Do call has returned or timeout elapses. It
// reports whether all runs finished.
func (r *Runs) Wait(timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		r.inflight.Wait()
		close(done)
	}()
	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}

// History reads stored runs.
type History interface {
	ListRuns(ctx context.Context, limit int) ([]store.RunRecord, error)
	GetRun(ctx context.Context, id string) (*store.RunRecord, error)
}

// Options configures New.
type Options struct {
	Log  zerolog.Logger
	Runs *Runs
	// History is nil when no database is configured.
	History History
	Metrics *metrics.Metrics
	// Limiter guards the trigger endpoint. Defaults to 5 requests per second.
	Limiter *rate.Limiter
}

const defaultListLimit = 20

type server struct {
	runs    *Runs
	history History
	limiter *rate.Limiter
}

// New returns the HTTP handler for serve mode.
func New(opts Options) http.Handler {
	s := &server{
		runs:    opts.Runs,
		history: opts.History,
		limiter: opts.Limiter,
	}
	if s.limiter == nil {
		s.limiter = rate.NewLimiter(rate.Every(time.Second), 5)
	}

	r := chi.NewRouter()
	r.Use(requestIDMiddleware(opts.Log))
	r.Use(telemetry.HTTP(opts.Log))

	r.Get("/healthz", s.healthHandler)
	r.Get("/api/runs", s.listRunsHandler)
	r.Get("/api/runs/{id}", s.getRunHandler)
	r.Post("/api/runs/{variant}", s.triggerHandler)
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}
	return r
}

func (s *server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) listRunsHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		httpx.Write(w, r, httpx.NotFound("run history disabled"))
		return
	}
	limit := defaultListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			httpx.Write(w, r, httpx.BadRequest("invalid limit"))
			return
		}
		limit = n
	}
	runs, err := s.history.ListRuns(r.Context(), limit)
	if err != nil {
		httpx.Write(w, r, httpx.Internal(err))
		return
	}
	if runs == nil {
		runs = []store.RunRecord{}
	}
	writeJSON(w, http.StatusOK, runs)
}

func (s *server) getRunHandler(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		httpx.Write(w, r, httpx.NotFound("run history disabled"))
		return
	}
	run, err := s.history.GetRun(r.Context(), chi.URLParam(r, "id"))
	if errors.Is(err, store.ErrNotFound) {
		httpx.Write(w, r, httpx.NotFound("run not found"))
		return
	}
	if err != nil {
		httpx.Write(w, r, httpx.Internal(err))
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *server) triggerHandler(w http.ResponseWriter, r *http.Request) {
	if !s.limiter.Allow() {
		httpx.Write(w, r, httpx.TooManyRequests("rate limit exceeded"))
		return
	}
	v, err := pipeline.ParseVariant(chi.URLParam(r, "variant"))
	if err != nil {
		httpx.Write(w, r, httpx.BadRequest(err.Error()))
		return
	}
	// The run outlives the first caller's request so collapsed callers still
	// get its result.
	ctx := context.WithoutCancel(r.Context())
	run, shared, err := s.runs.Do(ctx, v)
	if shared {
		w.Header().Set("X-Run-Shared", "true")
	}
	if err != nil {
		writeRunError(w, r, v, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func writeRunError(w http.ResponseWriter, r *http.Request, v pipeline.Variant, err error) {
	var se *httpx.StatusError
	switch {
	case errors.Is(err, ErrShuttingDown):
		se = httpx.Unavailable(err.Error())
	case errors.Is(err, source.ErrSourceNotFound),
		errors.Is(err, source.ErrSourceFormatInvalid),
		errors.Is(err, pipeline.ErrNoItems):
		se = httpx.Unprocessable(err.Error())
	default:
		se = httpx.Internal(err)
	}
	httpx.Write(w, r, se.WithDetails(map[string]string{"variant": string(v)}))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
