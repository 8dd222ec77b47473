// Package server exposes a loaded schema graph over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/tordrt/schemagraph/internal/errs"
	"github.com/tordrt/schemagraph/internal/logger"
	"github.com/tordrt/schemagraph/internal/reader"
	"github.com/tordrt/schemagraph/internal/schema"
)

// Source produces schema snapshots. *reader.Reader satisfies it.
type Source interface {
	ReadAll(ctx context.Context) (*schema.Schema, error)
	Owners(ctx context.Context) ([]string, error)
	Diagnostics() []reader.Diagnostic
}

// Config holds listener settings.
type Config struct {
	Addr            string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// Server serves the most recent snapshot read from a Source. Reads and
// refreshes are serialized because a Reader is single-session.
type Server struct {
	cfg    Config
	source Source
	log    *logger.Logger

	readMu sync.Mutex
	mu     sync.RWMutex
	snap   *schema.Schema
	diags  []reader.Diagnostic
	owners []string
	loaded time.Time
}

// New creates a server. Call Load before serving to populate the snapshot.
func New(cfg Config, source Source, log *logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{cfg: cfg, source: source, log: log}
}

// Load reads a fresh snapshot. On failure the previous snapshot stays.
func (s *Server) Load(ctx context.Context) error {
	s.readMu.Lock()
	defer s.readMu.Unlock()

	start := time.Now()
	snap, err := s.source.ReadAll(ctx)
	if err != nil {
		s.log.ErrorWith("schema read failed", err, nil)
		return err
	}
	owners, err := s.source.Owners(ctx)
	if err != nil {
		s.log.ErrorWith("owner listing failed", err, nil)
		return err
	}
	diags := s.source.Diagnostics()

	s.mu.Lock()
	s.snap, s.diags, s.owners, s.loaded = snap, diags, owners, time.Now()
	s.mu.Unlock()

	s.log.InfoWith("schema loaded", map[string]any{
		"tables":      len(snap.Tables),
		"views":       len(snap.Views),
		"owners":      len(owners),
		"routines":    len(snap.AllRoutines()),
		"diagnostics": len(diags),
		"duration_ms": time.Since(start).Milliseconds(),
	})
	return nil
}

func (s *Server) snapshot() (*schema.Schema, []reader.Diagnostic, time.Time) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap, s.diags, s.loaded
}

// Routes builds the HTTP handler.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", s.handleHealth)
	r.Post("/refresh", s.handleRefresh)

	r.Group(func(r chi.Router) {
		r.Use(s.requireSnapshot)
		r.Get("/schema", s.handleSchema)
		r.Get("/tables", s.handleTables)
		r.Get("/tables/{owner}/{name}", s.handleTable)
		r.Get("/views", s.handleViews)
		r.Get("/procedures", s.handleProcedures)
		r.Get("/owners", s.handleOwners)
		r.Get("/diagnostics", s.handleDiagnostics)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.cfg.Addr,
		Handler:      s.Routes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.InfoWith("server listening", map[string]any{"addr": s.cfg.Addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return errs.Wrap(errs.ErrKindConnectionFailed, "http server error", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down server gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errs.Wrap(errs.ErrKindTimeout, "server shutdown", err)
	}
	return nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Event().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("request_id", middleware.GetReqID(r.Context())).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) requireSnapshot(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if snap, _, _ := s.snapshot(); snap == nil {
			fail(w, http.StatusServiceUnavailable, nil, "schema not loaded")
			return
		}
		next.ServeHTTP(w, r)
	})
}
