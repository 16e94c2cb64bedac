// Package server exposes page generation over HTTP.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/santiagomed/pagegen/core"
	"github.com/santiagomed/pagegen/llm"
	"github.com/santiagomed/pagegen/logger"
	"github.com/santiagomed/pagegen/store"
)

// Generation waits on several sequential provider calls.
const requestTimeout = 5 * time.Minute

// Stats reports usage counts. It is optional.
type Stats interface {
	UserStats(ctx context.Context, userID int64) (store.UserStats, error)
	GlobalStats(ctx context.Context) (store.GlobalStats, error)
}

type Options struct {
	Addr         string
	Service      *core.Service
	Templates    store.Repository
	Stats        Stats
	DefaultModel llm.Model
	Logger       logger.Logger
}

type Server struct {
	router     *chi.Mux
	httpServer *http.Server
	opts       Options
	log        logger.Logger
}

func New(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logger.NewNullLogger()
	}
	s := &Server{
		router: chi.NewRouter(),
		opts:   opts,
		log:    opts.Logger,
	}
	s.setupMiddleware()
	s.setupRoutes()
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.requestLogger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(requestTimeout))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	s.router.Handle("/metrics", promhttp.Handler())

	s.router.Route("/api", func(r chi.Router) {
		r.Post("/generate", s.handleGenerate)
		r.Post("/preview", s.handlePreview)

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", s.handleListTemplates)
			r.Get("/{id}", s.handleGetTemplate)
		})

		r.Route("/pages/{id}", func(r chi.Router) {
			r.Put("/", s.handleUpdatePage)
			r.Post("/duplicate", s.handleDuplicatePage)
			r.Get("/export", s.handleExportPage)
		})

		r.Get("/stats", s.handleStats)
	})
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.WithField("request_id", middleware.GetReqID(r.Context())).
			WithField("status", ww.Status()).
			WithField("duration", time.Since(start).String()).
			Info(r.Method + " " + r.URL.Path)
	})
}

// Start serves until Shutdown is called.
func (s *Server) Start() error {
	s.log.WithField("addr", s.httpServer.Addr).Info("Starting HTTP server")
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("server failed to start: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("Shutting down HTTP server gracefully...")
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}
	s.log.Info("HTTP server stopped")
	return nil
}

// Router returns the chi router instance.
func (s *Server) Router() *chi.Mux {
	return s.router
}
