// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package server exposes the work summary over HTTP. Every request runs the
// pipeline from scratch against its own clock reading; nothing is cached.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/noldarim/worklog/internal/config"
	"github.com/noldarim/worklog/internal/logger"
	"github.com/noldarim/worklog/internal/worklog/aggregate"
	"github.com/noldarim/worklog/internal/worklog/render"
)

func getLog() *zerolog.Logger {
	l := logger.GetServerLogger()
	return &l
}

// Summarizer runs the summary pipeline.
type Summarizer interface {
	Run(ctx context.Context, hours int) (aggregate.Result, error)
	Digest(res aggregate.Result) []string
	RenderOptions() render.Options
}

// Server is the read-only summary API server.
type Server struct {
	httpServer *http.Server
}

// New wires up the API server. It does not start listening; call Run for that.
func New(cfg *config.ServerConfig, svc Summarizer) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              cfg.Addr(),
			Handler:           NewRouter(svc),
			ReadHeaderTimeout: 5 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      60 * time.Second,
			IdleTimeout:       60 * time.Second,
		},
	}
}

// NewRouter returns the routes with the global middleware applied.
func NewRouter(svc Summarizer) http.Handler {
	h := NewHandlers(svc)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Recovery)
	r.Use(Logger)
	r.Use(Tracing)

	r.Get("/healthz", h.Healthz)
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/summary", h.GetSummary)
	})

	return r
}

// Addr returns the configured listen address.
func (s *Server) Addr() string {
	return s.httpServer.Addr
}

// Run serves until the context is cancelled or the server fails.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		getLog().Info().Str("addr", s.httpServer.Addr).Msg("API server listening")
		errCh <- s.httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
