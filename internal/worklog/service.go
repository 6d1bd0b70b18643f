// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package worklog composes the adapters, the aggregator and the renderers
// into a single summary run.
package worklog

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noldarim/worklog/internal/config"
	"github.com/noldarim/worklog/internal/logger"
	"github.com/noldarim/worklog/internal/worklog/adapters"
	"github.com/noldarim/worklog/internal/worklog/aggregate"
	"github.com/noldarim/worklog/internal/worklog/render"
	"github.com/noldarim/worklog/internal/worklog/types"
)

var tracer = otel.Tracer("github.com/noldarim/worklog/internal/worklog")

// sourceLabels name each source in progress output.
var sourceLabels = map[types.Source]string{
	types.SourceClaude: "Claude Code sessions",
	types.SourceCodex:  "Codex sessions",
	types.SourceJunie:  "Junie sessions",
}

// Service runs the summary pipeline. It holds no state between runs.
type Service struct {
	cfg        *config.AppConfig
	aggregator *aggregate.Aggregator
	clock      func() time.Time
	progress   io.Writer
}

// Option customizes a Service.
type Option func(*Service)

// WithClock sets the time source used to capture a run's Now.
func WithClock(clock func() time.Time) Option {
	return func(s *Service) { s.clock = clock }
}

// WithProgress sets where progress lines are written. Nil silences them.
func WithProgress(w io.Writer) Option {
	return func(s *Service) { s.progress = w }
}

// WithAdapters replaces the adapters built from configuration.
func WithAdapters(list ...types.Adapter) Option {
	return func(s *Service) { s.aggregator = aggregate.New(list...) }
}

// NewService builds a service from configuration.
func NewService(cfg *config.AppConfig, opts ...Option) *Service {
	s := &Service{
		cfg:        cfg,
		aggregator: aggregate.New(adapters.FromConfig(cfg)...),
		clock:      time.Now,
		progress:   io.Discard,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.progress == nil {
		s.progress = io.Discard
	}
	return s
}

// Run collects every enabled source over the last hours hours. Now is
// captured once and shared by all adapters.
func (s *Service) Run(ctx context.Context, hours int) (aggregate.Result, error) {
	if hours <= 0 {
		return aggregate.Result{}, fmt.Errorf("hours must be positive, got %d", hours)
	}

	runID := uuid.NewString()
	log := logger.GetAggregateLogger().With().Str("run_id", runID).Logger()

	ctx, span := tracer.Start(ctx, "worklog.Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("worklog.run_id", runID),
		attribute.Int("worklog.lookback_hours", hours),
	)

	window := types.NewWindow(s.clock(), hours)
	fmt.Fprintf(s.progress, "Fetching work activities from the last %d hours...\n\n", hours)
	log.Debug().Time("now", window.Now).Time("cutoff", window.Cutoff()).Msg("starting run")

	res, err := s.aggregator.Collect(ctx, window)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return aggregate.Result{}, err
	}

	for i, c := range res.Counts {
		label, ok := sourceLabels[c.Source]
		if !ok {
			label = string(c.Source)
		}
		suffix := ""
		if i == len(res.Counts)-1 {
			suffix = "\n"
		}
		fmt.Fprintf(s.progress, "%s: %d activities\n%s", label, c.Count, suffix)
	}

	span.SetAttributes(attribute.Int("worklog.activities", res.Total()))
	log.Info().Int("activities", res.Total()).Int("projects", len(res.Summary)).Msg("run complete")
	return res, nil
}

// Digest condenses a result using the configured digest limits.
func (s *Service) Digest(res aggregate.Result) []string {
	d := s.cfg.Digest
	return aggregate.Digest(res.Summary, aggregate.DigestOptions{
		MaxBullets:   d.MaxBullets,
		PrefixLength: d.PrefixLength,
		TextLength:   d.TextLength,
		Keywords:     d.Keywords,
	})
}

// RenderOptions returns the configured text rendering options.
func (s *Service) RenderOptions() render.Options {
	r := s.cfg.Render
	return render.Options{
		RequestWidth: r.RequestWidth,
		MaxFiles:     r.MaxFiles,
		TimeFormat:   r.TimeFormat,
		Location:     r.Location(),
	}
}

// Summarize runs the pipeline and writes it to w in the given format.
func (s *Service) Summarize(ctx context.Context, w io.Writer, hours int, format render.Format, opts render.Options) error {
	res, err := s.Run(ctx, hours)
	if err != nil {
		return err
	}

	var bullets []string
	if format != render.FormatLog {
		bullets = s.Digest(res)
	}
	return render.Write(w, format, res, bullets, opts)
}
