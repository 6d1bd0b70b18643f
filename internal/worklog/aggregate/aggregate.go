// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package aggregate merges per-source summaries into one chronological
// summary and condenses it into a digest.
package aggregate

import (
	"context"
	"fmt"
	"sort"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/noldarim/worklog/internal/logger"
	"github.com/noldarim/worklog/internal/worklog/types"
)

var tracer = otel.Tracer("github.com/noldarim/worklog/internal/worklog/aggregate")

// Merge returns a new summary holding everything in into followed by the
// activities of s, each stamped with src. Neither input is modified.
func Merge(into types.Summary, src types.Source, s types.Summary) types.Summary {
	out := into.Clone()
	for _, project := range s.Projects() {
		for _, a := range s[project] {
			a.Source = src
			a.Project = project
			a.Tools = append([]string(nil), a.Tools...)
			a.Files = append([]types.FileRef(nil), a.Files...)
			out[project] = append(out[project], a)
		}
	}
	return out
}

// Builder accumulates source summaries and produces the merged result.
type Builder struct {
	summary types.Summary
	counts  map[types.Source]int
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{
		summary: types.Summary{},
		counts:  make(map[types.Source]int),
	}
}

// Add merges one source's summary.
func (b *Builder) Add(src types.Source, s types.Summary) *Builder {
	b.summary = Merge(b.summary, src, s)
	b.counts[src] += s.Count()
	return b
}

// Counts returns the number of activities contributed by each source.
func (b *Builder) Counts() map[types.Source]int {
	out := make(map[types.Source]int, len(b.counts))
	for k, v := range b.counts {
		out[k] = v
	}
	return out
}

// Build sorts every project ascending by timestamp. Activities with equal
// timestamps keep their merge order. A zero timestamp is an error.
func (b *Builder) Build() (types.Summary, error) {
	out := b.summary.Clone()
	for _, project := range out.Projects() {
		activities := out[project]
		for _, a := range activities {
			if a.Timestamp.IsZero() {
				return nil, fmt.Errorf("%w: activity %q in project %s has no timestamp",
					types.ErrInvalidTimestamp, a.Request, project)
			}
		}
		sort.SliceStable(activities, func(i, j int) bool {
			return activities[i].Timestamp.Before(activities[j].Timestamp)
		})
	}
	return out, nil
}

// SourceCount is the number of activities one adapter produced.
type SourceCount struct {
	Source types.Source `json:"source" yaml:"source"`
	Count  int          `json:"count" yaml:"count"`
}

// Result is the outcome of one collection run.
type Result struct {
	Window  types.Window
	Summary types.Summary
	Counts  []SourceCount // in adapter order
}

// Total returns the number of merged activities.
func (r Result) Total() int {
	return r.Summary.Count()
}

// Aggregator runs a fixed set of adapters over one window.
type Aggregator struct {
	Adapters []types.Adapter
}

// New creates an aggregator over the given adapters, which run in order.
func New(adapters ...types.Adapter) *Aggregator {
	return &Aggregator{Adapters: adapters}
}

// Collect runs every adapter sequentially against the same window and merges
// their output. Any adapter error aborts the run.
func (ag *Aggregator) Collect(ctx context.Context, window types.Window) (Result, error) {
	log := logger.GetAggregateLogger()
	b := NewBuilder()
	order := make([]types.Source, 0, len(ag.Adapters))

	for _, adapter := range ag.Adapters {
		src := adapter.Name()

		spanCtx, span := tracer.Start(ctx, "adapter.WorkSummary")
		span.SetAttributes(
			attribute.String("worklog.source", string(src)),
			attribute.Int("worklog.lookback_hours", window.Hours()),
		)

		s, err := adapter.WorkSummary(spanCtx, window)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			span.End()
			return Result{}, fmt.Errorf("%s adapter failed: %w", src, err)
		}

		n := s.Count()
		span.SetAttributes(attribute.Int("worklog.activities", n))
		span.End()

		log.Debug().Str("source", string(src)).Int("activities", n).Int("projects", len(s)).Msg("adapter finished")
		order = append(order, src)
		b.Add(src, s)
	}

	summary, err := b.Build()
	if err != nil {
		return Result{}, err
	}

	perSource := b.Counts()
	counts := make([]SourceCount, 0, len(order))
	for _, src := range order {
		counts = append(counts, SourceCount{Source: src, Count: perSource[src]})
	}

	return Result{Window: window, Summary: summary, Counts: counts}, nil
}
