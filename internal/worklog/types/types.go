// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package types defines the core types for the work activity pipeline.
// This package is designed to have no internal dependencies to avoid import cycles.
package types

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Source identifies the assistant whose logs produced an activity.
type Source string

const (
	SourceClaude Source = "claude"
	SourceCodex  Source = "codex"
	SourceJunie  Source = "junie"
)

// ErrInvalidTimestamp is returned when a timestamp is missing or cannot be parsed.
var ErrInvalidTimestamp = errors.New("invalid timestamp")

// Window is the run-scoped lookback horizon.
// Now is captured once per run and handed to every adapter.
type Window struct {
	Now      time.Time
	Lookback time.Duration
}

// NewWindow builds a window reaching back the given number of hours from now.
func NewWindow(now time.Time, hours int) Window {
	return Window{Now: now, Lookback: time.Duration(hours) * time.Hour}
}

// Cutoff returns the earliest instant still inside the window.
func (w Window) Cutoff() time.Time {
	return w.Now.Add(-w.Lookback)
}

// Contains reports whether t is at or after the cutoff.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Cutoff())
}

// Hours returns the lookback expressed in whole hours.
func (w Window) Hours() int {
	return int(w.Lookback / time.Hour)
}

// ToolInvocation is a normalized assistant-side tool call.
type ToolInvocation struct {
	Timestamp time.Time
	Name      string
	Input     map[string]any
	CWD       string
}

// Request is a normalized user-authored turn.
type Request struct {
	Timestamp time.Time
	Text      string
	CWD       string
}

// FileRef is a file touched by a tool. When Tool is empty the ref is an
// opaque string (an open editor file or a command-derived placeholder).
type FileRef struct {
	Tool string `json:"tool,omitempty" yaml:"tool,omitempty"`
	Path string `json:"file" yaml:"file"`
}

// String returns the path, or the opaque value for string refs.
func (f FileRef) String() string {
	return f.Path
}

// Activity is a single normalized, correlated and filtered unit of work.
type Activity struct {
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"` // always the originating request's timestamp
	Request   string    `json:"request" yaml:"request"`
	Tools     []string  `json:"tools,omitempty" yaml:"tools,omitempty"`
	Files     []FileRef `json:"files,omitempty" yaml:"files,omitempty"`
	Project   string    `json:"project" yaml:"project"`
	Source    Source    `json:"source" yaml:"source"`
	SessionID string    `json:"session_id" yaml:"session_id"`

	// Junie only
	Chain string `json:"chain,omitempty" yaml:"chain,omitempty"`
	State string `json:"state,omitempty" yaml:"state,omitempty"`
}

// Summary maps a project name to its activities.
type Summary map[string][]Activity

// Projects returns the project names in lexical order.
func (s Summary) Projects() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Count returns the total number of activities across all projects.
func (s Summary) Count() int {
	n := 0
	for _, activities := range s {
		n += len(activities)
	}
	return n
}

// Add appends an activity under the given project.
func (s Summary) Add(project string, a Activity) {
	s[project] = append(s[project], a)
}

// Clone returns a copy that shares no slices with s.
func (s Summary) Clone() Summary {
	out := make(Summary, len(s))
	for project, activities := range s {
		out[project] = append([]Activity(nil), activities...)
	}
	return out
}

// Adapter mines one assistant's log store into activities.
// Each assistant (Claude, Codex, Junie) has its own adapter implementation.
type Adapter interface {
	// Name returns the source tag (e.g., "claude", "codex")
	Name() Source

	// WorkSummary returns the in-window activities grouped by project.
	// A missing log store yields an empty summary, not an error.
	WorkSummary(ctx context.Context, window Window) (Summary, error)
}

var naiveLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05",
}

// ParseTimestamp parses an ISO 8601 timestamp.
// Timestamps without a zone offset are read as UTC.
func ParseTimestamp(ts string) (time.Time, error) {
	ts = strings.TrimSpace(ts)
	if ts == "" {
		return time.Time{}, fmt.Errorf("%w: empty", ErrInvalidTimestamp)
	}
	// RFC3339Nano accepts both fractional and whole seconds
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		return t, nil
	}
	for _, layout := range naiveLayouts {
		if t, err := time.ParseInLocation(layout, ts, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidTimestamp, ts)
}
