// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package classify holds the heuristic classifiers of the pipeline:
// project derivation, work relevance, triviality and text marker extraction.
// All matching is plain lowercase substring matching.
package classify

import (
	"strings"

	"github.com/samber/lo"

	"github.com/noldarim/worklog/internal/worklog/types"
)

// UnknownProject is used when no path information is available.
const UnknownProject = "unknown"

// ProjectFilter decides whether a project counts as work.
type ProjectFilter struct {
	Deny  []string
	Allow []string
}

// IsWork reports whether the project should be included.
// Deny wins over allow, and a name matching neither list is included.
func (f ProjectFilter) IsWork(project string) bool {
	name := strings.ToLower(project)
	if containsAny(name, f.Deny) {
		return false
	}
	if containsAny(name, f.Allow) {
		return true
	}
	return true
}

// ReadOnlyFunc reports whether a set of correlated tools only read state.
type ReadOnlyFunc func(tools []types.ToolInvocation) bool

// TrivialityFilter drops low-value activities before they are emitted.
type TrivialityFilter struct {
	Patterns  []string
	MinLength int // trimmed rune count below which a request is dropped, 0 disables
	ReadOnly  ReadOnlyFunc
}

// IsTrivial reports whether the request text or its tools mark the activity as noise.
func (f TrivialityFilter) IsTrivial(text string, tools []types.ToolInvocation) bool {
	if containsAny(strings.ToLower(text), f.Patterns) {
		return true
	}
	return len(tools) > 0 && f.ReadOnly != nil && f.ReadOnly(tools)
}

// TooShort reports whether the request carries too little text to summarize.
func (f TrivialityFilter) TooShort(text string) bool {
	return len([]rune(strings.TrimSpace(text))) < f.MinLength
}

// Discard combines IsTrivial and TooShort.
func (f TrivialityFilter) Discard(text string, tools []types.ToolInvocation) bool {
	return f.IsTrivial(text, tools) || f.TooShort(text)
}

// AllNamed returns a ReadOnlyFunc matching when every tool has one of the given names.
func AllNamed(names ...string) ReadOnlyFunc {
	return func(tools []types.ToolInvocation) bool {
		return lo.EveryBy(tools, func(t types.ToolInvocation) bool {
			return lo.Contains(names, t.Name)
		})
	}
}

// ContainsAny reports whether s contains any of the given lowercase substrings.
func ContainsAny(s string, needles []string) bool {
	return containsAny(strings.ToLower(s), needles)
}

func containsAny(lower string, needles []string) bool {
	return lo.SomeBy(needles, func(n string) bool {
		return n != "" && strings.Contains(lower, strings.ToLower(n))
	})
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n < 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
