// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package adapters builds the source adapters enabled in configuration.
package adapters

import (
	"github.com/samber/lo"

	"github.com/noldarim/worklog/internal/config"
	"github.com/noldarim/worklog/internal/worklog/adapters/claude"
	"github.com/noldarim/worklog/internal/worklog/adapters/codex"
	"github.com/noldarim/worklog/internal/worklog/adapters/junie"
	"github.com/noldarim/worklog/internal/worklog/classify"
	"github.com/noldarim/worklog/internal/worklog/types"
)

// FromConfig returns the enabled adapters in the fixed order claude, codex, junie.
// Lists left empty in configuration keep each adapter's built-in defaults.
func FromConfig(cfg *config.AppConfig) []types.Adapter {
	var out []types.Adapter

	if sc := cfg.Sources.Claude; sc.Enabled {
		opts := claude.DefaultOptions(sc.Root)
		applySource(sc, &opts.Anchor, &opts.Projects, &opts.Trivial)
		opts.Trivial.MinLength = cfg.Filters.MinRequestLength
		opts.CorrelationWindow = cfg.Correlation.Window
		out = append(out, claude.New(opts))
	}

	if sc := cfg.Sources.Codex; sc.Enabled {
		opts := codex.DefaultOptions(sc.Root)
		applySource(sc, &opts.Anchor, &opts.Projects, &opts.Trivial)
		opts.Trivial.MinLength = cfg.Filters.MinRequestLength
		opts.CorrelationWindow = cfg.Correlation.Window
		out = append(out, codex.New(opts))
	}

	if sc := cfg.Sources.Junie; sc.Enabled {
		opts := junie.DefaultOptions(sc.Root)
		applySource(sc, &opts.Anchor, &opts.Projects, &opts.Trivial)
		opts.CorrelationWindow = cfg.Correlation.Window
		out = append(out, junie.New(opts))
	}

	return out
}

// Names returns the sources of the given adapters, in order.
func Names(adapters []types.Adapter) []types.Source {
	return lo.Map(adapters, func(a types.Adapter, _ int) types.Source {
		return a.Name()
	})
}

func applySource(sc config.SourceConfig, anchor *string, projects *classify.ProjectFilter, trivial *classify.TrivialityFilter) {
	if sc.Anchor != "" {
		*anchor = sc.Anchor
	}
	if len(sc.Deny) > 0 {
		projects.Deny = sc.Deny
	}
	if len(sc.Allow) > 0 {
		projects.Allow = sc.Allow
	}
	if len(sc.Trivial) > 0 {
		trivial.Patterns = sc.Trivial
	}
}
