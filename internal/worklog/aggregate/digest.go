// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package aggregate

import (
	"sort"
	"strings"

	"github.com/noldarim/worklog/internal/worklog/classify"
	"github.com/noldarim/worklog/internal/worklog/types"
)

// DefaultKeywords mark a request as substantial enough for the digest.
var DefaultKeywords = []string{
	"pr", "pull request", "merge", "deploy",
	"implement", "fix", "bug", "feature",
	"api", "endpoint", "migration", "refactor",
	"optimize", "performance", "review",
	"sync", "meeting", "discuss",
}

// DigestOptions tunes Digest.
type DigestOptions struct {
	MaxBullets   int
	PrefixLength int // runes of the lowercased request used for dedup
	TextLength   int // runes of the request kept in a bullet
	Keywords     []string
}

// DefaultDigestOptions returns the standard digest limits.
func DefaultDigestOptions() DigestOptions {
	return DigestOptions{
		MaxBullets:   10,
		PrefixLength: 50,
		TextLength:   150,
		Keywords:     DefaultKeywords,
	}
}

func (o DigestOptions) withDefaults() DigestOptions {
	d := DefaultDigestOptions()
	if o.MaxBullets > 0 {
		d.MaxBullets = o.MaxBullets
	}
	if o.PrefixLength > 0 {
		d.PrefixLength = o.PrefixLength
	}
	if o.TextLength > 0 {
		d.TextLength = o.TextLength
	}
	if len(o.Keywords) > 0 {
		d.Keywords = o.Keywords
	}
	return d
}

// Digest condenses a summary into at most MaxBullets "{project}: {text}"
// lines, most recent first. Requests sharing a lowercased prefix are only
// considered once, whether or not the first of them was substantial.
func Digest(s types.Summary, opts DigestOptions) []string {
	opts = opts.withDefaults()

	var all []types.Activity
	for _, project := range s.Projects() {
		for _, a := range s[project] {
			a.Project = project
			all = append(all, a)
		}
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].Timestamp.After(all[j].Timestamp)
	})

	seen := make(map[string]struct{})
	var bullets []string
	for _, a := range all {
		request := strings.TrimSpace(a.Request)

		key := strings.ToLower(classify.Truncate(request, opts.PrefixLength))
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}

		if !classify.ContainsAny(request, opts.Keywords) {
			continue
		}

		text := classify.Truncate(request, opts.TextLength)
		if text != request {
			text += "..."
		}
		bullets = append(bullets, a.Project+": "+text)

		if len(bullets) >= opts.MaxBullets {
			break
		}
	}
	return bullets
}
