// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package correlate joins user requests with the tool invocations that
// happened near them in time.
package correlate

import (
	"time"

	"github.com/samber/lo"

	"github.com/noldarim/worklog/internal/worklog/types"
)

// DefaultWindow is the correlation tolerance on either side of a request.
const DefaultWindow = 300 * time.Second

// Candidate is a request together with its correlated tool invocations,
// before the triviality filter has run.
type Candidate struct {
	Request types.Request
	Tools   []types.ToolInvocation
}

// Within reports whether |a-b| is strictly less than window.
func Within(a, b time.Time, window time.Duration) bool {
	d := a.Sub(b)
	if d < 0 {
		d = -d
	}
	return d < window
}

// Correlate returns, in input order, every tool whose timestamp lies
// strictly within window of the request. Tools before the request count.
func Correlate(req types.Request, tools []types.ToolInvocation, window time.Duration) []types.ToolInvocation {
	return lo.Filter(tools, func(t types.ToolInvocation, _ int) bool {
		return Within(t.Timestamp, req.Timestamp, window)
	})
}

// Pair correlates every request independently. A tool may be attributed
// to several requests when they all fall within the window.
func Pair(requests []types.Request, tools []types.ToolInvocation, window time.Duration) []Candidate {
	return lo.Map(requests, func(req types.Request, _ int) Candidate {
		return Candidate{Request: req, Tools: Correlate(req, tools, window)}
	})
}

// Names returns the tool names in invocation order.
func Names(tools []types.ToolInvocation) []string {
	return lo.Map(tools, func(t types.ToolInvocation, _ int) string {
		return t.Name
	})
}
