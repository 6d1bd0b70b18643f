// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package codex mines Codex CLI rollout transcripts (~/.codex/sessions)
// into work activities.
package codex

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/noldarim/worklog/internal/logger"
	"github.com/noldarim/worklog/internal/worklog/classify"
	"github.com/noldarim/worklog/internal/worklog/correlate"
	"github.com/noldarim/worklog/internal/worklog/discovery"
	"github.com/noldarim/worklog/internal/worklog/jsonl"
	"github.com/noldarim/worklog/internal/worklog/types"
)

const (
	// IDEPreamble starts messages sent from an IDE integration.
	IDEPreamble = "# Context from my IDE setup:"
	// RequestMarker precedes the actual user request in IDE messages.
	RequestMarker = "## My request for Codex:"
)

var (
	DefaultDeny  = []string{"claude", "mcp", "config", "plugin", "dotfiles"}
	DefaultAllow = []string{"blueprint", "smile-app", "workbench", "optimizer", "converter", "playbook"}

	DefaultTrivial = []string{
		"settings.json",
		".run.xml",
		"configuration",
		"typo",
		"console.log",
		"formatting",
		"rename",
		".gitignore",
		"helper script",
		"utility script",
		"ls -la",
		"cd ",
		"pwd",
	}
)

var (
	shellTools = []string{"shell_command", "shell"}
	fileTools  = []string{"write_file", "read_file", "edit_file", "shell_command", "shell"}

	// Extensions that make a shell command worth recording as a file reference.
	sourceExtensions = []string{".py", ".java", ".ts", ".json", ".xml"}

	// Prefixes of shell commands that only inspect the workspace.
	inspectPrefixes = []string{"ls", "cd", "pwd", "cat"}
)

var rolloutFiles = discovery.MustMatcher("rollout-*.jsonl")

func getLog() *zerolog.Logger {
	l := logger.GetAdapterLogger().With().Str("source", string(types.SourceCodex)).Logger()
	return &l
}

// Options configures the adapter.
type Options struct {
	Root              string
	Anchor            string
	Projects          classify.ProjectFilter
	Trivial           classify.TrivialityFilter
	CorrelationWindow time.Duration
}

// DefaultOptions returns the built-in classifier lists for the given root.
func DefaultOptions(root string) Options {
	return Options{
		Root:   root,
		Anchor: "Projects",
		Projects: classify.ProjectFilter{
			Deny:  DefaultDeny,
			Allow: DefaultAllow,
		},
		Trivial: classify.TrivialityFilter{
			Patterns:  DefaultTrivial,
			MinLength: 5,
			ReadOnly:  InspectOnly,
		},
		CorrelationWindow: correlate.DefaultWindow,
	}
}

// InspectOnly reports whether every tool only reads files or runs an
// inspection shell command (ls, cd, pwd, cat).
func InspectOnly(tools []types.ToolInvocation) bool {
	return lo.EveryBy(tools, func(t types.ToolInvocation) bool {
		if t.Name == "read_file" {
			return true
		}
		if !lo.Contains(shellTools, t.Name) {
			return false
		}
		cmd := strings.TrimSpace(shellCommand(t.Input))
		return lo.SomeBy(inspectPrefixes, func(p string) bool {
			return strings.HasPrefix(cmd, p)
		})
	})
}

// Adapter implements types.Adapter for Codex rollouts.
type Adapter struct {
	opts Options
}

// New creates a new Codex adapter instance.
func New(opts Options) *Adapter {
	if opts.CorrelationWindow <= 0 {
		opts.CorrelationWindow = correlate.DefaultWindow
	}
	return &Adapter{opts: opts}
}

func (a *Adapter) Name() types.Source {
	return types.SourceCodex
}

// WorkSummary scans the date partitions covering the window.
func (a *Adapter) WorkSummary(ctx context.Context, window types.Window) (types.Summary, error) {
	summary := types.Summary{}
	log := getLog()

	if !discovery.Exists(a.opts.Root) {
		log.Debug().Str("root", a.opts.Root).Msg("log store not found, skipping")
		return summary, nil
	}

	for _, dir := range PartitionDirs(a.opts.Root, window) {
		files, err := rolloutFiles.List(dir, discovery.Files)
		if err != nil {
			log.Warn().Err(err).Str("dir", dir).Msg("failed to list rollouts")
			continue
		}

		for _, path := range files {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			for _, activity := range a.parseRollout(path, window) {
				if !a.opts.Projects.IsWork(activity.Project) {
					continue
				}
				summary.Add(activity.Project, activity)
			}
		}
	}

	return summary, nil
}

// PartitionDirs returns the YYYY/MM/DD directories to scan, newest first:
// hours/24 + 2 days counting back from the window's local date.
func PartitionDirs(root string, window types.Window) []string {
	days := window.Hours()/24 + 2
	today := window.Now.Local()
	y, m, d := today.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, today.Location())

	dirs := make([]string, 0, days)
	for i := 0; i < days; i++ {
		day := start.AddDate(0, 0, -i)
		dirs = append(dirs, filepath.Join(root,
			fmt.Sprintf("%04d", day.Year()),
			fmt.Sprintf("%02d", int(day.Month())),
			fmt.Sprintf("%02d", day.Day()),
		))
	}
	return dirs
}

// parseRollout turns one rollout file into activities.
func (a *Adapter) parseRollout(path string, window types.Window) []types.Activity {
	log := getLog()

	lines, err := jsonl.ReadFile(path)
	if err != nil {
		log.Debug().Err(err).Str("file", path).Msg("unreadable rollout")
	}

	var (
		cwd      string
		metaSeen bool
		requests []types.Request
		tools    []types.ToolInvocation
	)

	for _, line := range lines {
		rec, ok := parseRecord(line.Data)
		if !ok {
			log.Debug().Str("file", path).Int("line", line.Number).Msg("skipping malformed line")
			continue
		}

		ts, err := types.ParseTimestamp(rec.Timestamp)
		if err != nil || !window.Contains(ts) {
			continue
		}

		switch rec.Type {
		case recordSessionMeta:
			// the first in-window session_meta names the project, even without a cwd
			if !metaSeen {
				metaSeen = true
				cwd = rec.Payload.Get("cwd").String()
			}
		case recordEventMsg:
			if req, ok := extractRequest(rec, ts); ok {
				requests = append(requests, req)
			}
		case recordResponseItem:
			if tool, ok := extractToolCall(rec, ts); ok {
				tools = append(tools, tool)
			}
		}
	}

	project := classify.UnknownProject
	if cwd != "" {
		project = classify.ProjectFromCWD(cwd, a.opts.Anchor)
	}

	sessionID := filepath.Base(path)
	var activities []types.Activity
	for _, c := range correlate.Pair(requests, tools, a.opts.CorrelationWindow) {
		if a.opts.Trivial.Discard(c.Request.Text, c.Tools) {
			continue
		}
		activities = append(activities, types.Activity{
			Timestamp: c.Request.Timestamp,
			Request:   c.Request.Text,
			Tools:     correlate.Names(c.Tools),
			Files:     fileRefs(c.Tools),
			Project:   project,
			SessionID: sessionID,
		})
	}
	return activities
}

// extractRequest returns the user request of a user_message event.
// IDE messages keep only the text after the request marker, and are
// dropped when the marker is missing.
func extractRequest(rec record, ts time.Time) (types.Request, bool) {
	if rec.Payload.Get("type").String() != payloadUserMessage {
		return types.Request{}, false
	}

	text, ok := classify.AfterMarker(rec.Payload.Get("message").String(), IDEPreamble, RequestMarker)
	if !ok {
		return types.Request{}, false
	}
	return types.Request{Timestamp: ts, Text: text}, true
}

func extractToolCall(rec record, ts time.Time) (types.ToolInvocation, bool) {
	if rec.Payload.Get("type").String() != payloadFunctionCall {
		return types.ToolInvocation{}, false
	}
	return types.ToolInvocation{
		Timestamp: ts,
		Name:      rec.Payload.Get("name").String(),
		Input:     decodeArguments(rec.Payload.Get("arguments")),
	}, true
}

// fileRefs extracts file references from file and shell tools. Shell
// commands touching source files are recorded as an opaque reference.
func fileRefs(tools []types.ToolInvocation) []types.FileRef {
	return lo.FilterMap(tools, func(t types.ToolInvocation, _ int) (types.FileRef, bool) {
		if !lo.Contains(fileTools, t.Name) {
			return types.FileRef{}, false
		}
		for _, key := range []string{"path", "file_path"} {
			if p, ok := t.Input[key].(string); ok && p != "" {
				return types.FileRef{Tool: t.Name, Path: p}, true
			}
		}
		if !lo.Contains(shellTools, t.Name) {
			return types.FileRef{}, false
		}
		cmd := shellCommand(t.Input)
		if !lo.SomeBy(sourceExtensions, func(ext string) bool { return strings.Contains(cmd, ext) }) {
			return types.FileRef{}, false
		}
		return types.FileRef{
			Tool: t.Name,
			Path: fmt.Sprintf("<from command: %s...>", classify.Truncate(cmd, 50)),
		}, true
	})
}
