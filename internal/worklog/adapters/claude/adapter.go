// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package claude mines Claude Code project transcripts (~/.claude/projects)
// into work activities.
package claude

import (
	"context"
	"encoding/json"
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

var (
	// DefaultDeny lists project name markers for personal and tooling projects.
	DefaultDeny = []string{"claude", "mcp", "config", "plugin"}
	// DefaultAllow lists project name markers for known work projects.
	DefaultAllow = []string{"blueprint", "smile-app", "workbench", "optimizer", "converter", "playbook"}
	// DefaultTrivial lists request substrings that mark low-value work.
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
	}
)

// fileTools are the tools whose input names a file they modify.
var fileTools = []string{"Edit", "Write", "NotebookEdit"}

var (
	sessionFiles = discovery.MustMatcher("*.jsonl")
	projectDirs  = discovery.MustMatcher("*")
)

func getLog() *zerolog.Logger {
	l := logger.GetAdapterLogger().With().Str("source", string(types.SourceClaude)).Logger()
	return &l
}

// Options configures the adapter.
type Options struct {
	Root              string        // ~/.claude/projects
	Anchor            string        // directory segment preceding the project name
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
			ReadOnly:  classify.AllNamed("Read"),
		},
		CorrelationWindow: correlate.DefaultWindow,
	}
}

// Adapter implements types.Adapter for Claude Code project transcripts.
type Adapter struct {
	opts Options
}

// New creates a new Claude adapter instance.
func New(opts Options) *Adapter {
	if opts.CorrelationWindow <= 0 {
		opts.CorrelationWindow = correlate.DefaultWindow
	}
	return &Adapter{opts: opts}
}

func (a *Adapter) Name() types.Source {
	return types.SourceClaude
}

// WorkSummary scans every project directory under the root.
func (a *Adapter) WorkSummary(ctx context.Context, window types.Window) (types.Summary, error) {
	summary := types.Summary{}
	log := getLog()

	if !discovery.Exists(a.opts.Root) {
		log.Debug().Str("root", a.opts.Root).Msg("log store not found, skipping")
		return summary, nil
	}

	dirs, err := projectDirs.List(a.opts.Root, discovery.Dirs)
	if err != nil {
		log.Warn().Err(err).Msg("failed to list project directories")
		return summary, nil
	}

	for _, dir := range dirs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := filepath.Base(dir)
		if strings.HasPrefix(name, ".") {
			continue
		}

		project := classify.ProjectFromDirName(name, a.opts.Anchor)
		if !a.opts.Projects.IsWork(project) {
			log.Debug().Str("project", project).Msg("not a work project, skipping")
			continue
		}

		activities := a.parseProject(dir, project, window)
		if len(activities) > 0 {
			summary[project] = append(summary[project], activities...)
		}
	}

	return summary, nil
}

// parseProject parses every primary session file of one project directory.
func (a *Adapter) parseProject(dir, project string, window types.Window) []types.Activity {
	files, err := sessionFiles.List(dir, discovery.Files)
	if err != nil {
		getLog().Debug().Err(err).Str("dir", dir).Msg("failed to list session files")
		return nil
	}

	var activities []types.Activity
	for _, path := range files {
		// agent-* files are child sessions spawned by the main one
		if strings.HasPrefix(filepath.Base(path), "agent-") {
			continue
		}
		activities = append(activities, a.parseSession(path, project, window)...)
	}
	return activities
}

// parseSession turns one transcript into activities.
func (a *Adapter) parseSession(path, project string, window types.Window) []types.Activity {
	log := getLog()

	lines, err := jsonl.ReadFile(path)
	if err != nil {
		log.Debug().Err(err).Msg("unreadable session file")
		if len(lines) == 0 {
			return nil
		}
	}

	var (
		requests []types.Request
		tools    []types.ToolInvocation
	)

	for _, line := range lines {
		var entry TranscriptEntry
		if err := json.Unmarshal(line.Data, &entry); err != nil {
			log.Debug().Err(err).Str("file", path).Int("line", line.Number).Msg("skipping malformed line")
			continue
		}

		ts, err := types.ParseTimestamp(entry.Timestamp)
		if err != nil || !window.Contains(ts) {
			continue
		}

		if req, ok := extractRequest(entry, ts); ok {
			requests = append(requests, req)
		}
		tools = append(tools, extractToolUses(entry, ts)...)
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

// extractRequest returns the human prompt carried by a user entry.
// Tool results are sent back as user entries too, but carry no text blocks.
// Only typed text blocks count; bare string content is not a prompt.
func extractRequest(entry TranscriptEntry, ts time.Time) (types.Request, bool) {
	if entry.Type != "user" || entry.Message == nil || entry.Message.Role != "user" || entry.Message.Plain {
		return types.Request{}, false
	}

	texts := lo.FilterMap(entry.Message.Content, func(item ContentItem, _ int) (string, bool) {
		return item.Text, item.Type == "text"
	})
	if len(texts) == 0 {
		return types.Request{}, false
	}

	return types.Request{
		Timestamp: ts,
		Text:      strings.Join(texts, " "),
		CWD:       entry.CWD,
	}, true
}

// extractToolUses returns every tool_use block of an assistant entry.
func extractToolUses(entry TranscriptEntry, ts time.Time) []types.ToolInvocation {
	if entry.Type != "assistant" || entry.Message == nil {
		return nil
	}

	return lo.FilterMap(entry.Message.Content, func(item ContentItem, _ int) (types.ToolInvocation, bool) {
		if item.Type != "tool_use" {
			return types.ToolInvocation{}, false
		}
		input := item.Input
		if input == nil {
			input = map[string]any{}
		}
		return types.ToolInvocation{
			Timestamp: ts,
			Name:      item.Name,
			Input:     input,
			CWD:       entry.CWD,
		}, true
	})
}

// fileRefs extracts the files written by file-modifying tools.
func fileRefs(tools []types.ToolInvocation) []types.FileRef {
	return lo.FilterMap(tools, func(t types.ToolInvocation, _ int) (types.FileRef, bool) {
		if !lo.Contains(fileTools, t.Name) {
			return types.FileRef{}, false
		}
		for _, key := range []string{"file_path", "notebook_path"} {
			if path, ok := t.Input[key].(string); ok && path != "" {
				return types.FileRef{Tool: t.Name, Path: path}, true
			}
		}
		return types.FileRef{}, false
	})
}
