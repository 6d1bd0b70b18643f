// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package junie mines JetBrains Junie (Matterhorn) task chains from the
// IDE caches into work activities.
package junie

import (
	"context"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/noldarim/worklog/internal/logger"
	"github.com/noldarim/worklog/internal/worklog/classify"
	"github.com/noldarim/worklog/internal/worklog/correlate"
	"github.com/noldarim/worklog/internal/worklog/discovery"
	"github.com/noldarim/worklog/internal/worklog/types"
)

const (
	unnamedChain = "Unnamed task"
	unknownState = "Unknown"

	// minMessageLength is the length a description or chat message must exceed.
	minMessageLength = 5
	requestWidth     = 100
	maxOpenFiles     = 5
)

var (
	DefaultDeny  = []string{"claude", "mcp", "config", "plugin", "dotfiles", "test", "demo"}
	DefaultAllow = []string{"blueprint", "smile-app", "workbench", "optimizer", "converter", "playbook", "dbricks"}

	DefaultTrivial = []string{
		"formatting",
		"typo",
		"whitespace",
		"indentation",
		"rename variable",
		"console.log",
		".gitignore",
		"configuration",
		"settings.json",
	}
)

var (
	ideDirs     = discovery.MustMatcher("IntelliJIdea*")
	anyDir      = discovery.MustMatcher("*")
	chainFiles  = discovery.MustMatcher("chain-*.json")
	taskFiles   = discovery.MustMatcher("task-*.json")
	storeSubdir = filepath.Join("matterhorn", ".matterhorn")
)

func getLog() *zerolog.Logger {
	l := logger.GetAdapterLogger().With().Str("source", string(types.SourceJunie)).Logger()
	return &l
}

// Options configures the adapter.
type Options struct {
	Root              string // JetBrains cache directory
	Anchor            string // "projects"
	Projects          classify.ProjectFilter
	Trivial           classify.TrivialityFilter
	CorrelationWindow time.Duration
}

// DefaultOptions returns the built-in classifier lists for the given root.
// Triviality is judged on the chain name only, so no length floor applies.
func DefaultOptions(root string) Options {
	return Options{
		Root:   root,
		Anchor: "projects",
		Projects: classify.ProjectFilter{
			Deny:  DefaultDeny,
			Allow: DefaultAllow,
		},
		Trivial:           classify.TrivialityFilter{Patterns: DefaultTrivial},
		CorrelationWindow: correlate.DefaultWindow,
	}
}

// Adapter implements types.Adapter for Junie task chains.
type Adapter struct {
	opts Options
}

// New creates a new Junie adapter instance.
func New(opts Options) *Adapter {
	if opts.CorrelationWindow <= 0 {
		opts.CorrelationWindow = correlate.DefaultWindow
	}
	return &Adapter{opts: opts}
}

func (a *Adapter) Name() types.Source {
	return types.SourceJunie
}

// WorkSummary walks every Matterhorn store of every IntelliJ installation.
func (a *Adapter) WorkSummary(ctx context.Context, window types.Window) (types.Summary, error) {
	summary := types.Summary{}
	log := getLog()

	if !discovery.Exists(a.opts.Root) {
		log.Debug().Str("root", a.opts.Root).Msg("log store not found, skipping")
		return summary, nil
	}

	stores, err := a.matterhornStores()
	if err != nil {
		log.Warn().Err(err).Msg("failed to discover matterhorn stores")
		return summary, nil
	}

	for _, store := range stores {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Relative to the root so an anchor-like segment above it cannot match
		rel, err := filepath.Rel(a.opts.Root, store)
		if err != nil {
			rel = store
		}
		project := classify.ProjectFromCachePath(rel, a.opts.Anchor)
		if !a.opts.Projects.IsWork(project) {
			log.Debug().Str("project", project).Msg("not a work project, skipping")
			continue
		}

		for _, activity := range a.parseStore(store, project, window) {
			summary.Add(project, activity)
		}
	}

	return summary, nil
}

// matterhornStores returns {root}/IntelliJIdea*/projects/*/matterhorn/.matterhorn.
func (a *Adapter) matterhornStores() ([]string, error) {
	ides, err := ideDirs.List(a.opts.Root, discovery.Dirs)
	if err != nil {
		return nil, err
	}

	var stores []string
	for _, ide := range ides {
		projects, err := anyDir.List(filepath.Join(ide, a.opts.Anchor), discovery.Dirs)
		if err != nil {
			getLog().Debug().Err(err).Str("dir", ide).Msg("failed to list projects")
			continue
		}
		for _, p := range projects {
			store := filepath.Join(p, storeSubdir)
			if discovery.Exists(store) {
				stores = append(stores, store)
			}
		}
	}
	return stores, nil
}

// parseStore emits one activity per task of every in-window chain.
func (a *Adapter) parseStore(store, project string, window types.Window) []types.Activity {
	log := getLog()
	issues := filepath.Join(store, "issues")

	chains, err := chainFiles.List(issues, discovery.Files)
	if err != nil {
		log.Debug().Err(err).Str("dir", issues).Msg("failed to list chains")
		return nil
	}

	var activities []types.Activity
	for _, path := range chains {
		var chain Chain
		if err := readDocument(path, &chain); err != nil {
			log.Debug().Err(err).Msg("skipping chain")
			continue
		}

		created, err := types.ParseTimestamp(chain.Created)
		if err != nil || !window.Contains(created) {
			continue
		}
		if chain.ID.ID == "" {
			log.Debug().Str("file", path).Msg("chain without id")
			continue
		}
		if chain.Name == "" {
			chain.Name = unnamedChain
		}
		if chain.State == "" {
			chain.State = unknownState
		}
		if a.opts.Trivial.IsTrivial(chain.Name, nil) {
			continue
		}

		tasks, err := taskFiles.List(filepath.Join(issues, "chain-"+chain.ID.ID), discovery.Files)
		if err != nil {
			log.Debug().Err(err).Str("chain", chain.ID.ID).Msg("failed to list tasks")
			continue
		}

		for _, taskPath := range tasks {
			var task Task
			if err := readDocument(taskPath, &task); err != nil {
				log.Debug().Err(err).Msg("skipping task")
				continue
			}
			if activity, ok := a.taskActivity(chain, created, task, project, window); ok {
				activities = append(activities, activity)
			}
		}
	}
	return activities
}

// taskActivity builds the activity for one task. The timestamp is the
// task's created time, falling back to the chain's.
func (a *Adapter) taskActivity(chain Chain, chainCreated time.Time, task Task, project string, window types.Window) (types.Activity, bool) {
	ts := chainCreated
	if t, err := types.ParseTimestamp(task.Created); err == nil {
		ts = t
	}
	if !window.Contains(ts) {
		return types.Activity{}, false
	}

	text := chain.Name
	if msg, ok := firstMessage(task); ok {
		text += " - " + classify.Truncate(msg, requestWidth)
	}

	return types.Activity{
		Timestamp: ts,
		Request:   text,
		Tools:     a.correlatedTools(task, ts),
		Files:     openFiles(task),
		Project:   project,
		SessionID: chain.ID.ID,
		Chain:     chain.Name,
		State:     chain.State,
	}, true
}

// messageKind tells user input apart from the assistant's own notes.
type messageKind int

const (
	userRequest messageKind = iota
	userResponse
	assistantPlan
	assistantStep
)

type message struct {
	kind messageKind
	text string
}

func (m message) fromUser() bool {
	return m.kind == userRequest || m.kind == userResponse
}

// substantial reports whether s is longer than minMessageLength characters.
func substantial(s string) bool {
	return utf8.RuneCountInString(s) > minMessageLength
}

// taskMessages lists the messages of a task in document order: the
// description, then per observation the user chat message and the
// assistant's plan and next step segments.
func taskMessages(task Task) []message {
	var msgs []message
	if substantial(task.Context.Description) {
		msgs = append(msgs, message{kind: userRequest, text: task.Context.Description})
	}

	for _, o := range task.FinalAgentState.Observations {
		if o.IsUserChat() && substantial(o.UserResponse.Content) {
			msgs = append(msgs, message{kind: userResponse, text: o.UserResponse.Content})
		}
		if o.AssistantRequest == nil {
			continue
		}
		if plan, ok := classify.Tagged(o.AssistantRequest.Content, "PLAN"); ok {
			msgs = append(msgs, message{kind: assistantPlan, text: plan})
		}
		if step, ok := classify.Tagged(o.AssistantRequest.Content, "NEXT_STEP"); ok {
			msgs = append(msgs, message{kind: assistantStep, text: step})
		}
	}
	return msgs
}

// firstMessage returns the first user message of the task. Assistant
// notes never stand in for it.
func firstMessage(task Task) (string, bool) {
	msg, ok := lo.Find(taskMessages(task), message.fromUser)
	return msg.text, ok
}

// correlatedTools returns the distinct tool names of observations near ts.
// Observations without a usable timestamp are attributed to ts.
func (a *Adapter) correlatedTools(task Task, ts time.Time) []string {
	var invocations []types.ToolInvocation
	for _, o := range task.FinalAgentState.Observations {
		at := ts
		if t, err := types.ParseTimestamp(o.Created); err == nil {
			at = t
		}
		for _, name := range o.ToolNames() {
			invocations = append(invocations, types.ToolInvocation{Timestamp: at, Name: name})
		}
	}

	req := types.Request{Timestamp: ts}
	return lo.Uniq(correlate.Names(correlate.Correlate(req, invocations, a.opts.CorrelationWindow)))
}

func openFiles(task Task) []types.FileRef {
	files := task.FinalAgentState.Issue.EditorContext.OpenFiles
	if len(files) > maxOpenFiles {
		files = files[:maxOpenFiles]
	}
	return lo.FilterMap(files, func(f string, _ int) (types.FileRef, bool) {
		f = strings.TrimSpace(f)
		return types.FileRef{Path: f}, f != ""
	})
}
