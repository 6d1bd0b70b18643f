// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package claude

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noldarim/worklog/internal/worklog/types"
)

var now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC)

func writeSession(t *testing.T, root, dir, file string, lines ...string) {
	t.Helper()
	full := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(full, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(full, file), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func userLine(ts, text string) string {
	return `{"type":"user","sessionId":"s1","timestamp":"` + ts + `","cwd":"/Users/me/Projects/blueprint-api","message":{"role":"user","content":[{"type":"text","text":"` + text + `"}]}}`
}

func toolLine(ts, name, input string) string {
	return `{"type":"assistant","sessionId":"s1","timestamp":"` + ts + `","message":{"role":"assistant","content":[{"type":"tool_use","name":"` + name + `","input":` + input + `}]}}`
}

func run(t *testing.T, root string, hours int) types.Summary {
	t.Helper()
	s, err := New(DefaultOptions(root)).WorkSummary(context.Background(), types.NewWindow(now, hours))
	require.NoError(t, err)
	return s
}

func TestWorkSummary_CorrelatesEdits(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-Projects-blueprint-api", "abc.jsonl",
		userLine("2025-01-15T10:00:00Z", "Add retry logic to the auth client"),
		toolLine("2025-01-15T10:01:00Z", "Read", `{"file_path":"/src/auth.py"}`),
		toolLine("2025-01-15T10:02:00Z", "Edit", `{"file_path":"/src/auth.py","old_string":"a","new_string":"b"}`),
		toolLine("2025-01-15T10:30:00Z", "Bash", `{"command":"pytest"}`),
	)

	summary := run(t, root, 24)
	require.Contains(t, summary, "blueprint-api")
	require.Len(t, summary["blueprint-api"], 1)

	a := summary["blueprint-api"][0]
	assert.Equal(t, "Add retry logic to the auth client", a.Request)
	assert.Equal(t, []string{"Read", "Edit"}, a.Tools)
	assert.Equal(t, []types.FileRef{{Tool: "Edit", Path: "/src/auth.py"}}, a.Files)
	assert.Equal(t, "abc.jsonl", a.SessionID)
	assert.True(t, time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC).Equal(a.Timestamp))
}

func TestWorkSummary_DropsTrivialRequests(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-Projects-blueprint-api", "abc.jsonl",
		userLine("2025-01-15T10:00:00Z", "fix typo in README"),
		userLine("2025-01-15T10:20:00Z", "ok"),
		userLine("2025-01-15T10:40:00Z", "look at the parser"),
		toolLine("2025-01-15T10:41:00Z", "Read", `{"file_path":"/src/parser.py"}`),
		userLine("2025-01-15T11:00:00Z", "Explain the billing flow"),
	)

	summary := run(t, root, 24)
	require.Len(t, summary["blueprint-api"], 1)
	assert.Equal(t, "Explain the billing flow", summary["blueprint-api"][0].Request)
	assert.Empty(t, summary["blueprint-api"][0].Tools)
}

func TestWorkSummary_ExcludesPersonalProjects(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-Projects-mcp-config", "abc.jsonl",
		userLine("2025-01-15T10:00:00Z", "Wire up the new server"),
	)
	writeSession(t, root, ".hidden", "abc.jsonl",
		userLine("2025-01-15T10:00:00Z", "Wire up the new server"),
	)

	assert.Empty(t, run(t, root, 24))
}

func TestWorkSummary_SkipsAgentFilesAndBadLines(t *testing.T) {
	root := t.TempDir()
	dir := "-Users-me-Projects-workbench"
	writeSession(t, root, dir, "agent-123.jsonl",
		userLine("2025-01-15T10:00:00Z", "Subagent task that should not show"),
	)
	writeSession(t, root, dir, "main.jsonl",
		`{not json`,
		`{"type":"user","timestamp":"not a time","message":{"role":"user","content":"Bad timestamp request"}}`,
		userLine("2025-01-15T09:00:00Z", "Review the export endpoint"),
	)
	writeSession(t, root, dir, "notes.txt", "ignored")

	summary := run(t, root, 24)
	require.Len(t, summary["workbench"], 1)
	assert.Equal(t, "Review the export endpoint", summary["workbench"][0].Request)
	assert.Equal(t, "main.jsonl", summary["workbench"][0].SessionID)
}

func TestWorkSummary_StringContentIsNotARequest(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-Projects-workbench", "main.jsonl",
		`{"type":"user","timestamp":"2025-01-15T09:00:00Z","message":{"role":"user","content":"implement the export feature"}}`,
		toolLine("2025-01-15T09:01:00Z", "Edit", `{"file_path":"/src/export.py"}`),
	)

	assert.Empty(t, run(t, root, 24))
}

func TestMessage_UnmarshalJSON(t *testing.T) {
	var blocks Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":[{"type":"text","text":"hi there"}]}`), &blocks))
	assert.False(t, blocks.Plain)
	assert.Equal(t, []ContentItem{{Type: "text", Text: "hi there"}}, blocks.Content)

	var plain Message
	require.NoError(t, json.Unmarshal([]byte(`{"role":"user","content":"hi there"}`), &plain))
	assert.True(t, plain.Plain)
	assert.Equal(t, "hi there", plain.Content[0].Text)

	var bad Message
	assert.Error(t, json.Unmarshal([]byte(`{"role":"user","content":42}`), &bad))
}

func TestWorkSummary_ToolResultsAreNotRequests(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-Projects-optimizer", "s.jsonl",
		`{"type":"user","timestamp":"2025-01-15T10:00:00Z","message":{"role":"user","content":[{"type":"tool_result","tool_use_id":"x","content":"output"}]}}`,
	)

	assert.Empty(t, run(t, root, 24))
}

func TestWorkSummary_MissingRoot(t *testing.T) {
	summary := run(t, filepath.Join(t.TempDir(), "absent"), 24)
	assert.NotNil(t, summary)
	assert.Empty(t, summary)
}

func TestWorkSummary_LookbackMonotonic(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-Projects-converter", "s.jsonl",
		userLine("2025-01-15T11:30:00Z", "Convert the legacy schema"),
		userLine("2025-01-14T20:00:00Z", "Review yesterday's migration"),
		userLine("2025-01-10T20:00:00Z", "Old request outside all windows"),
	)

	short := run(t, root, 1)
	long := run(t, root, 24)

	assert.Equal(t, 1, short.Count())
	assert.Equal(t, 2, long.Count())

	cutoff := types.NewWindow(now, 24).Cutoff()
	for _, a := range long["converter"] {
		assert.False(t, a.Timestamp.IsZero())
		assert.False(t, a.Timestamp.Before(cutoff))
	}
}

func TestWorkSummary_Cancelled(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-Projects-playbook", "s.jsonl",
		userLine("2025-01-15T11:30:00Z", "Draft the rollout plan"),
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(DefaultOptions(root)).WorkSummary(ctx, types.NewWindow(now, 24))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestProjectFromDirectoryName(t *testing.T) {
	root := t.TempDir()
	writeSession(t, root, "-Users-me-Projects-blueprint-bp-informatica", "s.jsonl",
		userLine("2025-01-15T11:30:00Z", "Map the informatica jobs"),
	)
	writeSession(t, root, "scratchpad", "s.jsonl",
		userLine("2025-01-15T11:30:00Z", "Try something out here"),
	)

	summary := run(t, root, 24)
	assert.Equal(t, []string{"blueprint-bp-informatica", "scratchpad"}, summary.Projects())
}
