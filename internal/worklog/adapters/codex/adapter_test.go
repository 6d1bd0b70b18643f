// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package codex

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noldarim/worklog/internal/worklog/types"
)

var now = time.Date(2025, 1, 15, 12, 0, 0, 0, time.Local)

// at formats a timestamp the given duration before now.
func at(d time.Duration) string {
	return now.Add(-d).UTC().Format(time.RFC3339Nano)
}

func writeRollout(t *testing.T, root string, day time.Time, name string, lines ...string) {
	t.Helper()
	dir := filepath.Join(root, day.Format("2006"), day.Format("01"), day.Format("02"))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(strings.Join(lines, "\n")+"\n"), 0o644))
}

func meta(cwd string) string {
	return metaAt(at(12*time.Hour), cwd)
}

func metaAt(ts, cwd string) string {
	return `{"type":"session_meta","timestamp":"` + ts + `","payload":{"cwd":"` + cwd + `"}}`
}

func userMsg(ts, msg string) string {
	return `{"type":"event_msg","timestamp":"` + ts + `","payload":{"type":"user_message","message":"` + msg + `"}}`
}

func call(ts, name, args string) string {
	return `{"type":"response_item","timestamp":"` + ts + `","payload":{"type":"function_call","name":"` + name + `","arguments":` + args + `}}`
}

func run(t *testing.T, root string, hours int) types.Summary {
	t.Helper()
	s, err := New(DefaultOptions(root)).WorkSummary(context.Background(), types.NewWindow(now, hours))
	require.NoError(t, err)
	return s
}

func TestWorkSummary_IDEPreamble(t *testing.T) {
	root := t.TempDir()
	writeRollout(t, root, now, "rollout-1.jsonl",
		meta("/Users/me/Projects/workbench/api"),
		userMsg(at(2*time.Hour), `# Context from my IDE setup:\n## Open tabs: a.py\n## My request for Codex:\nImplement pagination for the users endpoint`),
		call(at(2*time.Hour-time.Minute), "edit_file", `"{\"path\":\"/src/users.py\"}"`),
		userMsg(at(time.Hour), `# Context from my IDE setup:\n## Open tabs: a.py`),
	)

	summary := run(t, root, 24)
	require.Len(t, summary["workbench"], 1)

	a := summary["workbench"][0]
	assert.Equal(t, "Implement pagination for the users endpoint", a.Request)
	assert.Equal(t, []string{"edit_file"}, a.Tools)
	assert.Equal(t, []types.FileRef{{Tool: "edit_file", Path: "/src/users.py"}}, a.Files)
	assert.Equal(t, "rollout-1.jsonl", a.SessionID)
}

func TestWorkSummary_ShellFileHeuristic(t *testing.T) {
	root := t.TempDir()
	writeRollout(t, root, now, "rollout-1.jsonl",
		meta("/Users/me/Projects/optimizer"),
		userMsg(at(30*time.Minute), "Run the solver benchmarks again"),
		call(at(29*time.Minute), "shell", `"{\"command\":[\"bash\",\"-lc\",\"python bench/solver_bench.py --iterations 500 --output results.json\"]}"`),
	)

	summary := run(t, root, 24)
	require.Len(t, summary["optimizer"], 1)
	files := summary["optimizer"][0].Files
	require.Len(t, files, 1)
	assert.Equal(t, "<from command: python bench/solver_bench.py --iterations 500 --ou...>", files[0].Path)
}

func TestWorkSummary_InspectionOnlyIsTrivial(t *testing.T) {
	root := t.TempDir()
	writeRollout(t, root, now, "rollout-1.jsonl",
		meta("/Users/me/Projects/converter"),
		userMsg(at(3*time.Hour), "Show me the converter layout"),
		call(at(3*time.Hour-time.Minute), "shell_command", `"{\"command\":\"ls src\"}"`),
		call(at(3*time.Hour-2*time.Minute), "read_file", `"{\"path\":\"README.md\"}"`),
		userMsg(at(time.Hour), "Explain the converter pipeline"),
	)

	summary := run(t, root, 24)
	require.Len(t, summary["converter"], 1)
	assert.Equal(t, "Explain the converter pipeline", summary["converter"][0].Request)
}

func TestWorkSummary_ProjectFilterAndUnknown(t *testing.T) {
	root := t.TempDir()
	writeRollout(t, root, now, "rollout-1.jsonl",
		meta("/Users/me/dotfiles"),
		userMsg(at(time.Hour), "Tidy up the zsh prompt setup"),
	)
	writeRollout(t, root, now, "rollout-2.jsonl",
		userMsg(at(time.Hour), "Sketch a design for the queue"),
	)

	summary := run(t, root, 24)
	assert.Equal(t, []string{"unknown"}, summary.Projects())
}

func TestWorkSummary_SessionMetaOutsideWindow(t *testing.T) {
	root := t.TempDir()
	writeRollout(t, root, now, "rollout-1.jsonl",
		metaAt(at(48*time.Hour), "/Users/me/Projects/mcp-config"),
		userMsg(at(time.Hour), "implement pagination for users"),
	)
	writeRollout(t, root, now, "rollout-2.jsonl",
		metaAt(at(48*time.Hour), "/Users/me/Projects/mcp-config"),
		metaAt(at(2*time.Hour), "/Users/me/Projects/smile-app"),
		metaAt(at(90*time.Minute), "/Users/me/Projects/other"),
		userMsg(at(time.Hour), "Fix the onboarding crash"),
	)

	summary := run(t, root, 24)
	assert.Equal(t, []string{"smile-app", "unknown"}, summary.Projects())
	require.Len(t, summary["unknown"], 1)
	assert.Equal(t, "implement pagination for users", summary["unknown"][0].Request)
	require.Len(t, summary["smile-app"], 1)
	assert.Equal(t, "Fix the onboarding crash", summary["smile-app"][0].Request)
}

func TestWorkSummary_MalformedArgumentsAndLines(t *testing.T) {
	root := t.TempDir()
	writeRollout(t, root, now, "rollout-1.jsonl",
		`garbage`,
		`[1,2,3]`,
		meta("/Users/me/Projects/playbook"),
		userMsg(at(time.Hour), "Write the incident playbook"),
		call(at(time.Hour), "write_file", `"not json"`),
		`{"type":"event_msg","timestamp":"bogus","payload":{"type":"user_message","message":"lost"}}`,
	)

	summary := run(t, root, 24)
	require.Len(t, summary["playbook"], 1)
	assert.Equal(t, []string{"write_file"}, summary["playbook"][0].Tools)
	assert.Empty(t, summary["playbook"][0].Files)
}

func TestWorkSummary_PartitionsAndWindow(t *testing.T) {
	root := t.TempDir()
	yesterday := now.AddDate(0, 0, -1)
	writeRollout(t, root, yesterday, "rollout-1.jsonl",
		meta("/Users/me/Projects/blueprint"),
		userMsg(at(20*time.Hour), "Review the migration plan"),
		userMsg(at(30*time.Hour), "Old request outside the window"),
	)
	writeRollout(t, root, now.AddDate(0, 0, -10), "rollout-1.jsonl",
		meta("/Users/me/Projects/blueprint"),
		userMsg(at(2*time.Hour), "Not in a scanned partition"),
	)

	summary := run(t, root, 24)
	require.Len(t, summary["blueprint"], 1)
	assert.Equal(t, "Review the migration plan", summary["blueprint"][0].Request)
}

func TestWorkSummary_MissingRoot(t *testing.T) {
	summary := run(t, filepath.Join(t.TempDir(), "absent"), 24)
	assert.Empty(t, summary)
}

func TestPartitionDirs(t *testing.T) {
	dirs := PartitionDirs("/r", types.NewWindow(now, 48))
	require.Len(t, dirs, 4)
	assert.Equal(t, filepath.Join("/r", "2025", "01", "15"), dirs[0])
	assert.Equal(t, filepath.Join("/r", "2025", "01", "12"), dirs[3])
}

func TestShellCommand(t *testing.T) {
	testCases := []struct {
		name     string
		input    map[string]any
		expected string
	}{
		{name: "string", input: map[string]any{"command": "ls -la"}, expected: "ls -la"},
		{name: "bash -lc", input: map[string]any{"command": []any{"bash", "-lc", "cat a.py"}}, expected: "cat a.py"},
		{name: "abs zsh -c", input: map[string]any{"command": []any{"/bin/zsh", "-c", "pwd"}}, expected: "pwd"},
		{name: "plain argv", input: map[string]any{"command": []any{"git", "status"}}, expected: "git status"},
		{name: "missing", input: map[string]any{}, expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, shellCommand(tc.input))
		})
	}
}

func TestInspectOnly(t *testing.T) {
	read := types.ToolInvocation{Name: "read_file"}
	ls := types.ToolInvocation{Name: "shell", Input: map[string]any{"command": []any{"bash", "-lc", "ls src"}}}
	build := types.ToolInvocation{Name: "shell_command", Input: map[string]any{"command": "make build"}}
	write := types.ToolInvocation{Name: "write_file"}

	assert.True(t, InspectOnly([]types.ToolInvocation{read, ls}))
	assert.False(t, InspectOnly([]types.ToolInvocation{read, build}))
	assert.False(t, InspectOnly([]types.ToolInvocation{write}))
}
