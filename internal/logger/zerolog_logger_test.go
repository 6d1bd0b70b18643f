// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package logger

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/noldarim/worklog/internal/config"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// captureConsole redirects console outputs to a buffer for the duration of the test.
func captureConsole(t *testing.T) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	previous := consoleOut
	consoleOut = buf
	t.Cleanup(func() { consoleOut = previous })
	return buf
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name        string
		config      *config.LogConfig
		expectError bool
		errorMsg    string
	}{
		{
			name: "minimal_config",
			config: &config.LogConfig{
				Level:  "info",
				Format: "json",
				Output: []config.LogOutputConfig{{Type: "console", Enabled: true}},
			},
		},
		{
			name: "rotating_file_config",
			config: &config.LogConfig{
				Level:  "error",
				Format: "json",
				Output: []config.LogOutputConfig{
					{
						Type:    "file",
						Enabled: true,
						Path:    filepath.Join(t.TempDir(), "logs", "rotating.log"),
						Rotate:  config.LogRotateConfig{MaxSizeMB: 1, MaxBackups: 3, MaxAgeDays: 7},
					},
				},
			},
		},
		{
			name: "no_enabled_outputs",
			config: &config.LogConfig{
				Level:  "info",
				Output: []config.LogOutputConfig{{Type: "file", Enabled: false}},
			},
		},
		{
			name: "invalid_output_type",
			config: &config.LogConfig{
				Level:  "info",
				Output: []config.LogOutputConfig{{Type: "syslog", Enabled: true}},
			},
			expectError: true,
			errorMsg:    "unsupported output type: syslog",
		},
		{
			name: "file_without_path",
			config: &config.LogConfig{
				Level:  "info",
				Output: []config.LogOutputConfig{{Type: "file", Enabled: true}},
			},
			expectError: true,
			errorMsg:    "file output requires a path",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureConsole(t)
			manager, err := NewManager(tt.config)

			if tt.expectError {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errorMsg)
				return
			}

			require.NoError(t, err)
			require.NotNil(t, manager)
			assert.NoError(t, manager.Close())
		})
	}
}

func TestManager_PackageLevels(t *testing.T) {
	buf := captureConsole(t)
	manager, err := NewManager(&config.LogConfig{
		Level:  "warn",
		Format: "json",
		Output: []config.LogOutputConfig{{Type: "console", Enabled: true}},
		Levels: map[string]string{"adapters": "debug"},
	})
	require.NoError(t, err)

	adapters := manager.GetLogger("adapters")
	cli := manager.GetLogger("cli")
	assert.Equal(t, zerolog.DebugLevel, adapters.GetLevel())
	assert.Equal(t, zerolog.WarnLevel, cli.GetLevel())

	adapters.Debug().Str("file", "a.jsonl").Msg("skipped malformed line")
	cli.Info().Msg("hidden")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "adapters", entry["pkg"])
	assert.Equal(t, "a.jsonl", entry["file"])
	assert.Equal(t, "skipped malformed line", entry["message"])
}

func TestManager_SetPackageLevel(t *testing.T) {
	captureConsole(t)
	manager, err := NewManager(&config.LogConfig{
		Level:  "info",
		Format: "json",
		Output: []config.LogOutputConfig{{Type: "console", Enabled: true}},
	})
	require.NoError(t, err)

	_ = manager.GetLogger("server")
	manager.SetPackageLevel("server", "error")

	l := manager.GetLogger("server")
	assert.Equal(t, zerolog.ErrorLevel, l.GetLevel())
	assert.Equal(t, "error", manager.config.Levels["server"])
}

func TestManager_FileOutput(t *testing.T) {
	path := filepath.Join(t.TempDir(), "worklog.log")
	manager, err := NewManager(&config.LogConfig{
		Level:   "info",
		Format:  "console",
		Output:  []config.LogOutputConfig{{Type: "file", Enabled: true, Path: path}},
		Context: config.LogContextConfig{IncludeTimestamp: true},
	})
	require.NoError(t, err)

	l := manager.GetLogger("aggregate")
	l.Info().Int("activities", 3).Msg("merged")
	require.NoError(t, manager.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(data), &entry))
	assert.Equal(t, "merged", entry["message"])
	assert.EqualValues(t, 3, entry["activities"])

	_, err = time.Parse(time.RFC3339Nano, entry["time"].(string))
	assert.NoError(t, err)
}

func TestParseLevel(t *testing.T) {
	tests := map[string]zerolog.Level{
		"trace":   zerolog.TraceLevel,
		"DEBUG":   zerolog.DebugLevel,
		"Info":    zerolog.InfoLevel,
		"warning": zerolog.WarnLevel,
		"error":   zerolog.ErrorLevel,
		"bogus":   zerolog.InfoLevel,
	}
	for input, expected := range tests {
		assert.Equal(t, expected, parseLevel(input), input)
	}
}
