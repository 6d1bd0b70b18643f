// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package classify

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noldarim/worklog/internal/worklog/types"
)

func TestProjectFilter_IsWork(t *testing.T) {
	f := ProjectFilter{
		Deny:  []string{"claude", "mcp", "config", "plugin"},
		Allow: []string{"blueprint", "smile-app"},
	}

	testCases := []struct {
		project string
		want    bool
	}{
		{"blueprint-bp-informatica", true},
		{"smile-app", true},
		{"mcp-config", false},
		{"Claude-Dotfiles", false},
		{"blueprint-plugin", false}, // deny wins over allow
		{"weekend-game", true},      // neither list: included
		{"", true},
	}

	for _, tc := range testCases {
		t.Run(tc.project, func(t *testing.T) {
			assert.Equal(t, tc.want, f.IsWork(tc.project))
		})
	}
}

func TestTrivialityFilter(t *testing.T) {
	f := TrivialityFilter{
		Patterns:  []string{"typo", "formatting", "settings.json"},
		MinLength: 5,
		ReadOnly:  AllNamed("Read"),
	}

	edit := []types.ToolInvocation{{Name: "Edit"}}
	reads := []types.ToolInvocation{{Name: "Read"}, {Name: "Read"}}
	mixed := []types.ToolInvocation{{Name: "Read"}, {Name: "Edit"}}

	assert.False(t, f.IsTrivial("fix the login bug in auth.py", edit))
	assert.True(t, f.IsTrivial("fix typo in README", edit))
	assert.True(t, f.IsTrivial("Update SETTINGS.JSON please", nil))
	assert.True(t, f.IsTrivial("explain the auth flow", reads))
	assert.False(t, f.IsTrivial("explain the auth flow", mixed))
	assert.False(t, f.IsTrivial("explain the auth flow", nil), "no tools is not read-only")

	assert.True(t, f.TooShort("ok"))
	assert.True(t, f.TooShort("  hi  "))
	assert.False(t, f.TooShort("hello"))
	assert.False(t, f.TooShort("héllo"), "length counts runes")

	assert.True(t, f.Discard("ok", edit))
	assert.False(t, f.Discard("add retries to the client", edit))

	noFloor := TrivialityFilter{}
	assert.False(t, noFloor.TooShort(""))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "日本", Truncate("日本語", 2))
	assert.Equal(t, "", Truncate("abc", -1))
}

func TestContainsAny(t *testing.T) {
	assert.True(t, ContainsAny("Deploy the API", []string{"api"}))
	assert.False(t, ContainsAny("hello", []string{"", "x"}))
}
