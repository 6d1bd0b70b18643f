// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package junie

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
)

// Chain is the metadata document of one Junie conversation thread
// (issues/chain-{id}.json).
type Chain struct {
	ID struct {
		ID string `json:"id"`
	} `json:"id"`
	Name    string `json:"name"`
	Created string `json:"created"`
	State   string `json:"state"`
}

// Task is one task document of a chain (issues/chain-{id}/task-*.json).
type Task struct {
	Created string `json:"created"`
	Context struct {
		Description string `json:"description"`
	} `json:"context"`
	FinalAgentState struct {
		Observations []Observation `json:"observations"`
		Issue        struct {
			EditorContext struct {
				OpenFiles []string `json:"openFiles"`
			} `json:"editorContext"`
		} `json:"issue"`
	} `json:"finalAgentState"`
}

// Observation is one step of the agent loop.
type Observation struct {
	Created      string `json:"created"`
	UserResponse *struct {
		Type    string `json:"type"`
		Content string `json:"content"`
	} `json:"userResponse"`
	AssistantRequest *struct {
		Content  string `json:"content"`
		ToolUses []struct {
			Name string `json:"name"`
		} `json:"toolUses"`
	} `json:"assistantRequest"`
}

// IsUserChat reports whether the observation carries a chat message typed by the user.
func (o Observation) IsUserChat() bool {
	return o.UserResponse != nil && strings.Contains(o.UserResponse.Type, "MatterhornUserChatMessage")
}

// ToolNames returns the names of the tools the assistant requested.
func (o Observation) ToolNames() []string {
	if o.AssistantRequest == nil {
		return nil
	}
	names := make([]string, 0, len(o.AssistantRequest.ToolUses))
	for _, tu := range o.AssistantRequest.ToolUses {
		if tu.Name != "" {
			names = append(names, tu.Name)
		}
	}
	return names
}

func readDocument(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}
