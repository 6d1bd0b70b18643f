// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package claude

import (
	"encoding/json"
	"fmt"
)

// TranscriptEntry represents a single line of a Claude Code session .jsonl file.
// Only the fields the work summary needs are decoded.
type TranscriptEntry struct {
	Type      string   `json:"type"`                // "user", "assistant", "summary", "system", ...
	SessionID string   `json:"sessionId,omitempty"` // Session identifier
	Timestamp string   `json:"timestamp"`           // ISO 8601 timestamp
	CWD       string   `json:"cwd,omitempty"`       // Working directory
	Message   *Message `json:"message,omitempty"`
}

// Message represents a Claude message with role and content.
type Message struct {
	Role    string        `json:"role"` // "user", "assistant"
	Content []ContentItem `json:"-"`    // Custom unmarshaling handles both string and array

	// Plain is set when content was a bare string rather than typed blocks.
	Plain bool `json:"-"`
}

// UnmarshalJSON handles Claude's variable content format.
// Content can be either a string or an array of ContentItems.
func (m *Message) UnmarshalJSON(data []byte) error {
	var raw struct {
		Role    string          `json:"role"`
		Content json.RawMessage `json:"content"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("failed to unmarshal message: %w", err)
	}

	m.Role = raw.Role
	m.Content = nil
	m.Plain = false

	if len(raw.Content) == 0 || string(raw.Content) == "null" {
		return nil
	}

	// Array is the common case
	var items []ContentItem
	if err := json.Unmarshal(raw.Content, &items); err == nil {
		m.Content = items
		return nil
	}

	var text string
	if err := json.Unmarshal(raw.Content, &text); err == nil {
		m.Content = []ContentItem{{Type: "text", Text: text}}
		m.Plain = true
		return nil
	}

	return fmt.Errorf("content field is neither array nor string: %s", string(raw.Content[:min(100, len(raw.Content))]))
}

// ContentItem represents a single content block in a message.
type ContentItem struct {
	Type string `json:"type"` // "text", "tool_use", "tool_result", "thinking", "image"

	// For text content
	Text string `json:"text,omitempty"`

	// For tool_use
	Name  string         `json:"name,omitempty"`
	Input map[string]any `json:"input,omitempty"`
}
