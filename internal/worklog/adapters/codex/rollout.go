// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package codex

import (
	"strings"

	"github.com/tidwall/gjson"
)

// Record types and payload types found in rollout files.
const (
	recordSessionMeta  = "session_meta"
	recordEventMsg     = "event_msg"
	recordResponseItem = "response_item"

	payloadUserMessage  = "user_message"
	payloadFunctionCall = "function_call"
)

// record is one decoded rollout line: {type, timestamp, payload}.
type record struct {
	Type      string
	Timestamp string
	Payload   gjson.Result
}

// parseRecord decodes a line, reporting false for invalid JSON or non-objects.
func parseRecord(data []byte) (record, bool) {
	if !gjson.ValidBytes(data) {
		return record{}, false
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return record{}, false
	}
	return record{
		Type:      root.Get("type").String(),
		Timestamp: root.Get("timestamp").String(),
		Payload:   root.Get("payload"),
	}, true
}

// decodeArguments turns function_call arguments into a mapping. Arguments are
// normally a JSON-encoded string; an inline object is accepted as well.
// Anything else decodes to an empty mapping.
func decodeArguments(args gjson.Result) map[string]any {
	var obj gjson.Result
	switch {
	case args.Type == gjson.String && gjson.Valid(args.Str):
		obj = gjson.Parse(args.Str)
	case args.IsObject():
		obj = args
	}

	if m, ok := obj.Value().(map[string]any); ok {
		return m
	}
	return map[string]any{}
}

// shellCommand returns the command of a shell invocation as a single string.
// The command is either a string or an argv array; arrays of the form
// [bash|sh|zsh, -lc|-c, script] reduce to the script.
func shellCommand(input map[string]any) string {
	switch cmd := input["command"].(type) {
	case string:
		return cmd
	case []any:
		argv := make([]string, 0, len(cmd))
		for _, a := range cmd {
			s, ok := a.(string)
			if !ok {
				continue
			}
			argv = append(argv, s)
		}
		if len(argv) == 3 && isShell(argv[0]) && (argv[1] == "-lc" || argv[1] == "-c") {
			return argv[2]
		}
		return strings.Join(argv, " ")
	default:
		return ""
	}
}

func isShell(bin string) bool {
	switch bin[strings.LastIndex(bin, "/")+1:] {
	case "bash", "sh", "zsh":
		return true
	}
	return false
}
