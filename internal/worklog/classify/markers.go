// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package classify

import "strings"

// AfterMarker extracts the real request from text that begins with an IDE
// context preamble. Text without the preamble is returned unchanged. When
// the preamble is present the trimmed text after the first marker is
// returned, and ok is false if the marker is missing.
func AfterMarker(text, preamble, marker string) (string, bool) {
	if !strings.HasPrefix(text, preamble) {
		return text, true
	}
	_, after, found := strings.Cut(text, marker)
	if !found {
		return "", false
	}
	return strings.TrimSpace(after), true
}

// Tagged returns the trimmed text between the first <tag> and the first
// </tag>. ok is false when either delimiter is missing, when they are out of
// order, or when the enclosed text is blank.
func Tagged(text, tag string) (string, bool) {
	open := "<" + tag + ">"
	closing := "</" + tag + ">"

	start := strings.Index(text, open)
	end := strings.Index(text, closing)
	if start < 0 || end < 0 {
		return "", false
	}
	start += len(open)
	if end < start {
		return "", false
	}

	segment := strings.TrimSpace(text[start:end])
	return segment, segment != ""
}
