// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package classify

import (
	"path/filepath"
	"strings"

	"github.com/samber/lo"
)

// ProjectFromDirName derives a project from a Claude-style directory name,
// an absolute path with "-" in place of separators, e.g.
// "-Users-me-Projects-blueprint-bp-informatica" -> "blueprint-bp-informatica".
// Without an anchor segment, or with nothing after it, the name is returned as is.
func ProjectFromDirName(dirName, anchor string) string {
	parts := strings.Split(dirName, "-")
	idx := lo.IndexOf(parts, anchor)
	if idx < 0 || idx+1 >= len(parts) {
		return dirName
	}
	return strings.Join(parts[idx+1:], "-")
}

// ProjectFromCWD returns the first path segment after the anchor in a
// working directory, falling back to the last segment.
func ProjectFromCWD(cwd, anchor string) string {
	parts := splitPath(cwd)
	if len(parts) == 0 {
		return UnknownProject
	}
	if idx := lo.IndexOf(parts, anchor); idx >= 0 && idx+1 < len(parts) {
		return parts[idx+1]
	}
	return parts[len(parts)-1]
}

// ProjectFromCachePath returns the segment after the anchor with its hash
// suffix removed: ".../projects/smile-app.9b05b6ff/matterhorn" -> "smile-app".
func ProjectFromCachePath(path, anchor string) string {
	parts := splitPath(path)
	idx := lo.IndexOf(parts, anchor)
	if idx < 0 || idx+1 >= len(parts) {
		return UnknownProject
	}
	name, _, _ := strings.Cut(parts[idx+1], ".")
	if name == "" {
		return UnknownProject
	}
	return name
}

func splitPath(p string) []string {
	p = filepath.ToSlash(filepath.Clean(p))
	return lo.Filter(strings.Split(p, "/"), func(s string, _ int) bool {
		return s != "" && s != "."
	})
}
