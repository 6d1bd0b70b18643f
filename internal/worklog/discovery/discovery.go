// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package discovery enumerates log files under an assistant's log store.
// Results are always returned in lexical order so that runs over an
// unchanged store visit files identically.
package discovery

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/gobwas/glob"
)

// Kind selects which directory entries a match considers.
type Kind int

const (
	Files Kind = iota
	Dirs
)

// Matcher matches base names against a shell-style pattern.
type Matcher struct {
	pattern string
	g       glob.Glob
}

// NewMatcher compiles a pattern such as "rollout-*.jsonl".
func NewMatcher(pattern string) (*Matcher, error) {
	g, err := glob.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid pattern %q: %w", pattern, err)
	}
	return &Matcher{pattern: pattern, g: g}, nil
}

// MustMatcher is NewMatcher for patterns known at compile time.
func MustMatcher(pattern string) *Matcher {
	m, err := NewMatcher(pattern)
	if err != nil {
		panic(err)
	}
	return m
}

// Match reports whether name matches the pattern.
func (m *Matcher) Match(name string) bool {
	return m.g.Match(name)
}

// String returns the source pattern.
func (m *Matcher) String() string {
	return m.pattern
}

// List returns the full paths of entries in dir whose names match.
// A missing directory yields no entries and no error.
func (m *Matcher) List(dir string, kind Kind) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}

	var paths []string
	for _, entry := range entries {
		if !m.Match(entry.Name()) {
			continue
		}
		full := filepath.Join(dir, entry.Name())
		if isDir(entry, full) != (kind == Dirs) {
			continue
		}
		paths = append(paths, full)
	}
	sort.Strings(paths)
	return paths, nil
}

// Exists reports whether path exists and is a directory.
func Exists(dir string) bool {
	info, err := os.Stat(dir)
	return err == nil && info.IsDir()
}

// isDir treats symlinks to directories as directories.
func isDir(entry os.DirEntry, full string) bool {
	if entry.IsDir() {
		return true
	}
	if entry.Type()&os.ModeSymlink == 0 {
		return false
	}
	info, err := os.Stat(full)
	return err == nil && info.IsDir()
}
