// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package render turns a merged summary into the output formats of the
// summary command and the HTTP endpoint. Output is a pure function of its
// input: rendering the same summary twice yields identical bytes.
package render

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/samber/lo"

	"github.com/noldarim/worklog/internal/worklog/aggregate"
	"github.com/noldarim/worklog/internal/worklog/classify"
	"github.com/noldarim/worklog/internal/worklog/types"
)

// Format names an output format.
type Format string

const (
	FormatLog     Format = "log"
	FormatBullets Format = "bullets"
	FormatYAML    Format = "yaml"
	FormatJSON    Format = "json"
)

// Formats lists every supported format.
var Formats = []Format{FormatLog, FormatBullets, FormatYAML, FormatJSON}

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(s)))
	if !lo.Contains(Formats, f) {
		return "", fmt.Errorf("unknown format %q (want one of %s)", s, strings.Join(lo.Map(Formats, func(f Format, _ int) string {
			return string(f)
		}), ", "))
	}
	return f, nil
}

// EmptyMessage is printed instead of a log or digest when nothing was found.
const EmptyMessage = "No work activities found."

// Options controls text rendering.
type Options struct {
	RequestWidth int
	MaxFiles     int
	TimeFormat   string
	Location     *time.Location
	// Renderer styles project headers. Nil renders plain text.
	Renderer *lipgloss.Renderer
}

// DefaultOptions renders in local time without styling.
func DefaultOptions() Options {
	return Options{
		RequestWidth: 100,
		MaxFiles:     5,
		TimeFormat:   "15:04",
		Location:     time.Local,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.RequestWidth > 0 {
		d.RequestWidth = o.RequestWidth
	}
	if o.MaxFiles > 0 {
		d.MaxFiles = o.MaxFiles
	}
	if o.TimeFormat != "" {
		d.TimeFormat = o.TimeFormat
	}
	if o.Location != nil {
		d.Location = o.Location
	}
	d.Renderer = o.Renderer
	return d
}

// Log renders the per-project activity log.
func Log(s types.Summary, opts Options) string {
	if s.Count() == 0 {
		return EmptyMessage
	}
	opts = opts.withDefaults()

	header := func(project string) string { return "=== " + project + " ===" }
	if opts.Renderer != nil {
		style := opts.Renderer.NewStyle().Bold(true).Foreground(lipgloss.Color("75"))
		header = func(project string) string { return style.Render("=== " + project + " ===") }
	}

	var lines []string
	for _, project := range s.Projects() {
		activities := s[project]
		if len(activities) == 0 {
			continue
		}
		lines = append(lines, "\n"+header(project)+"\n")

		for _, a := range activities {
			lines = append(lines,
				fmt.Sprintf("[%s] [%s]", a.Timestamp.In(opts.Location).Format(opts.TimeFormat), strings.ToUpper(string(a.Source))),
				"Request: "+classify.Truncate(a.Request, opts.RequestWidth),
			)
			if len(a.Tools) > 0 {
				lines = append(lines, "Tools: "+strings.Join(lo.Uniq(a.Tools), ", "))
			}
			if len(a.Files) > 0 {
				files := lo.Map(lo.Slice(a.Files, 0, opts.MaxFiles), func(f types.FileRef, _ int) string {
					return f.String()
				})
				lines = append(lines, "Files: "+strings.Join(files, ", "))
			}
			lines = append(lines, "---\n")
		}
	}
	return strings.Join(lines, "\n")
}

// Bullets renders the digest under a "Key Activities" heading.
func Bullets(s types.Summary, bullets []string) string {
	if s.Count() == 0 {
		return EmptyMessage
	}
	lines := []string{"\n=== Key Activities ===\n"}
	for _, b := range bullets {
		lines = append(lines, "• "+b)
	}
	return strings.Join(lines, "\n")
}

// Write renders a collection result in the given format to w.
func Write(w io.Writer, format Format, res aggregate.Result, bullets []string, opts Options) error {
	switch format {
	case FormatLog:
		_, err := fmt.Fprintln(w, Log(res.Summary, opts))
		return err
	case FormatBullets:
		_, err := fmt.Fprintln(w, Bullets(res.Summary, bullets))
		return err
	case FormatYAML:
		data, err := YAML(NewReport(res, bullets, opts.withDefaults().Location))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case FormatJSON:
		data, err := JSON(NewReport(res, bullets, opts.withDefaults().Location))
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}
