// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package prompt asks for summary options interactively.
package prompt

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/noldarim/worklog/internal/worklog/render"
)

// ErrAborted is returned when the user leaves the form.
var ErrAborted = errors.New("prompt aborted")

// Selection is what the form collects.
type Selection struct {
	Hours  int
	Format render.Format
}

// Form binds a huh form to a Selection.
type Form struct {
	form   *huh.Form
	hours  string
	format string
}

// NewForm builds the form pre-filled with defaults.
func NewForm(defaults Selection) *Form {
	f := &Form{
		hours:  strconv.Itoa(defaults.Hours),
		format: string(defaults.Format),
	}

	formats := make([]huh.Option[string], 0, len(render.Formats))
	for _, rf := range render.Formats {
		formats = append(formats, huh.NewOption(string(rf), string(rf)))
	}

	f.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Lookback hours").
				Description("How far back to look for assistant sessions").
				Value(&f.hours).
				Validate(ValidateHours),
			huh.NewSelect[string]().
				Title("Output format").
				Options(formats...).
				Value(&f.format),
		),
	)
	return f
}

// Selection returns the current field values.
func (f *Form) Selection() (Selection, error) {
	if err := ValidateHours(f.hours); err != nil {
		return Selection{}, err
	}
	hours, _ := strconv.Atoi(strings.TrimSpace(f.hours))

	format, err := render.ParseFormat(f.format)
	if err != nil {
		return Selection{}, err
	}
	return Selection{Hours: hours, Format: format}, nil
}

// Run shows the form and returns the chosen options.
func (f *Form) Run() (Selection, error) {
	if err := f.form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return Selection{}, ErrAborted
		}
		return Selection{}, fmt.Errorf("prompt failed: %w", err)
	}
	return f.Selection()
}

// Ask is NewForm followed by Run.
func Ask(defaults Selection) (Selection, error) {
	return NewForm(defaults).Run()
}

// ValidateHours accepts a positive whole number of hours.
func ValidateHours(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive number of hours")
	}
	return nil
}
