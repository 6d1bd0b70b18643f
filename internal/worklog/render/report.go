// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/noldarim/worklog/internal/worklog/aggregate"
	"github.com/noldarim/worklog/internal/worklog/types"
)

// Report is the structured export of one run.
type Report struct {
	GeneratedAt   string                  `json:"generated_at" yaml:"generated_at"`
	Since         string                  `json:"since" yaml:"since"`
	LookbackHours int                     `json:"lookback_hours" yaml:"lookback_hours"`
	Sources       []aggregate.SourceCount `json:"sources" yaml:"sources"`
	Projects      []ProjectReport         `json:"projects" yaml:"projects"`
	KeyActivities []string                `json:"key_activities" yaml:"key_activities"`
}

// ProjectReport holds one project's activities in chronological order.
type ProjectReport struct {
	Name       string           `json:"name" yaml:"name"`
	Activities []ActivityReport `json:"activities" yaml:"activities"`
}

// ActivityReport is an activity with its time rendered in the report location.
type ActivityReport struct {
	Time      string          `json:"time" yaml:"time"`
	Source    types.Source    `json:"source" yaml:"source"`
	Request   string          `json:"request" yaml:"request"`
	Tools     []string        `json:"tools,omitempty" yaml:"tools,omitempty"`
	Files     []types.FileRef `json:"files,omitempty" yaml:"files,omitempty"`
	SessionID string          `json:"session_id,omitempty" yaml:"session_id,omitempty"`
	Chain     string          `json:"chain,omitempty" yaml:"chain,omitempty"`
	State     string          `json:"state,omitempty" yaml:"state,omitempty"`
}

// NewReport builds the export of a result. Projects are sorted by name.
func NewReport(res aggregate.Result, bullets []string, loc *time.Location) Report {
	if loc == nil {
		loc = time.Local
	}
	stamp := func(t time.Time) string { return t.In(loc).Format(time.RFC3339) }

	r := Report{
		GeneratedAt:   stamp(res.Window.Now),
		Since:         stamp(res.Window.Cutoff()),
		LookbackHours: res.Window.Hours(),
		Sources:       append([]aggregate.SourceCount{}, res.Counts...),
		Projects:      []ProjectReport{},
		KeyActivities: append([]string{}, bullets...),
	}

	for _, project := range res.Summary.Projects() {
		pr := ProjectReport{Name: project}
		for _, a := range res.Summary[project] {
			pr.Activities = append(pr.Activities, ActivityReport{
				Time:      stamp(a.Timestamp),
				Source:    a.Source,
				Request:   a.Request,
				Tools:     a.Tools,
				Files:     a.Files,
				SessionID: a.SessionID,
				Chain:     a.Chain,
				State:     a.State,
			})
		}
		r.Projects = append(r.Projects, pr)
	}
	return r
}

// YAML encodes a report with two-space indentation.
func YAML(r Report) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(r); err != nil {
		return nil, fmt.Errorf("failed to encode yaml report: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode yaml report: %w", err)
	}
	return buf.Bytes(), nil
}

// JSON encodes a report as indented JSON followed by a newline.
func JSON(r Report) ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode json report: %w", err)
	}
	return append(data, '\n'), nil
}
