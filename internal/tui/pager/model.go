// Copyright (C) 2025-2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package pager shows long summary output in a scrollable viewport.
package pager

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// statusBarHeight is the separator line plus the status line.
const statusBarHeight = 2

var (
	separatorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("239"))

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("75"))

	hintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))
)

// Model is a read-only pager over a fixed text.
type Model struct {
	viewport viewport.Model
	title    string
	content  string
	width    int
	ready    bool
}

// New creates a pager. The viewport is sized on the first WindowSizeMsg.
func New(title, content string) Model {
	return Model{title: title, content: content}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "g", "home":
			m.viewport.GotoTop()
			return m, nil
		case "G", "end":
			m.viewport.GotoBottom()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		height := msg.Height - statusBarHeight
		if height < 1 {
			height = 1
		}
		if !m.ready {
			m.viewport = viewport.New(msg.Width, height)
			m.viewport.SetContent(m.content)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = height
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	status := fmt.Sprintf("%s %s %3.f%%", titleStyle.Render(m.title),
		hintStyle.Render("q quit · ↑/↓ scroll ·"), m.viewport.ScrollPercent()*100)

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.viewport.View(),
		separatorStyle.Render(strings.Repeat("─", m.width)),
		status,
	)
}

// AtBottom reports whether the last line is visible.
func (m Model) AtBottom() bool {
	return m.ready && m.viewport.AtBottom()
}

// Run shows content full screen until the user quits.
func Run(title, content string) error {
	p := tea.NewProgram(New(title, content), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
