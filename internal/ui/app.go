// Package ui holds hydrasect's terminal views.
package ui

import (
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Johannes-Berggren/hydrasect/internal/bisect"
	"github.com/Johannes-Berggren/hydrasect/internal/models"
)

// Snapshot is what the browser shows.
type Snapshot struct {
	Bad  models.Oid
	Head models.Oid
	Rows []bisect.Row
}

// LoadFunc runs a search and describes the range.
type LoadFunc func() (Snapshot, error)

type errMsg struct {
	err error
}

type loadedMsg struct {
	snapshot Snapshot
}

type statusMsg string

// Model browses the bisection range.
type Model struct {
	width     int
	height    int
	load      LoadFunc
	copy      func(string) error
	rangeView *RangeView
	filter    *FilterInput
	snapshot  Snapshot
	status    string
	err       error
}

// NewModel returns a browser that calls load on start and on refresh.
func NewModel(load LoadFunc) Model {
	return Model{
		load:      load,
		copy:      clipboard.WriteAll,
		rangeView: NewRangeView(),
	}
}

func (m Model) Init() tea.Cmd {
	return m.loadRange()
}

func (m Model) loadRange() tea.Cmd {
	return func() tea.Msg {
		s, err := m.load()
		if err != nil {
			return errMsg{err}
		}
		return loadedMsg{s}
	}
}

func (m Model) copySelected() tea.Cmd {
	row, ok := m.rangeView.Selected()
	if !ok {
		return nil
	}
	id := row.ID.String()
	return func() tea.Msg {
		if err := m.copy(id); err != nil {
			return statusMsg(fmt.Sprintf("copy failed: %v", err))
		}
		return statusMsg("copied " + id)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd, filterCmd tea.Cmd

	if m.filter != nil {
		switch msg := msg.(type) {
		case filterDoneMsg:
			m.filter = nil
			m.rangeView.SetFilter(msg.prefix)
			return m, nil
		case filterCancelMsg:
			m.filter = nil
			m.rangeView.SetFilter("")
			return m, nil
		case tea.KeyMsg:
			m.filter, cmd = m.filter.Update(msg)
			return m, cmd
		default:
			// Cursor blinks and the like.
			m.filter, filterCmd = m.filter.Update(msg)
		}
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.status = "reloading..."
			return m, m.loadRange()
		case "y":
			return m, m.copySelected()
		case "/":
			m.filter = NewFilterInput()
			return m, m.filter.Init()
		}

	case loadedMsg:
		m.snapshot = msg.snapshot
		m.rangeView.SetRows(msg.snapshot.Rows)
		m.status = ""

	case statusMsg:
		m.status = string(msg)

	case errMsg:
		m.err = msg.err
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	m.rangeView, cmd = m.rangeView.Update(msg)

	return m, tea.Batch(cmd, filterCmd)
}

func (m Model) View() string {
	if m.err != nil {
		return fmt.Sprintf("Error: %v\n", m.err)
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.rangeView.View(),
		m.renderFooter(),
	)
}

func (m Model) closestCount() int {
	n := 0
	for _, r := range m.snapshot.Rows {
		if r.Closest {
			n++
		}
	}
	return n
}

func (m Model) renderHeader() string {
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("170")).
		MarginRight(2)

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	dividerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238"))

	title := titleStyle.Render("hydrasect")
	info := fmt.Sprintf("%s %s  %s %s  %s %d  %s %d",
		labelStyle.Render("bad"), markerStyles["bad"].Render(short(m.snapshot.Bad)),
		labelStyle.Render("HEAD"), markerStyles["HEAD"].Render(short(m.snapshot.Head)),
		labelStyle.Render("commits"), len(m.snapshot.Rows),
		labelStyle.Render("closest"), m.closestCount(),
	)

	headerLine := lipgloss.JoinHorizontal(lipgloss.Top, title, info)
	divider := dividerStyle.Render(strings.Repeat("─", m.width))

	return lipgloss.JoinVertical(lipgloss.Left, headerLine, divider)
}

func (m Model) renderFooter() string {
	dividerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("238"))
	divider := dividerStyle.Render(strings.Repeat("─", m.width))

	if m.filter != nil {
		return lipgloss.JoinVertical(lipgloss.Left, divider, m.filter.View())
	}

	keys := []string{
		"j/k: navigate",
		"g/G: top/bottom",
		"/: filter",
		"y: copy id",
		"r: reload",
		"q: quit",
	}
	help := dimStyle.Render(strings.Join(keys, " • "))
	if m.status != "" {
		help = dimStyle.Render(m.status) + "  " + help
	}

	return lipgloss.JoinVertical(lipgloss.Left, divider, help)
}

func short(id models.Oid) string {
	s := id.String()
	if len(s) > 12 {
		return s[:12]
	}
	if s == "" {
		return "-"
	}
	return s
}
