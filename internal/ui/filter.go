package ui

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type filterDoneMsg struct {
	prefix string
}

type filterCancelMsg struct{}

// FilterInput asks for a commit id prefix.
type FilterInput struct {
	textInput textinput.Model
}

func NewFilterInput() *FilterInput {
	ti := textinput.New()
	ti.Placeholder = "commit id prefix"
	ti.Focus()
	ti.CharLimit = 64
	ti.Width = 40

	return &FilterInput{textInput: ti}
}

func (f *FilterInput) Init() tea.Cmd {
	return textinput.Blink
}

func (f *FilterInput) Update(msg tea.Msg) (*FilterInput, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok {
		switch msg.String() {
		case "enter":
			prefix := f.textInput.Value()
			return f, func() tea.Msg { return filterDoneMsg{prefix: prefix} }
		case "esc":
			return f, func() tea.Msg { return filterCancelMsg{} }
		}
	}

	f.textInput, cmd = f.textInput.Update(msg)
	return f, cmd
}

func (f *FilterInput) View() string {
	promptStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	return promptStyle.Render("Filter: ") + f.textInput.View() + "  " +
		dimStyle.Render("enter to apply • esc to clear")
}
