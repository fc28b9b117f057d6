package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Johannes-Berggren/hydrasect/internal/bisect"
	"github.com/Johannes-Berggren/hydrasect/internal/models"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func testSnapshot() Snapshot {
	oid := models.MustParseOid
	return Snapshot{
		Bad:  oid("ff00"),
		Head: oid("cc00"),
		Rows: []bisect.Row{
			{ID: oid("cc00"), Distance: 0, Head: true},
			{ID: oid("bb00"), Distance: 1, Evaluated: true, Closest: true},
			{ID: oid("dd00"), Distance: 1, Evaluated: true, Closest: true},
			{ID: oid("ee00"), Distance: 2, Skipped: true},
			{ID: oid("ff00"), Distance: 3, Bad: true},
		},
	}
}

// send feeds msgs through the model, running returned commands one level
// deep so that their messages are delivered too. Commands that wait, like
// cursor blinks, are abandoned.
func send(t *testing.T, m tea.Model, msgs ...tea.Msg) Model {
	t.Helper()
	for _, msg := range msgs {
		var cmd tea.Cmd
		m, cmd = m.Update(msg)
		if cmd == nil {
			continue
		}
		out := make(chan tea.Msg, 1)
		go func() { out <- cmd() }()
		select {
		case reply := <-out:
			switch reply.(type) {
			case filterDoneMsg, filterCancelMsg, loadedMsg, statusMsg, errMsg:
				m, _ = m.Update(reply)
			}
		case <-time.After(50 * time.Millisecond):
		}
	}
	return m.(Model)
}

func loadedModel(t *testing.T) Model {
	t.Helper()
	m := NewModel(func() (Snapshot, error) { return testSnapshot(), nil })
	msg := m.Init()()
	return send(t, m, tea.WindowSizeMsg{Width: 80, Height: 10}, msg)
}

func selected(t *testing.T, m Model) string {
	t.Helper()
	row, ok := m.rangeView.Selected()
	require.True(t, ok)
	return row.ID.String()
}

func TestModel_LoadAndView(t *testing.T) {
	m := loadedModel(t)

	view := m.View()
	assert.Contains(t, view, "hydrasect")
	assert.Contains(t, view, "cc00 (HEAD)")
	assert.Contains(t, view, "bb00 (closest) (eval)")
	assert.Contains(t, view, "ee00 (skip)")
	assert.Contains(t, view, "y: copy id")
	assert.Equal(t, "cc00", selected(t, m))
}

func TestModel_Navigation(t *testing.T) {
	m := loadedModel(t)

	m = send(t, m, key("j"), key("j"))
	assert.Equal(t, "dd00", selected(t, m))

	m = send(t, m, key("k"))
	assert.Equal(t, "bb00", selected(t, m))

	m = send(t, m, key("G"))
	assert.Equal(t, "ff00", selected(t, m))
	// Five rows of chrome leave five visible rows at height 10.
	assert.Equal(t, 0, m.rangeView.offset)

	m = send(t, m, key("j"))
	assert.Equal(t, "ff00", selected(t, m), "cursor stops at the end")

	m = send(t, m, key("g"))
	assert.Equal(t, "cc00", selected(t, m))

	m = send(t, m, key("k"))
	assert.Equal(t, "cc00", selected(t, m), "cursor stops at the top")
}

func TestModel_Scrolls(t *testing.T) {
	m := NewModel(func() (Snapshot, error) { return testSnapshot(), nil })
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 7}, m.Init()())

	m = send(t, m, key("j"), key("j"))
	assert.Equal(t, 1, m.rangeView.offset)
	assert.NotContains(t, m.rangeView.View(), "cc00")

	m = send(t, m, key("G"))
	assert.Equal(t, 3, m.rangeView.offset)
	assert.Contains(t, m.rangeView.View(), "ff00")
}

func TestModel_Filter(t *testing.T) {
	m := loadedModel(t)

	m = send(t, m, key("/"))
	require.NotNil(t, m.filter)
	assert.Contains(t, m.View(), "Filter:")

	m = send(t, m, key("d"), key("q"), key("esc"))
	assert.Nil(t, m.filter, "q is typed into the filter, not a quit")
	assert.Equal(t, 5, m.rangeView.Len())

	m = send(t, m, key("/"), key("E"), key("enter"))
	assert.Nil(t, m.filter)
	assert.Equal(t, 1, m.rangeView.Len())
	assert.Equal(t, "ee00", selected(t, m))

	m = send(t, m, key("/"), key("9"), key("enter"))
	assert.Equal(t, 0, m.rangeView.Len())
	assert.Contains(t, m.View(), `No commit starts with "9"`)
}

func TestModel_Copy(t *testing.T) {
	m := loadedModel(t)
	var copied []string
	m.copy = func(s string) error {
		copied = append(copied, s)
		return nil
	}

	m = send(t, m, key("j"), key("y"))
	assert.Equal(t, []string{"bb00"}, copied)
	assert.Contains(t, m.View(), "copied bb00")

	m.copy = func(string) error { return errors.New("no clipboard utility") }
	m = send(t, m, key("y"))
	assert.Contains(t, m.View(), "copy failed: no clipboard utility")
}

func TestModel_Reload(t *testing.T) {
	calls := 0
	m := NewModel(func() (Snapshot, error) {
		calls++
		s := testSnapshot()
		s.Rows = s.Rows[:calls]
		return s, nil
	})
	m = send(t, m, tea.WindowSizeMsg{Width: 80, Height: 10}, m.Init()())
	assert.Equal(t, 1, m.rangeView.Len())

	m = send(t, m, key("r"))
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, m.rangeView.Len())
}

func TestModel_Quit(t *testing.T) {
	m := loadedModel(t)
	_, cmd := m.Update(key("q"))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestModel_LoadError(t *testing.T) {
	m := NewModel(func() (Snapshot, error) { return Snapshot{}, errors.New("not bisecting") })
	m = send(t, m, m.Init()())
	assert.True(t, strings.HasPrefix(m.View(), "Error: not bisecting"))
}

func TestShort(t *testing.T) {
	assert.Equal(t, "-", short(models.Oid{}))
	assert.Equal(t, "abcd", short(models.MustParseOid("abcd")))
	assert.Equal(t, "0011f9065a1a", short(models.MustParseOid("0011f9065a1ad1da4db67bec8d535d91b0a78fba")))
}
