package ui

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScrapeView(t *testing.T) {
	s := NewScrapeView("nixos/unstable-small")
	s.Update(tea.WindowSizeMsg{Width: 100, Height: 20})
	assert.Equal(t, 60, s.bar.Width)
	assert.Contains(t, s.View(), "fetching first page")

	_, cmd := s.Update(PageMsg{Page: 1, Last: 4})
	assert.NotNil(t, cmd, "the bar animates towards the new percentage")
	assert.Contains(t, s.View(), "page 1/4")

	s.Update(PageMsg{Page: 2})
	assert.Contains(t, s.View(), "page 2/4", "a missing last page keeps the known one")

	_, cmd = s.Update(DoneMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Contains(t, s.View(), "done after 2 pages")
	assert.NoError(t, s.Err())
}

func TestScrapeView_Failure(t *testing.T) {
	s := NewScrapeView("hydra")
	s.Update(DoneMsg{Err: errors.New("503")})
	assert.Contains(t, s.View(), "failed")
	assert.EqualError(t, s.Err(), "503")
}

func TestScrapeView_Interrupt(t *testing.T) {
	s := NewScrapeView("hydra")
	_, cmd := s.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.ErrorIs(t, s.Err(), errInterrupted)
}

func TestRunScrape(t *testing.T) {
	var out bytes.Buffer
	err := RunScrape(context.Background(), "channel", strings.NewReader(""), &out, func(ctx context.Context, progress func(page, last int)) error {
		progress(1, 2)
		progress(2, 2)
		return nil
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Scraping channel")
}

func TestRunScrape_Error(t *testing.T) {
	boom := errors.New("boom")
	err := RunScrape(context.Background(), "channel", strings.NewReader(""), &bytes.Buffer{}, func(context.Context, func(int, int)) error {
		return boom
	})
	assert.ErrorIs(t, err, boom)
}
