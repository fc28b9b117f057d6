package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var errInterrupted = errors.New("interrupted")

// PageMsg reports that a page of evaluations was fetched.
type PageMsg struct {
	Page int
	// Last is 0 while the number of pages is unknown.
	Last int
}

// DoneMsg ends the scrape view.
type DoneMsg struct {
	Err error
}

// ScrapeView shows how far a scrape has come.
type ScrapeView struct {
	source  string
	page    int
	last    int
	bar     progress.Model
	spinner spinner.Model
	done    bool
	err     error
	width   int
}

func NewScrapeView(source string) *ScrapeView {
	return &ScrapeView{
		source:  source,
		bar:     progress.New(progress.WithDefaultGradient()),
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot)),
	}
}

func (s *ScrapeView) Init() tea.Cmd {
	return s.spinner.Tick
}

func (s *ScrapeView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			s.err = errInterrupted
			return s, tea.Quit
		}

	case PageMsg:
		s.page = msg.Page
		if msg.Last > 0 {
			s.last = msg.Last
		}
		if s.last > 0 {
			return s, s.bar.SetPercent(float64(s.page) / float64(s.last))
		}

	case DoneMsg:
		s.done = true
		s.err = msg.Err
		return s, tea.Quit

	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.bar.Width = msg.Width - 8
		if s.bar.Width > 60 {
			s.bar.Width = 60
		}

	case progress.FrameMsg:
		m, cmd := s.bar.Update(msg)
		s.bar = m.(progress.Model)
		return s, cmd

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}

	return s, nil
}

func (s *ScrapeView) View() string {
	titleStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("14")).
		Bold(true)

	title := titleStyle.Render("Scraping " + s.source)

	var status string
	switch {
	case s.done && s.err == nil:
		status = markerStyles["closest"].Render("done") + dimStyle.Render(fmt.Sprintf(" after %d pages", s.page))
	case s.done:
		status = markerStyles["bad"].Render("failed")
	case s.last > 0:
		status = s.bar.View() + dimStyle.Render(fmt.Sprintf("  page %d/%d", s.page, s.last))
	default:
		status = s.spinner.View() + dimStyle.Render(" fetching first page")
	}

	return "\n" + lipgloss.NewStyle().MarginLeft(2).Render(title+"\n\n"+status) + "\n"
}

// Err is the error the scrape finished with, if any.
func (s *ScrapeView) Err() error {
	return s.err
}

// RunScrape shows a ScrapeView on out while run works. run receives a
// callback to report pages with; its context is cancelled when the view
// is interrupted.
func RunScrape(ctx context.Context, source string, in io.Reader, out io.Writer, run func(ctx context.Context, progress func(page, last int)) error) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	view := NewScrapeView(source)
	p := tea.NewProgram(view, tea.WithContext(ctx), tea.WithInput(in), tea.WithOutput(out))

	go func() {
		err := run(ctx, func(page, last int) {
			p.Send(PageMsg{Page: page, Last: last})
		})
		p.Send(DoneMsg{Err: err})
	}()

	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running progress display: %w", err)
	}
	if err := view.Err(); err != nil {
		return err
	}
	return ctx.Err()
}
