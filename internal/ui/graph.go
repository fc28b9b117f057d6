package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/Johannes-Berggren/hydrasect/internal/bisect"
)

// chromeLines is the height taken by the header and footer.
const chromeLines = 5

// RangeView is a scrollable list of the commits in the bisection range.
type RangeView struct {
	rows     []bisect.Row
	filter   string
	filtered []int
	cursor   int
	offset   int
	height   int
	width    int
}

func NewRangeView() *RangeView {
	return &RangeView{}
}

// SetRows replaces the list, keeping the filter.
func (g *RangeView) SetRows(rows []bisect.Row) {
	g.rows = rows
	g.applyFilter()
}

// SetFilter shows only commits whose id starts with prefix.
func (g *RangeView) SetFilter(prefix string) {
	g.filter = strings.ToLower(prefix)
	g.applyFilter()
}

func (g *RangeView) applyFilter() {
	g.filtered = g.filtered[:0]
	for i, r := range g.rows {
		if strings.HasPrefix(r.ID.String(), g.filter) {
			g.filtered = append(g.filtered, i)
		}
	}
	g.cursor = 0
	g.offset = 0
}

func (g *RangeView) visible() int {
	n := g.height - chromeLines
	if n < 1 {
		n = 1
	}
	return n
}

func (g *RangeView) Update(msg tea.Msg) (*RangeView, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if g.cursor < len(g.filtered)-1 {
				g.cursor++
				if g.cursor >= g.offset+g.visible() {
					g.offset++
				}
			}

		case "k", "up":
			if g.cursor > 0 {
				g.cursor--
				if g.cursor < g.offset {
					g.offset--
				}
			}

		case "g":
			g.cursor = 0
			g.offset = 0

		case "G":
			g.cursor = len(g.filtered) - 1
			if g.cursor < 0 {
				g.cursor = 0
			}
			g.offset = 0
			if g.cursor >= g.visible() {
				g.offset = g.cursor - g.visible() + 1
			}
		}

	case tea.WindowSizeMsg:
		g.width = msg.Width
		g.height = msg.Height
	}

	return g, nil
}

func (g *RangeView) View() string {
	if len(g.rows) == 0 {
		return dimStyle.Render("Loading bisection range...")
	}
	if len(g.filtered) == 0 {
		return dimStyle.Render(fmt.Sprintf("No commit starts with %q", g.filter))
	}

	var b strings.Builder
	end := g.offset + g.visible()
	if end > len(g.filtered) {
		end = len(g.filtered)
	}
	for i := g.offset; i < end; i++ {
		b.WriteString(formatRow(g.rows[g.filtered[i]], i == g.cursor))
		b.WriteString("\n")
	}
	return b.String()
}

var (
	dimStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	idStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	distStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("238")).
			Foreground(lipgloss.Color("15"))

	markerStyles = map[string]lipgloss.Style{
		"bad":     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		"HEAD":    lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true),
		"closest": lipgloss.NewStyle().Foreground(lipgloss.Color("34")).Bold(true),
		"eval":    lipgloss.NewStyle().Foreground(lipgloss.Color("10")),
		"skip":    lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
	}
)

// markers lists the labels shown after a commit id.
func markers(r bisect.Row) []string {
	var m []string
	if r.Bad {
		m = append(m, "bad")
	}
	if r.Head {
		m = append(m, "HEAD")
	}
	if r.Closest {
		m = append(m, "closest")
	}
	if r.Evaluated {
		m = append(m, "eval")
	}
	if r.Skipped {
		m = append(m, "skip")
	}
	return m
}

func formatDistance(d int) string {
	if d == bisect.Unreachable {
		return "  -"
	}
	return fmt.Sprintf("%3d", d)
}

func formatRow(r bisect.Row, selected bool) string {
	parts := []string{
		distStyle.Render(formatDistance(r.Distance)),
		idStyle.Render(r.ID.String()),
	}
	for _, m := range markers(r) {
		parts = append(parts, markerStyles[m].Render("("+m+")"))
	}
	line := strings.Join(parts, " ")

	if selected {
		return selectedStyle.Render("▸ " + line)
	}
	return "  " + line
}

// Selected returns the row under the cursor.
func (g *RangeView) Selected() (bisect.Row, bool) {
	if g.cursor < 0 || g.cursor >= len(g.filtered) {
		return bisect.Row{}, false
	}
	return g.rows[g.filtered[g.cursor]], true
}

// Len is the number of rows shown with the current filter.
func (g *RangeView) Len() int {
	return len(g.filtered)
}
