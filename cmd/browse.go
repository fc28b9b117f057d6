package cmd

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/Johannes-Berggren/hydrasect/internal/models"
	"github.com/Johannes-Berggren/hydrasect/internal/ui"
)

var errNoTerminal = errors.New("browse needs a terminal")

func newBrowseCmd(opts *options, e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Explore the bisection range interactively",
		Long: `browse lists every commit left in the bisection range by distance from
HEAD and marks the ones Hydra evaluated, the closest of them, and the
skipped ones.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !e.isTerminal(e.stdin) || !e.isTerminal(e.stdout) {
				return errNoTerminal
			}
			a, err := newApp(cmd, opts, e)
			if err != nil {
				return err
			}
			return a.browse(cmd.Context())
		},
	}
}

func (a *app) browse(ctx context.Context) error {
	p := tea.NewProgram(
		ui.NewModel(func() (ui.Snapshot, error) { return a.snapshot(ctx) }),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
		tea.WithInput(a.env.stdin),
		tea.WithOutput(a.env.stdout),
	)
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}

// snapshot runs a search and lays the whole range out for display.
func (a *app) snapshot(ctx context.Context) (ui.Snapshot, error) {
	res, err := a.finder().Find(ctx)
	if err != nil {
		return ui.Snapshot{}, err
	}

	rows, err := res.Rows(func(id models.Oid) (bool, error) {
		return a.repo.HasSkipRef(ctx, id)
	})
	if err != nil {
		return ui.Snapshot{}, err
	}

	bad, _ := res.Graph.Bad()
	return ui.Snapshot{
		Bad:  bad,
		Head: res.Head,
		Rows: rows,
	}, nil
}
