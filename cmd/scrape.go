package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Johannes-Berggren/hydrasect/internal/config"
	"github.com/Johannes-Berggren/hydrasect/internal/ui"
)

func newScrapeCmd(opts *options, e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "scrape",
		Short: "Download the history of evaluated nixpkgs commits",
		Long: `scrape replaces the history file with a fresh copy from the configured
source: the channel history file, or every evaluation of the Hydra jobset.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd, opts, e)
			if err != nil {
				return err
			}
			return a.scrape(cmd.Context())
		},
	}
}

func (a *app) scrape(ctx context.Context) error {
	source := a.cfg.ChannelURL
	if a.cfg.Source == config.SourceHydra {
		h := a.cfg.Hydra
		source = h.Project + "/" + h.Jobset
	}
	a.logger.Info("scraping", "source", source, "path", a.historyPath)

	if a.env.isTerminal(os.Stderr) {
		return ui.RunScrape(ctx, source, a.env.stdin, a.env.stderr, a.refresh)
	}
	return a.refresh(ctx, func(page, last int) {
		if last > 0 {
			fmt.Fprintf(a.env.stderr, "page %d/%d\n", page, last)
		} else {
			fmt.Fprintf(a.env.stderr, "page %d\n", page)
		}
	})
}

// refresh replaces the history file, reporting pages to progress. The
// channel source is a single download and reports one page when done.
func (a *app) refresh(ctx context.Context, progress func(page, last int)) error {
	if err := a.refresher(progress).Refresh(ctx, a.historyPath); err != nil {
		return err
	}
	if a.cfg.Source != config.SourceHydra {
		progress(1, 1)
	}
	return nil
}
