// Package bisect ties the pieces together: it reads the bisection range
// and the evaluation history, then finds the evaluated commits nearest to
// the current checkout.
package bisect

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Johannes-Berggren/hydrasect/internal/git"
	"github.com/Johannes-Berggren/hydrasect/internal/graph"
	"github.com/Johannes-Berggren/hydrasect/internal/history"
	"github.com/Johannes-Berggren/hydrasect/internal/models"
	"github.com/Johannes-Berggren/hydrasect/internal/search"
)

// Result is everything one search looked at.
type Result struct {
	Graph     *graph.Graph
	Head      models.Oid
	Evaluated models.OidSet
	Closest   models.OidSet
}

// Finder runs a search against a repository in the middle of a bisection.
type Finder struct {
	Repo    git.Repository
	History *history.Policy
	Logger  *slog.Logger
}

// Find loads the history, the range and HEAD, and runs the proximity
// search with skipped commits excluded.
func (f *Finder) Find(ctx context.Context) (*Result, error) {
	log := f.Logger
	if log == nil {
		log = slog.Default()
	}

	evaluated, err := f.History.Load(ctx, git.BadRef)
	if err != nil {
		return nil, err
	}

	head, err := f.Repo.Head(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving HEAD: %w", err)
	}

	g, err := git.BisectGraph(ctx, f.Repo)
	if err != nil {
		return nil, fmt.Errorf("finding bisect graph: %w", err)
	}
	log.Debug("read bisection range", "commits", g.Len(), "head", head.String())

	closest, err := search.Closest(head, g, evaluated, git.NotSkipped(ctx, f.Repo))
	if err != nil {
		return nil, fmt.Errorf("finding closest commits: %w", err)
	}
	log.Debug("search finished", "closest", closest.Len())

	return &Result{
		Graph:     g,
		Head:      head,
		Evaluated: evaluated,
		Closest:   closest,
	}, nil
}
