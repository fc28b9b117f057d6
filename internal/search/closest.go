// Package search finds the evaluated commits nearest to a start commit in
// the bisection graph.
package search

import (
	"errors"
	"fmt"

	"github.com/Johannes-Berggren/hydrasect/internal/graph"
	"github.com/Johannes-Berggren/hydrasect/internal/models"
)

// ErrStartNotInGraph is returned when the start commit is not part of the
// bisection range.
var ErrStartNotInGraph = errors.New("start commit is not in the bisection graph")

// Predicate reports whether a candidate may be returned. It is called at
// most once per candidate, in ascending Oid order within a ring.
type Predicate func(id models.Oid) (bool, error)

// Always accepts every candidate.
func Always(models.Oid) (bool, error) {
	return true, nil
}

// Closest walks g outward from start, ignoring edge direction, and returns
// every eligible target at the smallest distance that has one. The graph's
// bad commit is never returned. An empty set means nothing eligible is
// reachable.
func Closest(start models.Oid, g *graph.Graph, targets models.OidSet, eligible Predicate) (models.OidSet, error) {
	if !g.Has(start) {
		return nil, fmt.Errorf("%s: %w", start, ErrStartNotInGraph)
	}

	targets = targets.Clone()
	if bad, ok := g.Bad(); ok {
		targets.Remove(bad)
	}

	frontier := models.NewOidSet(start)
	visited := models.OidSet{}

	for frontier.Len() > 0 {
		matches := models.OidSet{}
		for _, id := range frontier.Intersect(targets).Sorted() {
			ok, err := eligible(id)
			if err != nil {
				return nil, fmt.Errorf("checking %s: %w", id, err)
			}
			if ok {
				matches.Add(id)
			}
		}
		if matches.Len() > 0 {
			return matches, nil
		}

		for id := range frontier {
			visited.Add(id)
		}
		frontier = expand(g, frontier, visited)
	}

	return models.OidSet{}, nil
}

// Distances returns the number of undirected edges between start and every
// vertex reachable from it.
func Distances(start models.Oid, g *graph.Graph) (map[models.Oid]int, error) {
	if !g.Has(start) {
		return nil, fmt.Errorf("%s: %w", start, ErrStartNotInGraph)
	}

	dist := map[models.Oid]int{}
	frontier := models.NewOidSet(start)
	visited := models.OidSet{}

	for depth := 0; frontier.Len() > 0; depth++ {
		for id := range frontier {
			dist[id] = depth
			visited.Add(id)
		}
		frontier = expand(g, frontier, visited)
	}

	return dist, nil
}

// expand returns the neighbours of frontier that have not been visited.
// Callers add the frontier to visited first.
func expand(g *graph.Graph, frontier, visited models.OidSet) models.OidSet {
	next := models.OidSet{}
	for id := range frontier {
		c, ok := g.Get(id)
		if !ok {
			// Read never links to a missing vertex.
			continue
		}
		for n := range c.Neighbors() {
			if !visited.Has(n) {
				next.Add(n)
			}
		}
	}
	return next
}
