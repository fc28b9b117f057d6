// Package graph builds the bisection commit graph from `git log --format='%H %P' --bisect`
// style output.
package graph

import (
	"github.com/Johannes-Berggren/hydrasect/internal/models"
)

// Graph maps each commit in the bisection range to its vertex. Parent and
// child sets are symmetric and only refer to vertices of the same graph.
// A Graph is immutable once Read returns it; Get hands out copies.
type Graph struct {
	bad     models.Oid
	hasBad  bool
	commits map[models.Oid]*models.Commit
}

// Bad returns the first commit of the log, which git lists as the current
// bad tip of the bisection.
func (g *Graph) Bad() (models.Oid, bool) {
	return g.bad, g.hasBad
}

// Get returns a copy of the vertex for id. Changing it leaves the graph
// untouched.
func (g *Graph) Get(id models.Oid) (*models.Commit, bool) {
	c, ok := g.commits[id]
	if !ok {
		return nil, false
	}
	return &models.Commit{
		ID:       c.ID,
		Parents:  c.Parents.Clone(),
		Children: c.Children.Clone(),
	}, true
}

// Has reports whether id is a vertex.
func (g *Graph) Has(id models.Oid) bool {
	_, ok := g.commits[id]
	return ok
}

// Len returns the number of vertices.
func (g *Graph) Len() int {
	return len(g.commits)
}

// Vertices returns every vertex identifier in ascending order.
func (g *Graph) Vertices() []models.Oid {
	ids := make(models.OidSet, len(g.commits))
	for id := range g.commits {
		ids.Add(id)
	}
	return ids.Sorted()
}

// Edges is a printable snapshot of one vertex.
type Edges struct {
	Parents  []string
	Children []string
}

// Adjacency returns a snapshot of the graph keyed by hex identifier.
func (g *Graph) Adjacency() map[string]Edges {
	out := make(map[string]Edges, len(g.commits))
	for id, c := range g.commits {
		out[id.String()] = Edges{
			Parents:  c.Parents.Strings(),
			Children: c.Children.Strings(),
		}
	}
	return out
}
