package bisect

import (
	"fmt"
	"sort"

	"github.com/Johannes-Berggren/hydrasect/internal/models"
	"github.com/Johannes-Berggren/hydrasect/internal/search"
)

// Unreachable is the distance of commits HEAD has no path to.
const Unreachable = -1

// Row describes one commit of the range.
type Row struct {
	ID       models.Oid
	Distance int
	Bad      bool
	Head     bool
	// Evaluated is set for commits present in the history.
	Evaluated bool
	Closest   bool
	Skipped   bool
}

// Rows lists every commit of the range, nearest to HEAD first, ties
// broken by id. skipped reports commits marked with `git bisect skip`;
// nil marks none.
func (r *Result) Rows(skipped func(models.Oid) (bool, error)) ([]Row, error) {
	dist, err := search.Distances(r.Head, r.Graph)
	if err != nil {
		return nil, err
	}
	bad, hasBad := r.Graph.Bad()

	rows := make([]Row, 0, r.Graph.Len())
	for _, id := range r.Graph.Vertices() {
		row := Row{
			ID:        id,
			Distance:  Unreachable,
			Bad:       hasBad && id == bad,
			Head:      id == r.Head,
			Evaluated: r.Evaluated.Has(id),
			Closest:   r.Closest.Has(id),
		}
		if d, ok := dist[id]; ok {
			row.Distance = d
		}
		if skipped != nil {
			s, err := skipped(id)
			if err != nil {
				return nil, fmt.Errorf("checking %s: %w", id, err)
			}
			row.Skipped = s
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		di, dj := rows[i].Distance, rows[j].Distance
		if di != dj {
			if di == Unreachable {
				return false
			}
			if dj == Unreachable {
				return true
			}
			return di < dj
		}
		return rows[i].ID.Compare(rows[j].ID) < 0
	})
	return rows, nil
}
