package models

// Commit is a vertex of the bisection graph. Both sets only hold
// identifiers of other vertices in the same graph.
type Commit struct {
	ID       Oid
	Parents  OidSet
	Children OidSet
}

// NewCommit returns a commit with empty parent and child sets.
func NewCommit(id Oid) *Commit {
	return &Commit{
		ID:       id,
		Parents:  OidSet{},
		Children: OidSet{},
	}
}

// Neighbors returns parents and children together; direction does not
// matter for proximity.
func (c *Commit) Neighbors() OidSet {
	out := make(OidSet, len(c.Parents)+len(c.Children))
	for id := range c.Parents {
		out.Add(id)
	}
	for id := range c.Children {
		out.Add(id)
	}
	return out
}
