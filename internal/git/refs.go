package git

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Johannes-Berggren/hydrasect/internal/models"
)

// Refs git bisect maintains while a bisection is running.
const (
	BadRef        = "refs/bisect/bad"
	GoodRefPrefix = "refs/bisect/good-"
	SkipRefPrefix = "refs/bisect/skip-"
)

// SkipRef returns the ref git bisect creates when id is skipped.
func SkipRef(id models.Oid) string {
	return SkipRefPrefix + id.String()
}

// RevParse resolves rev to a commit identifier.
func (r *Repo) RevParse(ctx context.Context, rev string) (models.Oid, error) {
	var out bytes.Buffer
	err := r.run(ctx, &Command{
		Name:   "git rev-parse",
		Args:   []string{"rev-parse", rev},
		Stdout: &out,
	})
	if err != nil {
		return models.Oid{}, err
	}

	id, err := models.ParseOid(string(bytes.TrimSuffix(out.Bytes(), []byte{'\n'})))
	if err != nil {
		return models.Oid{}, fmt.Errorf("parsing git rev-parse output: %w", err)
	}
	return id, nil
}

// Head resolves the current checkout.
func (r *Repo) Head(ctx context.Context) (models.Oid, error) {
	return r.RevParse(ctx, "HEAD")
}

// IsAncestor reports whether ancestor is an ancestor of, or the same
// commit as, descendant.
func (r *Repo) IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error) {
	err := r.run(ctx, &Command{
		Name: "git merge-base --is-ancestor",
		Args: []string{"merge-base", "--is-ancestor", ancestor, descendant},
	})
	return boolStatus(err)
}

// HasSkipRef reports whether id has been marked with `git bisect skip`.
func (r *Repo) HasSkipRef(ctx context.Context, id models.Oid) (bool, error) {
	err := r.run(ctx, &Command{
		Name:   "git rev-parse --verify",
		Args:   []string{"rev-parse", "--verify", "-q", SkipRef(id)},
		Stdout: io.Discard,
	})
	return boolStatus(err)
}
