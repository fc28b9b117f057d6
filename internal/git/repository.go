// Package git answers the questions hydrasect asks about the bisection by
// running the git binary.
package git

import (
	"context"
	"io"

	"github.com/Johannes-Berggren/hydrasect/internal/models"
	"github.com/Johannes-Berggren/hydrasect/internal/search"
)

// Repository is what hydrasect needs from version control.
type Repository interface {
	BisectLog(ctx context.Context, w io.Writer) error
	Head(ctx context.Context) (models.Oid, error)
	IsAncestor(ctx context.Context, ancestor, descendant string) (bool, error)
	HasSkipRef(ctx context.Context, id models.Oid) (bool, error)
}

// Repo runs git in a working directory.
type Repo struct {
	// Dir is the working directory; empty means the current directory.
	Dir string
	// Run defaults to DefaultRun.
	Run RunFunc
}

// New returns a Repo for dir.
func New(dir string) *Repo {
	return &Repo{Dir: dir}
}

func (r *Repo) run(ctx context.Context, cmd *Command) error {
	run := r.Run
	if run == nil {
		run = DefaultRun
	}
	return run(ctx, r.Dir, cmd)
}

// NotSkipped is a search predicate that rejects commits marked with
// `git bisect skip`. It asks repo once per candidate.
func NotSkipped(ctx context.Context, repo Repository) search.Predicate {
	return func(id models.Oid) (bool, error) {
		skipped, err := repo.HasSkipRef(ctx, id)
		if err != nil {
			return false, err
		}
		return !skipped, nil
	}
}
