// Package gogit reads the bisection state with go-git, for machines
// without a git binary.
package gogit

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/Johannes-Berggren/hydrasect/internal/git"
	"github.com/Johannes-Berggren/hydrasect/internal/models"
)

// ErrNotBisecting is returned when the repository has no bad ref.
var ErrNotBisecting = errors.New("not bisecting: " + git.BadRef + " does not exist")

var _ git.Repository = (*Repo)(nil)

// Repo wraps a go-git repository.
type Repo struct {
	repo *gogit.Repository
}

// Open opens the repository containing dir.
func Open(dir string) (*Repo, error) {
	r, err := gogit.PlainOpenWithOptions(dir, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("opening repository: %w", err)
	}
	return New(r), nil
}

// New wraps an already opened repository.
func New(r *gogit.Repository) *Repo {
	return &Repo{repo: r}
}

// BisectLog writes "<hash> <parents...>" for every commit reachable from
// the bad ref but from none of the good refs. The bad commit comes first,
// the rest newest first.
func (r *Repo) BisectLog(ctx context.Context, w io.Writer) error {
	badRef, err := r.repo.Reference(plumbing.ReferenceName(git.BadRef), true)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return ErrNotBisecting
	} else if err != nil {
		return fmt.Errorf("reading %s: %w", git.BadRef, err)
	}

	good, err := r.goodAncestors(ctx)
	if err != nil {
		return err
	}

	bad, err := r.repo.CommitObject(badRef.Hash())
	if err != nil {
		return fmt.Errorf("getting bad commit: %w", err)
	}

	var commits []*object.Commit
	err = object.NewCommitPreorderIter(bad, good, nil).ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, c)
		return nil
	})
	if err != nil {
		return fmt.Errorf("walking bisection range: %w", err)
	}

	sort.SliceStable(commits, func(i, j int) bool {
		a, b := commits[i], commits[j]
		switch {
		case a.Hash == bad.Hash:
			return b.Hash != bad.Hash
		case b.Hash == bad.Hash:
			return false
		case !a.Committer.When.Equal(b.Committer.When):
			return a.Committer.When.After(b.Committer.When)
		}
		return a.Hash.String() < b.Hash.String()
	})

	bw := bufio.NewWriter(w)
	for _, c := range commits {
		fields := make([]string, 0, 1+len(c.ParentHashes))
		fields = append(fields, c.Hash.String())
		for _, p := range c.ParentHashes {
			fields = append(fields, p.String())
		}
		if _, err := fmt.Fprintln(bw, strings.Join(fields, " ")); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// goodAncestors marks every commit reachable from a good ref.
func (r *Repo) goodAncestors(ctx context.Context) (map[plumbing.Hash]bool, error) {
	refs, err := r.repo.References()
	if err != nil {
		return nil, fmt.Errorf("listing references: %w", err)
	}

	var tips []plumbing.Hash
	err = refs.ForEach(func(ref *plumbing.Reference) error {
		if ref.Type() == plumbing.HashReference && strings.HasPrefix(ref.Name().String(), git.GoodRefPrefix) {
			tips = append(tips, ref.Hash())
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing references: %w", err)
	}

	seen := make(map[plumbing.Hash]bool)
	for _, tip := range tips {
		c, err := r.repo.CommitObject(tip)
		if err != nil {
			return nil, fmt.Errorf("getting good commit %s: %w", tip, err)
		}
		err = object.NewCommitPreorderIter(c, seen, nil).ForEach(func(c *object.Commit) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			seen[c.Hash] = true
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking good commit %s: %w", tip, err)
		}
	}
	return seen, nil
}

// Head resolves the current checkout.
func (r *Repo) Head(_ context.Context) (models.Oid, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return models.Oid{}, fmt.Errorf("resolving HEAD: %w", err)
	}
	return oid(ref.Hash())
}

// IsAncestor reports whether ancestor is an ancestor of, or the same
// commit as, descendant. Both are revisions such as a ref or a hash.
func (r *Repo) IsAncestor(_ context.Context, ancestor, descendant string) (bool, error) {
	a, err := r.commit(ancestor)
	if err != nil {
		return false, err
	}
	d, err := r.commit(descendant)
	if err != nil {
		return false, err
	}
	if a.Hash == d.Hash {
		return true, nil
	}

	ok, err := a.IsAncestor(d)
	if err != nil {
		return false, fmt.Errorf("checking ancestry of %s: %w", ancestor, err)
	}
	return ok, nil
}

// HasSkipRef reports whether id has been marked with `git bisect skip`.
func (r *Repo) HasSkipRef(_ context.Context, id models.Oid) (bool, error) {
	_, err := r.repo.Reference(plumbing.ReferenceName(git.SkipRef(id)), false)
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return false, nil
	} else if err != nil {
		return false, fmt.Errorf("reading %s: %w", git.SkipRef(id), err)
	}
	return true, nil
}

func (r *Repo) commit(rev string) (*object.Commit, error) {
	h, err := r.repo.ResolveRevision(plumbing.Revision(rev))
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", rev, err)
	}
	c, err := r.repo.CommitObject(*h)
	if err != nil {
		return nil, fmt.Errorf("getting commit %s: %w", rev, err)
	}
	return c, nil
}

func oid(h plumbing.Hash) (models.Oid, error) {
	return models.ParseOid(h.String())
}
