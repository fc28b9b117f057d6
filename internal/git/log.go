package git

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/Johannes-Berggren/hydrasect/internal/graph"
)

// bisectLogFormat prints "<hash> <parent hashes...>" per commit.
const bisectLogFormat = "--format=%H %P"

// BisectLog writes the commits of the current bisection range to w, one
// "<hash> <parents...>" line each, starting with the bad commit.
func (r *Repo) BisectLog(ctx context.Context, w io.Writer) error {
	return r.run(ctx, &Command{
		Name:   "git log",
		Args:   []string{"log", bisectLogFormat, "--bisect"},
		Stdout: w,
	})
}

// BisectGraph reads the whole bisect log from repo and builds the graph
// once git has exited successfully.
func BisectGraph(ctx context.Context, repo Repository) (*graph.Graph, error) {
	var out bytes.Buffer
	if err := repo.BisectLog(ctx, &out); err != nil {
		return nil, err
	}

	g, err := graph.Read(&out)
	if err != nil {
		return nil, fmt.Errorf("parsing git log output: %w", err)
	}
	return g, nil
}
