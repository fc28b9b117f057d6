package git

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// Command is a single git invocation.
type Command struct {
	// Name is used in error messages, e.g. "git merge-base --is-ancestor".
	Name string
	// Args does not include the "git" binary itself.
	Args []string
	// Stdout receives the command output. Nil discards it.
	Stdout io.Writer
	// Stderr defaults to the process's stderr.
	Stderr io.Writer
}

// RunFunc runs cmd in dir and waits for it. A failed process is reported
// as an *ExitError.
type RunFunc func(ctx context.Context, dir string, cmd *Command) error

// DefaultRun spawns the git binary.
func DefaultRun(ctx context.Context, dir string, c *Command) error {
	cmd := exec.CommandContext(ctx, "git", c.Args...)
	cmd.Dir = dir
	cmd.Stdout = c.Stdout
	cmd.Stderr = c.Stderr
	if cmd.Stderr == nil {
		cmd.Stderr = os.Stderr
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("spawning %s: %w", c.Name, err)
	}
	return statusError(c.Name, cmd.Wait())
}
