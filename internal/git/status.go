package git

import (
	"errors"
	"fmt"
	"os/exec"
	"syscall"
)

// ExitError reports a git process that did not exit successfully.
type ExitError struct {
	Name   string
	Code   int
	Signal syscall.Signal
	// Signaled is set when the process was killed rather than exiting.
	Signaled bool
}

func (e *ExitError) Error() string {
	if e.Signaled {
		return fmt.Sprintf("%s killed by signal %s", e.Name, e.Signal)
	}
	return fmt.Sprintf("%s exited %d", e.Name, e.Code)
}

// statusError turns the error from cmd.Wait into an *ExitError where the
// process ran but failed. Other errors are wrapped as they are.
func statusError(name string, err error) error {
	if err == nil {
		return nil
	}

	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return fmt.Errorf("waiting for %s: %w", name, err)
	}

	out := &ExitError{Name: name, Code: ee.ExitCode()}
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		out.Signaled = true
		out.Signal = ws.Signal()
	}
	return out
}

// boolStatus interprets commands that answer yes/no through their exit
// status: 0 is yes, 1 is no, anything else is an error.
func boolStatus(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var ee *ExitError
	if errors.As(err, &ee) && !ee.Signaled && ee.Code == 1 {
		return false, nil
	}
	return false, err
}
