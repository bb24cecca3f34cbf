package shovel

import (
	"errors"
	"fmt"
	"strings"
)

// ErrAlreadyComplete signals that a task's checkers passed and none of its
// dependencies ran, so the body was skipped. At the top level this maps to
// exit code -1. During a recursive descent the engine absorbs it silently
// and moves on to the next sibling.
var ErrAlreadyComplete = errors.New("task already complete")

// ErrUnknownTask signals that a requested task name is not in the registry.
var ErrUnknownTask = errors.New("unknown task")

// ErrModuleLoad wraps a failure while resolving a module's config or tasks.
var ErrModuleLoad = errors.New("module load failed")

// ExecuteFailedError wraps a task body's returned error. It aborts the run
// and maps to exit code -5. Checker state is never saved when this is
// returned.
type ExecuteFailedError struct {
	Task string
	Err  error
}

func (e *ExecuteFailedError) Error() string {
	return fmt.Sprintf("task %q failed: %v", e.Task, e.Err)
}

func (e *ExecuteFailedError) Unwrap() error { return e.Err }

// CycleError is raised by the graph builder when a task's dependencies form
// a cycle. Path lists the task names from the root to the task that closes
// the cycle, in declaration order.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
}
