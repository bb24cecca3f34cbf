package shovel

import (
	"context"
	"errors"
	"fmt"
)

// Flags are the execution flags threaded through a call to Engine.Execute.
type Flags struct {
	Clean    bool
	CleanAll bool
	Force    bool
	ForceAll bool
}

// normalize applies the one-time flag implications documented in spec: clean
// implies force, clean_all implies clean and force_all, force_all implies
// force.
func (f Flags) normalize() Flags {
	if f.CleanAll {
		f.Clean = true
		f.ForceAll = true
	}
	if f.Clean {
		f.Force = true
	}
	if f.ForceAll {
		f.Force = true
	}
	return f
}

// propagated derives the flags a dependency receives: only the "all"
// variants cross a level, and the non-all flags are re-derived from them —
// a dependency never sees its parent's bare --force or --clean, only
// --force-all/--clean-all.
func (f Flags) propagated() Flags {
	return Flags{
		Clean:    f.CleanAll,
		CleanAll: f.CleanAll,
		Force:    f.ForceAll,
		ForceAll: f.ForceAll,
	}
}

// Engine walks a Registry's dependency graph for a requested task, deciding
// per node whether to skip, clean, or run, and persisting checker state on
// success. It is a synchronous, single-threaded, depth-first walk — there
// are no background workers or asynchronous boundaries anywhere in here.
type Engine struct {
	Registry *Registry
}

// NewEngine returns an Engine bound to reg.
func NewEngine(reg *Registry) *Engine {
	return &Engine{Registry: reg}
}

// nodeResult memoizes the outcome of running one task name within a single
// Execute call, so a dependency shared by multiple parents (a diamond) runs
// its body at most once per top-level invocation.
type nodeResult struct {
	ran bool
	err error
}

// run is the per-call state for one Execute invocation: just the dedup
// cache, since flags are threaded explicitly through each recursive call.
type run struct {
	results map[string]nodeResult
}

// Execute resolves taskName in e.Registry and runs its dependency graph
// depth-first. args are handed to taskName's own body only; every
// dependency receives an empty argument list, per spec's pinned contract.
//
// Returns ErrAlreadyComplete (wrapped with the task name) when the task's
// checkers pass and no dependency actually ran — that is a successful no-op,
// not a failure. Returns an *ExecuteFailedError (wrapped) when a body
// failed. Returns ErrUnknownTask (wrapped) when taskName or one of its
// transitive dependencies isn't registered. Returns a *CycleError if the
// graph is cyclic.
func (e *Engine) Execute(ctx context.Context, taskName string, args []string, flags Flags) error {
	if err := detectCycle(e.Registry, taskName); err != nil {
		return err
	}
	flags = flags.normalize()
	r := &run{results: make(map[string]nodeResult)}
	ran, err := e.execNode(ctx, r, taskName, args, flags)
	if err != nil {
		return err
	}
	if !ran {
		return fmt.Errorf("%s: %w", taskName, ErrAlreadyComplete)
	}
	return nil
}

// detectCycle reuses the graph builder's cycle detection (without dedupe,
// so it walks the full execution shape) before the engine commits to
// running anything.
func detectCycle(reg *Registry, root string) error {
	_, err := Tree(reg, root, false, false)
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		return err
	}
	return nil
}

func (e *Engine) execNode(ctx context.Context, r *run, name string, args []string, flags Flags) (bool, error) {
	if cached, ok := r.results[name]; ok {
		return cached.ran, cached.err
	}

	task, ok := e.Registry.Lookup(name)
	if !ok {
		err := fmt.Errorf("%s: %w", name, ErrUnknownTask)
		r.results[name] = nodeResult{false, err}
		return false, err
	}

	// Step 1: clean hook.
	if flags.Clean && task.Clean != nil {
		if cerr := task.Clean(ctx); cerr != nil {
			err := &ExecuteFailedError{Task: name, Err: cerr}
			r.results[name] = nodeResult{false, err}
			return false, err
		}
	}

	// Step 2: dependencies, in declaration order, propagating only the
	// "all" flag variants downward.
	depFlags := flags.propagated()
	anyDepRan := false
	for _, depName := range task.Dependencies {
		depRan, err := e.execNode(ctx, r, depName, nil, depFlags)
		if err != nil {
			r.results[name] = nodeResult{false, err}
			return false, err
		}
		if depRan {
			anyDepRan = true
		}
	}

	// Step 3: virtual targets return once their dependencies are handled.
	// Their own "ran" status is whatever their dependencies did.
	if task.IsVirtual() {
		result := nodeResult{ran: anyDepRan}
		r.results[name] = result
		return result.ran, nil
	}

	// Step 4: probe checkers.
	passes, clones, err := checkTask(task, flags.Force)
	if err != nil {
		r.results[name] = nodeResult{false, err}
		return false, err
	}

	// Step 5: skip iff checkers pass and nothing downstream ran; otherwise
	// invoke the body.
	if passes && !anyDepRan {
		r.results[name] = nodeResult{ran: false}
		return false, nil
	}

	if berr := task.Body(ctx, args); berr != nil {
		err := &ExecuteFailedError{Task: name, Err: berr}
		r.results[name] = nodeResult{false, err}
		return false, err
	}

	// Step 6: save every clone used for the probe (or produced under
	// force), using the pre-execution snapshot rather than a re-read.
	for _, c := range clones {
		if serr := c.Save(); serr != nil {
			err := fmt.Errorf("saving checker state for %s: %w", name, serr)
			r.results[name] = nodeResult{true, err}
			return true, err
		}
	}

	r.results[name] = nodeResult{ran: true}
	return true, nil
}

// checkTask probes task's checkers, returning whether the task should be
// considered already complete and the clones to save on success. With no
// checkers declared, passes is always false (a task with no checkers always
// runs its body). With force, clones are still produced — so a successful
// forced run still saves state — but Check is never called, so probing a
// checker never runs during a forced invocation.
func checkTask(task *Task, force bool) (passes bool, clones []Checker, err error) {
	if len(task.Checkers) == 0 {
		return false, nil, nil
	}
	clones = make([]Checker, len(task.Checkers))
	for i, c := range task.Checkers {
		clones[i] = c.Clone()
	}
	if force {
		return false, clones, nil
	}
	allPass := true
	for _, clone := range clones {
		ok, cerr := clone.Check()
		if cerr != nil {
			return false, nil, fmt.Errorf("checking %s: %w", task.Name, cerr)
		}
		if !ok {
			allPass = false
		}
	}
	return allPass, clones, nil
}
