package shovel

import "context"

// Body is a task's unit of work. Returning a non-nil error surfaces as
// ExecuteFailedError and aborts the run; the engine does not interpret
// integer exit statuses the way a shelled-out command might — any non-nil
// error is a failure.
type Body func(ctx context.Context, args []string) error

// CleanFunc removes whatever a task's body previously produced. It runs
// before the body when the clean flag is set, regardless of checker state.
type CleanFunc func(ctx context.Context) error

// Task is the declarative description of a named unit of work. Construct
// one with &Task{...} and hand it to Registry.Register; the registry may
// mutate Dependencies per the virtual-target merge rule, so callers should
// not assume the struct they passed in is the one retained verbatim.
type Task struct {
	Name string

	// Body is the unit of work. A Task with no Body is virtual: it exists
	// only to aggregate Dependencies and never itself raises
	// ErrAlreadyComplete.
	Body Body

	// Dependencies are task names, resolved at graph-build time rather than
	// registration time so forward references and modular composition work.
	Dependencies []string

	// Parent names a task (or tasks, via Parents) that this task should be
	// registered as a dependency of. A virtual target is created for any
	// parent name not already present.
	Parent  string
	Parents []string

	// Checkers determine whether Body can be skipped. A Task with no
	// Checkers always runs its body.
	Checkers []Checker

	// Clean removes previous output; invoked before Body when requested.
	Clean CleanFunc

	Category         string
	ShortDescription string
	Description      string

	// ConfigRefs are {KEY}/{GROUP.KEY} templates shown in help output,
	// describing which configuration values this task's body consults.
	ConfigRefs []string
}

// IsVirtual reports whether the task has no body, i.e. exists only to
// aggregate its dependencies.
func (t *Task) IsVirtual() bool {
	return t.Body == nil
}

// parentNames returns Parent and Parents combined, Parent first, skipping
// empty entries.
func (t *Task) parentNames() []string {
	var names []string
	if t.Parent != "" {
		names = append(names, t.Parent)
	}
	for _, p := range t.Parents {
		if p != "" {
			names = append(names, p)
		}
	}
	return names
}

// clone returns a shallow copy of t, used by the registry's merge rule so
// mutating Dependencies doesn't alias a caller-held Task.
func (t *Task) clone() *Task {
	cp := *t
	cp.Dependencies = append([]string(nil), t.Dependencies...)
	return &cp
}
