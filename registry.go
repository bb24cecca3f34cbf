package shovel

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry is a mapping from task name to task record. It is process-wide
// state by convention (see Default), but every operation works on an
// explicit *Registry so tests can construct fresh instances instead of
// relying on Clear between cases.
type Registry struct {
	mu    sync.Mutex
	tasks map[string]*Task
	// order preserves first-registration order for All/render, since Go
	// maps don't.
	order []string
	out   *Output
}

// NewRegistry returns a registry seeded with a builtin "help" task (spec's
// effective default when the CLI is invoked with no positional task). The
// builtin prints a simple task listing; the CLI's own --help flag handles
// detailed per-task pages via RenderHelp, since that needs a *config.Config
// the registry doesn't hold.
func NewRegistry() *Registry {
	r := &Registry{tasks: make(map[string]*Task), out: StdOutput()}
	r.register(&Task{
		Name:             "help",
		ShortDescription: "list available tasks",
		Body: func(ctx context.Context, args []string) error {
			for _, name := range r.Names() {
				Printf(ctx, "  %s\n", name)
			}
			return nil
		},
	})
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry used by the generated
// cmd/<project>/main.go entrypoint, per spec's convenience-handle design
// note.
func Default() *Registry { return defaultRegistry }

// Register inserts task, applying the virtual-target merge rule when a task
// of the same name already exists:
//
//   - existing virtual, new concrete: new adopts existing's dependencies,
//     prepended before its own, and replaces existing.
//   - both concrete: existing wins; a duplicate-definition warning is logged.
//   - new virtual, existing present: existing is kept; new's dependencies
//     are appended to existing's dependencies.
//   - neither previously registered: task is inserted as-is.
//
// Register also resolves Parent/Parents: for each declared parent name, a
// virtual target is created if absent, and task.Name is added as one of its
// dependencies.
func (r *Registry) Register(task *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.register(task.clone())
}

func (r *Registry) register(task *Task) {
	existing, ok := r.tasks[task.Name]
	switch {
	case !ok:
		r.tasks[task.Name] = task
		r.order = append(r.order, task.Name)
	case existing.IsVirtual() && !task.IsVirtual():
		merged := task.clone()
		merged.Dependencies = append(append([]string(nil), existing.Dependencies...), task.Dependencies...)
		r.tasks[task.Name] = merged
	case !existing.IsVirtual() && !task.IsVirtual():
		fmt.Fprintf(r.out.Stderr, "warn: duplicate task definition %q, keeping first registration\n", task.Name)
	case task.IsVirtual():
		existing.Dependencies = append(existing.Dependencies, task.Dependencies...)
	}

	for _, parentName := range task.parentNames() {
		r.addChild(parentName, task.Name)
	}
}

// addChild ensures parentName exists (creating a virtual target if not) and
// adds childName to its dependencies.
func (r *Registry) addChild(parentName, childName string) {
	parent, ok := r.tasks[parentName]
	if !ok {
		parent = &Task{Name: parentName, Dependencies: []string{childName}}
		r.tasks[parentName] = parent
		r.order = append(r.order, parentName)
		return
	}
	parent.Dependencies = append(parent.Dependencies, childName)
}

// Lookup returns the task registered under name, if any.
func (r *Registry) Lookup(name string) (*Task, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[name]
	return t, ok
}

// Clear removes every registered task. Intended for test teardown; fresh
// NewRegistry() instances are preferred for new tests.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = make(map[string]*Task)
	r.order = nil
}

// All returns every registered task in first-registration order.
func (r *Registry) All() []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	result := make([]*Task, 0, len(r.order))
	for _, name := range r.order {
		result = append(result, r.tasks[name])
	}
	return result
}

// Names returns every registered task name, sorted, for help listings that
// want alphabetical rather than registration order.
func (r *Registry) Names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.tasks))
	for name := range r.tasks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
