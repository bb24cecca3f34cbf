package shovel

import (
	"fmt"
	"strings"

	"github.com/fredrikaverpil/shovel/config"
)

// Module is a loadable unit of project configuration: a name, an optional
// config group installed under that name upper-cased, and an optional
// registration callback. It replaces the original's dotted module/config/
// tasks class-path strings with plain Go values — there is no reflection or
// dynamic import step here, only a function call.
type Module struct {
	Name   string
	Config func() *config.Group
	Tasks  func(*Registry)
}

// Load installs m's config group (if any) under cfg, upper-casing m.Name the
// way the original's module loader upper-cased a module's declared name,
// then invokes m.Tasks(reg) to trigger its task registrations.
func Load(reg *Registry, cfg *config.Config, m Module) error {
	if m.Name == "" {
		return fmt.Errorf("%w: module has no name", ErrModuleLoad)
	}
	if m.Config != nil {
		group := m.Config()
		if group == nil {
			return fmt.Errorf("%w: module %q's Config() returned nil", ErrModuleLoad, m.Name)
		}
		cfg.Add(strings.ToUpper(m.Name), group)
	}
	if m.Tasks != nil {
		m.Tasks(reg)
	}
	return nil
}

// LoadAll loads every module in order, stopping at the first error.
func LoadAll(reg *Registry, cfg *config.Config, modules ...Module) error {
	for _, m := range modules {
		if err := Load(reg, cfg, m); err != nil {
			return err
		}
	}
	return nil
}

// TasksGroup returns a config group installable as the TASKS namespace,
// backed by reg: TASKS.<name>.STATE resolves to "complete" or "pending" by
// running that task's checkers read-only ("unknown" if it has none), and
// TASKS.<name>.HASH resolves to
// its first checker's stable ID (empty string if it has none). Both reach
// back into the live registry on every access rather than a snapshot, so
// they reflect whatever has most recently run.
func TasksGroup(reg *Registry) *config.Group {
	return config.NewGroup("TASKS").WithFallback(func(root *config.Config, path []string) (any, error) {
		if len(path) != 2 {
			return nil, &config.MissingConfigurationError{Parent: "TASKS", Key: strings.Join(path, ".")}
		}
		name, field := path[0], path[1]
		task, ok := reg.Lookup(name)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
		}
		switch field {
		case "STATE":
			if len(task.Checkers) == 0 {
				return "unknown", nil
			}
			passes, _, err := checkTask(task, false)
			if err != nil {
				return nil, err
			}
			if passes {
				return "complete", nil
			}
			return "pending", nil
		case "HASH":
			if len(task.Checkers) == 0 {
				return "", nil
			}
			return task.Checkers[0].ID(), nil
		default:
			return nil, &config.MissingConfigurationError{Parent: "TASKS." + name, Key: field}
		}
	})
}
