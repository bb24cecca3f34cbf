package shovel

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/fredrikaverpil/shovel/config"
)

// Exit codes, per spec's external-interfaces table. Negative values are
// errors; the CLI boundary is the only place these integers are produced —
// everything upstream deals in Go errors.
const (
	ExitSuccess         = 0
	ExitAlreadyComplete = -1
	ExitUnknownTask     = -2
	ExitNoInit          = -3
	ExitNoConfigFile    = -4
	ExitTaskFailed      = -5
)

// ConfigPathEnv names the environment variable for the project's
// configuration-file path. Nothing in this package reads it: Go has no
// runtime "exec this file" import the way the original's shovel.py-style
// config did, so in this port the project's generated cmd/<project>/main.go
// *is* the configuration file (it imports task packages and calls Main);
// the name is exported for tooling that wants to locate a project's
// entrypoint.
const ConfigPathEnv = "SHOVEL_CONFIG"

// EnvOverridePrefix is the environment-variable prefix reserved for
// automatic configuration overrides at load time: SHOVEL_GROUP_KEY=value
// overrides CONFIG.GROUP.KEY.
const EnvOverridePrefix = "SHOVEL_"

// ApplyEnvOverrides scans the process environment for SHOVEL_GROUP_KEY
// variables and Sets GROUP.KEY in cfg accordingly, creating the group if it
// doesn't already exist. Values are installed as plain strings; this runs
// once at startup, before any task executes.
func ApplyEnvOverrides(cfg *config.Config) {
	for _, kv := range os.Environ() {
		name, value, ok := strings.Cut(kv, "=")
		if !ok || !strings.HasPrefix(name, EnvOverridePrefix) {
			continue
		}
		rest := strings.TrimPrefix(name, EnvOverridePrefix)
		groupName, key, ok := strings.Cut(rest, "_")
		if !ok {
			continue
		}
		group, exists := cfg.Group(groupName)
		if !exists {
			group = config.NewGroup(groupName)
			cfg.Add(groupName, group)
		}
		group.Set(key, value)
	}
}

// Main parses os.Args, runs the requested task against reg and cfg, and
// exits the process with the resulting exit code.
func Main(reg *Registry, cfg *config.Config) {
	os.Exit(Run(reg, cfg, os.Args[1:]))
}

// Run parses argv (excluding the program name) and runs the requested task,
// returning the exit code rather than calling os.Exit, so it can be
// exercised from tests.
func Run(reg *Registry, cfg *config.Config, argv []string) int {
	fs := flag.NewFlagSet("shovel", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	helpFlag := fs.Bool("help", false, "rewrite the invocation as help <task>")
	logLevel := fs.String("log", "DEBUG", "DEBUG|INFO|WARN|ERROR|NONE")
	force := fs.Bool("force", false, "force re-execution of the root task")
	forceAll := fs.Bool("force-all", false, "force re-execution cascading to dependencies")
	clean := fs.Bool("clean", false, "run the clean hook before re-executing (implies force)")
	cleanAll := fs.Bool("clean-all", false, "run every reachable clean hook (implies clean and force-all)")

	if err := fs.Parse(argv); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return ExitUnknownTask
	}
	args := fs.Args()

	out := StdOutput()

	if *helpFlag {
		target := ""
		if len(args) > 0 {
			target = args[0]
		}
		return renderHelp(out, reg, cfg, target)
	}

	taskName := "help"
	var taskArgs []string
	if len(args) > 0 {
		taskName = args[0]
		taskArgs = args[1:]
	}

	if _, ok := reg.Lookup(taskName); !ok {
		fmt.Fprintf(out.Stderr, "unknown task: %s\n", taskName)
		return ExitUnknownTask
	}

	ctx := WithOutput(context.Background(), out)
	ctx = WithLogLevel(ctx, ParseLogLevel(*logLevel))
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine := NewEngine(reg)
	flags := Flags{Clean: *clean, CleanAll: *cleanAll, Force: *force, ForceAll: *forceAll}
	err := engine.Execute(ctx, taskName, taskArgs, flags)
	return exitCodeFor(out, taskName, err)
}

func renderHelp(out *Output, reg *Registry, cfg *config.Config, taskName string) int {
	if taskName == "" {
		fmt.Fprintln(out.Stdout, "Usage: <tool> [global-flags] <task> [task-args...]")
		fmt.Fprintln(out.Stdout, "\nTasks:")
		tw := tabwriter.NewWriter(out.Stdout, 0, 0, 2, ' ', 0)
		for _, name := range reg.Names() {
			task, _ := reg.Lookup(name)
			fmt.Fprintf(tw, "  %s\t%s\n", name, task.ShortDescription)
		}
		tw.Flush()
		return ExitSuccess
	}
	if err := RenderHelp(out.Stdout, reg, cfg, taskName); err != nil {
		if errors.Is(err, ErrUnknownTask) {
			fmt.Fprintf(out.Stderr, "unknown task: %s\n", taskName)
			return ExitUnknownTask
		}
		fmt.Fprintln(out.Stderr, err)
		return ExitTaskFailed
	}
	return ExitSuccess
}

func exitCodeFor(out *Output, taskName string, err error) int {
	if err == nil {
		return ExitSuccess
	}
	if errors.Is(err, ErrAlreadyComplete) {
		fmt.Fprintf(out.Stderr, "warn: %s already complete\n", taskName)
		return ExitAlreadyComplete
	}
	if errors.Is(err, ErrUnknownTask) {
		fmt.Fprintln(out.Stderr, err)
		return ExitUnknownTask
	}
	var cycleErr *CycleError
	if errors.As(err, &cycleErr) {
		fmt.Fprintln(out.Stderr, err)
		return ExitTaskFailed
	}
	var execFailed *ExecuteFailedError
	if errors.As(err, &execFailed) {
		fmt.Fprintf(out.Stderr, "task %s failed: %v\n", execFailed.Task, execFailed.Err)
		return ExitTaskFailed
	}
	fmt.Fprintln(out.Stderr, err)
	return ExitTaskFailed
}
