package shovel

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/term"
)

// waitDelay bounds how long a terminated subprocess is given to exit after
// its context is cancelled before Go escalates to killing it outright.
const waitDelay = 5 * time.Second

var (
	colorEnvOnce sync.Once
	colorEnvVars []string
)

// colorForceEnvVars force color output in common subprocess tooling (linters,
// test runners, formatters) when shovel's own stdout is a terminal.
var colorForceEnvVars = []string{
	"FORCE_COLOR=1",
	"CLICOLOR_FORCE=1",
}

func initColorEnv() {
	if _, noColor := os.LookupEnv("NO_COLOR"); noColor {
		return
	}
	if term.IsTerminal(int(os.Stdout.Fd())) {
		colorEnvVars = colorForceEnvVars
	}
}

// Exec runs an external command. It is the task-body escape hatch for
// shelling out to real build tools (compilers, linters, formatters) that a
// task wraps.
//
// At the DEBUG log level the command's stdout/stderr stream to the Output
// carried on ctx and a failure returns the exec error as is. At any higher
// level the output is captured instead, and on failure the error wraps both
// the underlying exec error and the command's combined output, so callers
// logging the error see why the command failed without needing to re-run it
// verbosely.
func Exec(ctx context.Context, name string, args ...string) error {
	colorEnvOnce.Do(initColorEnv)

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Env = append(os.Environ(), colorEnvVars...)
	cmd.Stdin = nil
	cmd.WaitDelay = waitDelay

	out := OutputFrom(ctx)
	if LogLevelFrom(ctx) <= LogDebug {
		cmd.Stdout = out.Stdout
		cmd.Stderr = out.Stderr
		return cmd.Run()
	}

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s %s: %w\n%s", name, strings.Join(args, " "), err, buf.String())
	}
	return nil
}
