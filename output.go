package shovel

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
)

// Output holds the stdout/stderr writers a run is wired to, plus the color
// state derived from them. Task bodies reach it through the context
// (OutputFrom) rather than writing to os.Stdout directly, so tests can
// capture it and the CLI can honor NO_COLOR.
type Output struct {
	Stdout io.Writer
	Stderr io.Writer

	debug *color.Color
	info  *color.Color
	warn  *color.Color
	errc  *color.Color
	ok    *color.Color
}

// StdOutput builds an Output wired to the process's real stdout/stderr,
// passed through go-colorable so ANSI sequences render on Windows consoles
// too, with coloring auto-disabled when output isn't a TTY or NO_COLOR is
// set.
func StdOutput() *Output {
	stdout := colorable.NewColorableStdout()
	stderr := colorable.NewColorableStderr()
	o := &Output{Stdout: stdout, Stderr: stderr}
	o.initColors(isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd()))
	return o
}

// DiscardOutput returns an Output that drops everything written to it, for
// callers that don't care about text.
func DiscardOutput() *Output {
	o := &Output{Stdout: io.Discard, Stderr: io.Discard}
	o.initColors(false)
	return o
}

func (o *Output) initColors(tty bool) {
	enabled := tty
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		enabled = false
	}
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if !enabled {
			c.DisableColor()
		}
		return c
	}
	o.debug = mk(color.FgHiBlack)
	o.info = mk(color.FgCyan)
	o.warn = mk(color.FgYellow)
	o.errc = mk(color.FgRed, color.Bold)
	o.ok = mk(color.FgGreen)
}

func (o *Output) logf(level LogLevel, c *color.Color, prefix, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(o.Stderr, c.Sprintf("%s %s", prefix, msg))
	_ = level
}

// Debugf writes a DEBUG-level message to stderr, gated by ctx's log level.
func Debugf(ctx context.Context, format string, args ...any) {
	if LogLevelFrom(ctx) > LogDebug {
		return
	}
	o := OutputFrom(ctx)
	o.logf(LogDebug, o.debug, "debug:", format, args...)
}

// Infof writes an INFO-level message to stderr, gated by ctx's log level.
func Infof(ctx context.Context, format string, args ...any) {
	if LogLevelFrom(ctx) > LogInfo {
		return
	}
	o := OutputFrom(ctx)
	o.logf(LogInfo, o.info, "info: ", format, args...)
}

// Warnf writes a WARN-level message to stderr, gated by ctx's log level.
func Warnf(ctx context.Context, format string, args ...any) {
	if LogLevelFrom(ctx) > LogWarn {
		return
	}
	o := OutputFrom(ctx)
	o.logf(LogWarn, o.warn, "warn: ", format, args...)
}

// Errorf writes an ERROR-level message to stderr, gated by ctx's log level.
func Errorf(ctx context.Context, format string, args ...any) {
	if LogLevelFrom(ctx) > LogError {
		return
	}
	o := OutputFrom(ctx)
	o.logf(LogError, o.errc, "error:", format, args...)
}

// Printf writes unconditionally to the context's stdout writer. Task bodies
// use this for their own output, the same way log-level messages go to
// stderr.
func Printf(ctx context.Context, format string, args ...any) {
	fmt.Fprintf(OutputFrom(ctx).Stdout, format, args...)
}

// Println writes unconditionally to the context's stdout writer.
func Println(ctx context.Context, args ...any) {
	fmt.Fprintln(OutputFrom(ctx).Stdout, args...)
}
