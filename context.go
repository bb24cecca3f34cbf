package shovel

import "context"

// contextKey is the type for context keys used by this package, kept
// unexported so other packages can't collide with it.
type contextKey int

const (
	outputKey contextKey = iota
	logLevelKey
)

// LogLevel controls which leveled messages the Output writer emits.
type LogLevel int

const (
	LogDebug LogLevel = iota
	LogInfo
	LogWarn
	LogError
	LogNone
)

// ParseLogLevel parses the --log flag's argument. Unrecognised values fall
// back to LogDebug, matching spec's documented default.
func ParseLogLevel(s string) LogLevel {
	switch s {
	case "DEBUG":
		return LogDebug
	case "INFO":
		return LogInfo
	case "WARN":
		return LogWarn
	case "ERROR":
		return LogError
	case "NONE":
		return LogNone
	default:
		return LogDebug
	}
}

func (l LogLevel) String() string {
	switch l {
	case LogDebug:
		return "DEBUG"
	case LogInfo:
		return "INFO"
	case LogWarn:
		return "WARN"
	case LogError:
		return "ERROR"
	case LogNone:
		return "NONE"
	default:
		return "DEBUG"
	}
}

// WithOutput returns a context carrying the given Output, reachable by task
// bodies via OutputFrom.
func WithOutput(ctx context.Context, out *Output) context.Context {
	return context.WithValue(ctx, outputKey, out)
}

// OutputFrom returns the Output stored in ctx, or StdOutput() if none was
// attached (e.g. tests invoking a task body directly).
func OutputFrom(ctx context.Context) *Output {
	if o, ok := ctx.Value(outputKey).(*Output); ok {
		return o
	}
	return StdOutput()
}

// WithLogLevel returns a context carrying the minimum level that should be
// emitted by the Output's leveled logging methods.
func WithLogLevel(ctx context.Context, level LogLevel) context.Context {
	return context.WithValue(ctx, logLevelKey, level)
}

// LogLevelFrom returns the log level stored in ctx, defaulting to LogDebug
// per the CLI's documented default.
func LogLevelFrom(ctx context.Context) LogLevel {
	if l, ok := ctx.Value(logLevelKey).(LogLevel); ok {
		return l
	}
	return LogDebug
}
