package shovel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fredrikaverpil/shovel/config"
)

func TestRunUnknownTaskExitsMinus2(t *testing.T) {
	reg := NewRegistry()
	code := Run(reg, config.New(), []string{"nope"})
	assert.Equal(t, ExitUnknownTask, code)
}

func TestRunAlreadyCompleteExitsMinus1(t *testing.T) {
	reg := NewRegistry()
	c := newFakeChecker(true)
	reg.Register(&Task{Name: "root", Body: body(), Checkers: []Checker{c}})

	code := Run(reg, config.New(), []string{"root"})
	assert.Equal(t, ExitAlreadyComplete, code)
}

func TestRunTaskFailureExitsMinus5(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Task{Name: "root", Body: func(context.Context, []string) error {
		return errors.New("boom")
	}})

	code := Run(reg, config.New(), []string{"root"})
	assert.Equal(t, ExitTaskFailed, code)
}

func TestRunSuccessExitsZero(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Task{Name: "root", Body: body()})
	code := Run(reg, config.New(), []string{"root"})
	assert.Equal(t, ExitSuccess, code)
}

func TestRunForceFlagBypassesChecker(t *testing.T) {
	reg := NewRegistry()
	calls := 0
	c := newFakeChecker(true)
	reg.Register(&Task{Name: "root", Body: func(context.Context, []string) error {
		calls++
		return nil
	}, Checkers: []Checker{c}})

	code := Run(reg, config.New(), []string{"--force", "root"})
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, 1, calls)
}

func TestGlobalHelpFlagBeforeTaskShowsTaskHelp(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Task{Name: "build", ShortDescription: "builds the project", Body: body()})
	code := Run(reg, config.New(), []string{"--help", "build"})
	assert.Equal(t, ExitSuccess, code)
}

func TestTaskLevelHelpFlagPassesThroughAsTaskArg(t *testing.T) {
	reg := NewRegistry()
	var gotArgs []string
	reg.Register(&Task{Name: "build", Body: func(_ context.Context, args []string) error {
		gotArgs = args
		return nil
	}})

	code := Run(reg, config.New(), []string{"build", "--help"})
	assert.Equal(t, ExitSuccess, code)
	assert.Equal(t, []string{"--help"}, gotArgs)
}

func TestApplyEnvOverridesInstallsGroupKey(t *testing.T) {
	t.Setenv("SHOVEL_BUILD_TARGET", "release")
	cfg := config.New()
	ApplyEnvOverrides(cfg)

	val, err := cfg.Resolve("BUILD.TARGET")
	require.NoError(t, err)
	assert.Equal(t, "release", val)
}
