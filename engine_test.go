package shovel

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeChecker is a Checker whose Check() result and call counts are fixed at
// construction, shared across every Clone() so a test can assert on total
// calls regardless of which clone the engine ends up invoking.
type fakeChecker struct {
	passes     bool
	checkCalls *int
	saveCalls  *int
}

func newFakeChecker(passes bool) *fakeChecker {
	return &fakeChecker{passes: passes, checkCalls: new(int), saveCalls: new(int)}
}

func (f *fakeChecker) Check() (bool, error) {
	*f.checkCalls++
	return f.passes, nil
}
func (f *fakeChecker) Save() error    { *f.saveCalls++; return nil }
func (f *fakeChecker) Clone() Checker { return f }
func (f *fakeChecker) ID() string     { return "fake" }

func recordingBody(calls *[]string, name string) Body {
	return func(context.Context, []string) error {
		*calls = append(*calls, name)
		return nil
	}
}

func TestSimpleChainRunsBottomUp(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	reg.Register(&Task{Name: "grandchild", Body: recordingBody(&calls, "grandchild")})
	reg.Register(&Task{Name: "child", Body: recordingBody(&calls, "child"), Dependencies: []string{"grandchild"}})
	reg.Register(&Task{Name: "root", Body: recordingBody(&calls, "root"), Dependencies: []string{"child"}})

	err := NewEngine(reg).Execute(context.Background(), "root", nil, Flags{})
	require.NoError(t, err)
	assert.Equal(t, []string{"grandchild", "child", "root"}, calls)
}

func TestDiamondDependencyRunsSharedNodeOnce(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	reg.Register(&Task{Name: "common", Body: recordingBody(&calls, "common")})
	reg.Register(&Task{Name: "a", Body: recordingBody(&calls, "a"), Dependencies: []string{"common"}})
	reg.Register(&Task{Name: "b", Body: recordingBody(&calls, "b"), Dependencies: []string{"common"}})
	reg.Register(&Task{Name: "root", Body: recordingBody(&calls, "root"), Dependencies: []string{"a", "b"}})

	err := NewEngine(reg).Execute(context.Background(), "root", nil, Flags{})
	require.NoError(t, err)

	commonCount := 0
	for _, c := range calls {
		if c == "common" {
			commonCount++
		}
	}
	assert.Equal(t, 1, commonCount)
	assert.Equal(t, []string{"common", "a", "b", "root"}, calls)
}

func TestPassingCheckersEverywhereRaisesAlreadyComplete(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	c1, c2, c3 := newFakeChecker(true), newFakeChecker(true), newFakeChecker(true)
	reg.Register(&Task{Name: "grandchild", Body: recordingBody(&calls, "grandchild"), Checkers: []Checker{c1}})
	reg.Register(&Task{Name: "child", Body: recordingBody(&calls, "child"), Dependencies: []string{"grandchild"}, Checkers: []Checker{c2}})
	reg.Register(&Task{Name: "root", Body: recordingBody(&calls, "root"), Dependencies: []string{"child"}, Checkers: []Checker{c3}})

	err := NewEngine(reg).Execute(context.Background(), "root", nil, Flags{})
	assert.ErrorIs(t, err, ErrAlreadyComplete)
	assert.Empty(t, calls)
	assert.Equal(t, 0, *c1.saveCalls)
	assert.Equal(t, 0, *c2.saveCalls)
	assert.Equal(t, 0, *c3.saveCalls)
}

func TestForcedRootWithPassingCheckers(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	c1, c2, c3 := newFakeChecker(true), newFakeChecker(true), newFakeChecker(true)
	reg.Register(&Task{Name: "grandchild", Body: recordingBody(&calls, "grandchild"), Checkers: []Checker{c1}})
	reg.Register(&Task{Name: "child", Body: recordingBody(&calls, "child"), Dependencies: []string{"grandchild"}, Checkers: []Checker{c2}})
	reg.Register(&Task{Name: "root", Body: recordingBody(&calls, "root"), Dependencies: []string{"child"}, Checkers: []Checker{c3}})

	err := NewEngine(reg).Execute(context.Background(), "root", nil, Flags{Force: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"root"}, calls, "only root's body runs; force does not cascade")
	assert.Equal(t, 0, *c3.checkCalls, "force skips Check entirely")
	assert.Equal(t, 1, *c3.saveCalls, "a successful forced run still saves checker state")
	assert.Equal(t, 1, *c2.checkCalls, "child's checker probes normally, since force didn't cascade")
	assert.Equal(t, 0, *c2.saveCalls, "child never ran, so nothing to save")
}

func TestCleanAllRunsEveryCleanThenEveryBody(t *testing.T) {
	var cleans, calls []string
	reg := NewRegistry()
	mkClean := func(name string) CleanFunc {
		return func(context.Context) error { cleans = append(cleans, name); return nil }
	}
	reg.Register(&Task{Name: "grandchild", Body: recordingBody(&calls, "grandchild"), Clean: mkClean("grandchild")})
	reg.Register(&Task{Name: "child", Body: recordingBody(&calls, "child"), Dependencies: []string{"grandchild"}, Clean: mkClean("child")})
	reg.Register(&Task{Name: "root", Body: recordingBody(&calls, "root"), Dependencies: []string{"child"}, Clean: mkClean("root")})

	err := NewEngine(reg).Execute(context.Background(), "root", nil, Flags{CleanAll: true})
	require.NoError(t, err)

	assert.Equal(t, []string{"grandchild", "child", "root"}, cleans)
	assert.Equal(t, []string{"grandchild", "child", "root"}, calls)
}

func TestFailureIsolationAbortsAncestors(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	failing := func(context.Context, []string) error { return errors.New("boom") }
	reg.Register(&Task{Name: "grandchild", Body: failing})
	reg.Register(&Task{Name: "child", Body: recordingBody(&calls, "child"), Dependencies: []string{"grandchild"}})
	reg.Register(&Task{Name: "root", Body: recordingBody(&calls, "root"), Dependencies: []string{"child"}})

	err := NewEngine(reg).Execute(context.Background(), "root", nil, Flags{})

	var execErr *ExecuteFailedError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, "grandchild", execErr.Task)
	assert.Empty(t, calls, "neither child nor root should have run")
}

func TestTaskWithNoCheckersAlwaysRuns(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	reg.Register(&Task{Name: "root", Body: recordingBody(&calls, "root")})

	err := NewEngine(reg).Execute(context.Background(), "root", nil, Flags{})
	require.NoError(t, err)
	assert.Equal(t, []string{"root"}, calls)
}

func TestIdempotentOnCompletedWork(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	c := newFakeChecker(false)
	reg.Register(&Task{Name: "root", Body: func(ctx context.Context, args []string) error {
		calls = append(calls, "root")
		c.passes = true
		return nil
	}, Checkers: []Checker{c}})

	err := NewEngine(reg).Execute(context.Background(), "root", nil, Flags{})
	require.NoError(t, err)

	err = NewEngine(reg).Execute(context.Background(), "root", nil, Flags{})
	assert.ErrorIs(t, err, ErrAlreadyComplete)
	assert.Equal(t, []string{"root"}, calls)
}

func TestVirtualTargetNeverRaisesAlreadyCompleteOnItsOwnMerits(t *testing.T) {
	var calls []string
	reg := NewRegistry()
	reg.Register(&Task{Name: "child", Body: recordingBody(&calls, "child")})
	reg.Register(&Task{Name: "aggregate", Dependencies: []string{"child"}})

	err := NewEngine(reg).Execute(context.Background(), "aggregate", nil, Flags{})
	require.NoError(t, err)
	assert.Equal(t, []string{"child"}, calls)

	// Running again: child is not idempotent (no checkers), so it reruns and
	// the aggregate's completion (driven entirely by its dependency) again
	// reports as having run.
	err = NewEngine(reg).Execute(context.Background(), "aggregate", nil, Flags{})
	require.NoError(t, err)
}

func TestArgsOnlyReachTopLevelTask(t *testing.T) {
	var rootArgs, childArgs []string
	reg := NewRegistry()
	reg.Register(&Task{Name: "child", Body: func(_ context.Context, args []string) error {
		childArgs = args
		return nil
	}})
	reg.Register(&Task{Name: "root", Dependencies: []string{"child"}, Body: func(_ context.Context, args []string) error {
		rootArgs = args
		return nil
	}})

	err := NewEngine(reg).Execute(context.Background(), "root", []string{"--flag", "value"}, Flags{})
	require.NoError(t, err)
	assert.Equal(t, []string{"--flag", "value"}, rootArgs)
	assert.Empty(t, childArgs)
}
