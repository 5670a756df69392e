package sweep

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	errs "evalsweep/pkg/errors"
	"evalsweep/pkg/interrupt"
	"evalsweep/pkg/logger"
	"evalsweep/pkg/pointer"
	"evalsweep/pkg/runner"
)

// fakeRunner records every launch and the pointer file contents it saw
type fakeRunner struct {
	pointerPath string
	exitCodes   map[int]int
	launchFail  map[int]bool
	onRun       func(index int)

	calls     []int
	seen      map[int][]byte
	active    int32
	maxActive int32
}

func newFakeRunner(pointerPath string) *fakeRunner {
	return &fakeRunner{
		pointerPath: pointerPath,
		exitCodes:   map[int]int{},
		launchFail:  map[int]bool{},
		seen:        map[int][]byte{},
	}
}

func (f *fakeRunner) Run(ctx context.Context, index int) (runner.Outcome, error) {
	outcome := runner.Outcome{Index: index, ExitCode: -1}
	if f.launchFail[index] {
		return outcome, errs.New(errs.ErrorTypeLaunch, index, "failed to start evaluator", errors.New("not found"))
	}

	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	if n > atomic.LoadInt32(&f.maxActive) {
		atomic.StoreInt32(&f.maxActive, n)
	}

	f.calls = append(f.calls, index)
	data, _ := os.ReadFile(f.pointerPath)
	f.seen[index] = data

	if f.onRun != nil {
		f.onRun(index)
	}

	outcome.ExitCode = f.exitCodes[index]
	outcome.Duration = time.Millisecond
	if outcome.ExitCode != 0 {
		return outcome, &errs.Error{Type: errs.ErrorTypeExit, Index: index, ExitCode: outcome.ExitCode}
	}
	return outcome, nil
}

func setup(t *testing.T) (string, *pointer.Writer, *fakeRunner) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "log", "run", "weights", "checkpoint")
	return path, pointer.NewWriter(path, logger.NewNopLogger()), newFakeRunner(path)
}

func TestRunVisitsEveryIndex(t *testing.T) {
	path, pw, fr := setup(t)
	c := NewController(Params{Start: 1000, Step: 1000, End: 3000}, pw, fr, nil, logger.NewNopLogger())

	result, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1000, 2000, 3000}, fr.calls)
	assert.Equal(t, StopCompleted, result.StopReason)
	assert.Len(t, result.Evaluations, 3)
	assert.Empty(t, result.Failures())
	assert.Equal(t, int32(1), fr.maxActive)

	for _, index := range fr.calls {
		assert.Equal(t, pointer.Format(index), fr.seen[index], "pointer at launch of %d", index)
	}

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `model_checkpoint_path: "episode_3000"`)
}

func TestRunEmptyRangeLeavesPointerUntouched(t *testing.T) {
	path, pw, fr := setup(t)
	c := NewController(Params{Start: 1000, Step: 1000, End: 500}, pw, fr, nil, logger.NewNopLogger())

	result, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Empty(t, fr.calls)
	assert.Equal(t, StopCompleted, result.StopReason)
	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "pointer file must not be created")
}

func TestRunContinuesAfterFailureByDefault(t *testing.T) {
	_, pw, fr := setup(t)
	fr.exitCodes[2000] = 1
	log := logger.NewTestLogger()
	c := NewController(Params{Start: 1000, Step: 1000, End: 3000}, pw, fr, nil, log)

	result, err := c.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []int{1000, 2000, 3000}, fr.calls)
	failures := result.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, 2000, failures[0].Index)
	assert.Equal(t, 1, failures[0].ExitCode)
	assert.Equal(t, errs.ErrorTypeExit, failures[0].ErrorType)
	assert.Len(t, log.GetMessagesByLevel("WARN"), 1)
}

func TestRunStrictAbortsOnFailure(t *testing.T) {
	_, pw, fr := setup(t)
	fr.exitCodes[2000] = 1
	c := NewController(Params{Start: 1000, Step: 1000, End: 3000, Strict: true}, pw, fr, nil, logger.NewNopLogger())

	result, err := c.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, []int{1000, 2000}, fr.calls)
	assert.Equal(t, StopStrictAbort, result.StopReason)
	assert.Equal(t, errs.ErrorTypeExit, errs.TypeOf(err))
}

func TestRunLaunchFailurePolicy(t *testing.T) {
	t.Run("default continues", func(t *testing.T) {
		_, pw, fr := setup(t)
		fr.launchFail[1000] = true
		c := NewController(Params{Start: 1000, Step: 1000, End: 2000}, pw, fr, nil, logger.NewNopLogger())

		result, err := c.Run(context.Background())
		require.NoError(t, err)
		assert.Equal(t, []int{2000}, fr.calls)
		assert.Equal(t, 1, result.Launched())
		assert.Len(t, result.Failures(), 1)
	})

	t.Run("strict aborts", func(t *testing.T) {
		_, pw, fr := setup(t)
		fr.launchFail[1000] = true
		c := NewController(Params{Start: 1000, Step: 1000, End: 2000, Strict: true}, pw, fr, nil, logger.NewNopLogger())

		result, err := c.Run(context.Background())
		require.Error(t, err)
		assert.Empty(t, fr.calls)
		assert.Equal(t, StopStrictAbort, result.StopReason)
		assert.Equal(t, errs.ErrorTypeLaunch, errs.TypeOf(err))
	})
}

func TestRunInterruptDuringChild(t *testing.T) {
	_, pw, fr := setup(t)
	stop := interrupt.NewHandler(logger.NewNopLogger())
	fr.onRun = func(index int) {
		if index == 2000 {
			stop.Request()
		}
	}
	c := NewController(Params{Start: 1000, Step: 1000, End: 3000}, pw, fr, stop, logger.NewNopLogger())

	result, err := c.Run(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, errs.ErrInterrupted)
	assert.Equal(t, []int{1000, 2000}, fr.calls, "2000 completes, 3000 never launched")
	assert.Equal(t, StopInterrupted, result.StopReason)
	assert.Len(t, result.Evaluations, 2)
}

func TestRunInterruptTakesPrecedenceOverStrict(t *testing.T) {
	_, pw, fr := setup(t)
	fr.exitCodes[2000] = 130
	stop := interrupt.NewHandler(logger.NewNopLogger())
	fr.onRun = func(index int) {
		if index == 2000 {
			stop.Request()
		}
	}
	c := NewController(Params{Start: 1000, Step: 1000, End: 3000, Strict: true}, pw, fr, stop, logger.NewNopLogger())

	result, err := c.Run(context.Background())
	assert.ErrorIs(t, err, errs.ErrInterrupted)
	assert.Equal(t, StopInterrupted, result.StopReason)
}

func TestRunCancelledContext(t *testing.T) {
	_, pw, fr := setup(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewController(Params{Start: 1000, Step: 1000, End: 3000}, pw, fr, nil, logger.NewNopLogger())
	result, err := c.Run(ctx)

	assert.ErrorIs(t, err, errs.ErrInterrupted)
	assert.Empty(t, fr.calls)
	assert.Equal(t, StopInterrupted, result.StopReason)
}

func TestRunPointerFailureAborts(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "weights")
	require.NoError(t, os.WriteFile(blocker, []byte("file, not directory"), 0644))

	pointerPath := filepath.Join(blocker, "checkpoint")
	fr := newFakeRunner(pointerPath)
	pw := pointer.NewWriter(pointerPath, logger.NewNopLogger())
	c := NewController(Params{Start: 1000, Step: 1000, End: 3000}, pw, fr, nil, logger.NewNopLogger())

	result, err := c.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, errs.ErrorTypePointerWrite, errs.TypeOf(err))
	assert.Equal(t, StopPointerFailure, result.StopReason)
	assert.Empty(t, fr.calls, "no evaluator launched without a valid pointer")
}

// mismatchedPointer writes successfully but never names the requested index
type mismatchedPointer struct{}

func (mismatchedPointer) Write(index int) error { return nil }
func (mismatchedPointer) Verify(index int) error {
	return errors.New("pointer names another checkpoint")
}

func TestRunRefusesUnverifiedPointer(t *testing.T) {
	fr := newFakeRunner(filepath.Join(t.TempDir(), "checkpoint"))
	c := NewController(Params{Start: 1000, Step: 1000, End: 3000}, mismatchedPointer{}, fr, nil, logger.NewNopLogger())

	_, err := c.Run(context.Background())
	assert.Equal(t, errs.ErrorTypePointerWrite, errs.TypeOf(err))
	assert.Empty(t, fr.calls)
}

func TestRunInvalidParams(t *testing.T) {
	_, pw, fr := setup(t)
	c := NewController(Params{Start: 1000, Step: 0, End: 3000}, pw, fr, nil, logger.NewNopLogger())

	result, err := c.Run(context.Background())
	assert.Nil(t, result)
	assert.Equal(t, errs.ErrorTypeConfig, errs.TypeOf(err))
}

func TestPlan(t *testing.T) {
	steps, err := Plan(Params{Start: 1000, Step: 1000, End: 2000}, func(index int) []string {
		return []string{"python", "main.py", "--save", pointer.CheckpointName(index)}
	})
	require.NoError(t, err)

	require.Len(t, steps, 2)
	assert.Equal(t, 1000, steps[0].Index)
	assert.Equal(t, "episode_1000", steps[0].Checkpoint)
	assert.Equal(t, "episode_2000", steps[1].Argv[3])
}
