package schedule_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cicconel11/TruthLayer-sub003/internal/schedule"
	"github.com/cicconel11/TruthLayer-sub003/internal/testutil"
)

type countingRunner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (c *countingRunner) RunOnce(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls++
	return c.err
}

func (c *countingRunner) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls
}

// yearlyExpression will not fire during a test run.
const yearlyExpression = "0 0 1 1 *"

func TestStartRunsImmediatelyWhenConfigured(t *testing.T) {
	runner := &countingRunner{}
	logger, _ := testutil.CaptureLogger()
	s := schedule.New(schedule.Config{
		Expression: yearlyExpression,
		Location:   time.UTC,
		RunOnStart: true,
	}, runner, logger)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return runner.count() == 1 },
		2*time.Second, 5*time.Millisecond)
}

func TestStartWithoutRunOnStartWaitsForCron(t *testing.T) {
	runner := &countingRunner{}
	logger, _ := testutil.CaptureLogger()
	s := schedule.New(schedule.Config{
		Expression: yearlyExpression,
		Location:   time.UTC,
		RunOnStart: false,
	}, runner, logger)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	time.Sleep(50 * time.Millisecond)
	require.Equal(t, 0, runner.count())
}

func TestCronFiresRepeatedly(t *testing.T) {
	runner := &countingRunner{}
	logger, logs := testutil.CaptureLogger()
	s := schedule.New(schedule.Config{
		Expression: "@every 10ms",
		Location:   time.UTC,
		RunOnStart: false,
	}, runner, logger)

	require.NoError(t, s.Start(context.Background()))
	defer s.Stop()

	require.Eventually(t, func() bool { return runner.count() >= 2 },
		2*time.Second, 5*time.Millisecond)
	require.True(t, logs.Contains("cron schedule fired"))
}

func TestStopHaltsFiring(t *testing.T) {
	runner := &countingRunner{}
	logger, _ := testutil.CaptureLogger()
	s := schedule.New(schedule.Config{
		Expression: "@every 10ms",
		Location:   time.UTC,
		RunOnStart: false,
	}, runner, logger)

	require.NoError(t, s.Start(context.Background()))
	require.Eventually(t, func() bool { return runner.count() >= 1 },
		2*time.Second, 5*time.Millisecond)
	s.Stop()

	// Let triggers already in flight land before taking the baseline.
	time.Sleep(50 * time.Millisecond)
	before := runner.count()
	time.Sleep(100 * time.Millisecond)
	require.Equal(t, before, runner.count())
}

func TestTriggerSwallowsRunErrors(t *testing.T) {
	runner := &countingRunner{err: errors.New("pipeline exploded")}
	logger, logs := testutil.CaptureLogger()
	s := schedule.New(schedule.Config{
		Expression: yearlyExpression,
		Location:   time.UTC,
		RunOnStart: false,
	}, runner, logger)

	s.Trigger(context.Background())

	require.Equal(t, 1, runner.count())
	require.True(t, logs.Contains("triggered pipeline run failed"))
	require.True(t, logs.Contains("pipeline exploded"))
}

func TestStartRejectsMalformedExpression(t *testing.T) {
	runner := &countingRunner{}
	logger, _ := testutil.CaptureLogger()
	s := schedule.New(schedule.Config{
		Expression: "every full moon",
		Location:   time.UTC,
		RunOnStart: true,
	}, runner, logger)

	err := s.Start(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "register cron expression")
	require.Equal(t, 0, runner.count())
}
