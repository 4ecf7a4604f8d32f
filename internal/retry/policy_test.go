package retry

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wxforge/wxforge/internal/types"
)

func TestPolicyRetriesTransientErrors(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 3, Delay: 0}

	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 3 {
			return fmt.Errorf("dial: %w", types.ErrTransientTransport)
		}
		return nil
	})

	require.NoError(t, err)
	assert.Equal(t, 3, calls)
}

func TestPolicyStopsAfterMaxAttempts(t *testing.T) {
	calls := 0
	p := Policy{MaxAttempts: 2, Delay: 0}

	err := p.Do(context.Background(), func() error {
		calls++
		return fmt.Errorf("timeout: %w", types.ErrTransientTransport)
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, types.ErrTransientTransport)
	assert.Equal(t, 2, calls)
}

func TestPolicyDoesNotRetryFatalErrors(t *testing.T) {
	calls := 0
	fatal := errors.New("body failed sanity check")
	p := Policy{MaxAttempts: 3, Delay: 0}

	err := p.Do(context.Background(), func() error {
		calls++
		return fatal
	})

	assert.ErrorIs(t, err, fatal)
	assert.Equal(t, 1, calls, "non-retryable error must not be retried")
}

func TestPolicyHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{MaxAttempts: 5, Delay: time.Hour}

	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := p.Do(ctx, func() error {
		calls++
		return types.ErrTransientTransport
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestPolicyCustomClassifier(t *testing.T) {
	calls := 0
	p := Policy{
		MaxAttempts: 4,
		Delay:       0,
		Classify:    func(err error) bool { return err.Error() == "again" },
	}

	err := p.Do(context.Background(), func() error {
		calls++
		if calls < 2 {
			return errors.New("again")
		}
		return errors.New("done")
	})

	assert.EqualError(t, err, "done")
	assert.Equal(t, 2, calls)
}

func TestSemaphoreSerializes(t *testing.T) {
	sem := NewSemaphore(1)
	require.NoError(t, sem.Acquire(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := sem.Acquire(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	sem.Release()
	require.NoError(t, sem.Acquire(context.Background()))
	sem.Release()
}

func TestWatchdogFlipsAndClears(t *testing.T) {
	var transitions []bool
	w := NewWatchdog(time.Minute, func(stopped bool) {
		transitions = append(transitions, stopped)
	})

	clock := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	w.Feed()
	w.Check()
	assert.False(t, w.Stopped())

	clock = clock.Add(2 * time.Minute)
	w.Check()
	assert.True(t, w.Stopped())

	// A second check must not re-fire the transition callback.
	w.Check()
	assert.Equal(t, []bool{true}, transitions)

	w.Feed()
	assert.False(t, w.Stopped())
	assert.Equal(t, []bool{true, false}, transitions)
}

func TestWatchdogAlarmsWhenNeverFed(t *testing.T) {
	w := NewWatchdog(time.Minute, nil)
	w.Check()
	assert.True(t, w.Stopped())
}
