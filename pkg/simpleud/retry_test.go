package simpleud

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryPolicyBackoff(t *testing.T) {
	tests := []struct {
		name   string
		policy RetryPolicy
		sleeps int
	}{
		{"default", DefaultRetryPolicy(), 2},
		{"single attempt", RetryPolicy{Attempts: 1, Delay: time.Second}, 0},
		{"zero attempts", RetryPolicy{Attempts: 0, Delay: time.Second}, 0},
		{"negative attempts", RetryPolicy{Attempts: -3}, 0},
		{"zero delay", RetryPolicy{Attempts: 4}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := tt.policy.backoff()
			for i := 0; i < tt.sleeps; i++ {
				d, stop := b.Next()
				require.False(t, stop, "stopped after %d delays", i)
				assert.Equal(t, max(tt.policy.Delay, 0), d)
			}
			_, stop := b.Next()
			assert.True(t, stop)
		})
	}
}

func TestRetryLoopNoSleepAfterLastAttempt(t *testing.T) {
	c, rec := newTestClient(t, "http://host")

	calls := 0
	lr := c.retryLoop(context.Background(), c.log, RetryPolicy{Attempts: 3, Delay: time.Minute},
		func(ctx context.Context, attempt int) (int, error) {
			calls++
			assert.Equal(t, calls, attempt)
			return 500, errors.New("boom")
		})

	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, lr.attempts)
	assert.Equal(t, 500, lr.status)
	assert.Equal(t, []time.Duration{time.Minute, time.Minute}, rec.delays)
	assert.ErrorIs(t, lr.err, ErrRetriesExhausted)

	var aerr *AttemptError
	require.ErrorAs(t, lr.err, &aerr)
	assert.Equal(t, 3, aerr.Attempt)
	assert.NotEmpty(t, aerr.RequestID)
}

func TestRetryLoopStopsOnSuccess(t *testing.T) {
	c, rec := newTestClient(t, "http://host")

	calls := 0
	lr := c.retryLoop(context.Background(), c.log, DefaultRetryPolicy(),
		func(ctx context.Context, attempt int) (int, error) {
			calls++
			if attempt < 2 {
				return 0, errors.New("connection reset")
			}
			return 200, nil
		})

	require.NoError(t, lr.err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 200, lr.status)
	assert.Equal(t, 1, rec.count())
}

func TestRetryLoopSleepCancelled(t *testing.T) {
	c, _ := newTestClient(t, "http://host")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c.sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return sleepContext(ctx, d)
	}

	calls := 0
	lr := c.retryLoop(ctx, c.log, RetryPolicy{Attempts: 5, Delay: time.Hour},
		func(ctx context.Context, attempt int) (int, error) {
			calls++
			return 503, errors.New("unavailable")
		})

	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, lr.err, context.Canceled)
	assert.NotErrorIs(t, lr.err, ErrRetriesExhausted)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), 0))
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	start := time.Now()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.Less(t, time.Since(start), time.Second)
}
