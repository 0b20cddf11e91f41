package simpleud

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"

	udhttp "github.com/sugarkwork/simpleud/internal/http"
)

// Retry defaults.
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = time.Second
)

// RetryPolicy is a fixed number of attempts with a fixed delay between them.
// There is no jitter and no growth. Only 404 stops the loop early.
type RetryPolicy struct {
	// Attempts is the total number of requests allowed. Values below 1 are
	// treated as 1.
	Attempts int

	// Delay is the pause between attempts. No pause follows the last one.
	Delay time.Duration
}

// DefaultRetryPolicy returns 3 attempts one second apart.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: DefaultRetryAttempts,
		Delay:    DefaultRetryDelay,
	}
}

func (p RetryPolicy) attempts() int {
	return max(p.Attempts, 1)
}

// backoff yields the delay before each retry and stops after Attempts-1.
func (p RetryPolicy) backoff() retry.Backoff {
	var b retry.Backoff
	if p.Delay > 0 {
		b = retry.NewConstant(p.Delay)
	} else {
		b = retry.BackoffFunc(func() (time.Duration, bool) { return 0, false })
	}
	return retry.WithMaxRetries(uint64(p.attempts()-1), b)
}

// attemptFunc performs one attempt. It returns the HTTP status it observed
// (0 if none) and a nil error only on 200 OK.
type attemptFunc func(ctx context.Context, attempt int) (int, error)

// loopResult summarises a finished retry loop.
type loopResult struct {
	attempts int
	status   int
	err      error
}

// retryLoop runs fn until it succeeds, reports 404, the context ends or the
// policy runs out.
func (c *Client) retryLoop(ctx context.Context, log *slog.Logger, policy RetryPolicy, fn attemptFunc) loopResult {
	b := policy.backoff()
	total := policy.attempts()

	for attempt := 1; ; attempt++ {
		id := uuid.NewString()
		status, err := fn(udhttp.WithRequestID(ctx, id), attempt)
		if err == nil {
			return loopResult{attempts: attempt, status: status}
		}

		aerr := &AttemptError{Attempt: attempt, StatusCode: status, RequestID: id, Err: err}

		if ctxErr := ctx.Err(); ctxErr != nil {
			return loopResult{attempts: attempt, status: status, err: fmt.Errorf("%w (%w)", ctxErr, aerr)}
		}

		if errors.Is(aerr, ErrNotFound) {
			log.WarnContext(ctx, "not found",
				slog.Int("attempt", attempt),
				slog.Int("status", status),
				slog.String("request_id", id),
				slog.Any("error", err),
			)
			return loopResult{attempts: attempt, status: status, err: aerr}
		}

		log.WarnContext(ctx, "attempt failed",
			slog.Int("attempt", attempt),
			slog.Int("max_attempts", total),
			slog.Int("status", status),
			slog.String("request_id", id),
			slog.Any("error", err),
		)

		delay, stop := b.Next()
		if stop {
			return loopResult{
				attempts: attempt,
				status:   status,
				err:      fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, attempt, aerr),
			}
		}

		if err := c.sleep(ctx, delay); err != nil {
			return loopResult{attempts: attempt, status: status, err: fmt.Errorf("%w (%w)", err, aerr)}
		}
	}
}

// sleepContext waits for d or until ctx is done.
func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
