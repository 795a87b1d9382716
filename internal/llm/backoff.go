package llm

import (
	"context"
	"time"

	"promptlab/internal/apperr"
)

// Backoff configures CallWithBackoff: one initial attempt, then up to
// MaxRetries retries with the delay doubling after each one.
type Backoff struct {
	MaxRetries   int
	InitialDelay time.Duration

	// sleep is replaced in tests.
	sleep func(ctx context.Context, d time.Duration) error
}

func DefaultBackoff() Backoff {
	return Backoff{MaxRetries: 5, InitialDelay: time.Second}
}

// CallWithBackoff invokes fn until it succeeds, fails permanently, the
// context ends, or retries run out. The last error is returned.
func CallWithBackoff[T any](ctx context.Context, b Backoff, fn func(context.Context) (T, error)) (T, error) {
	var zero T
	if b.MaxRetries < 0 {
		b.MaxRetries = 0
	}
	if b.InitialDelay <= 0 {
		b.InitialDelay = time.Second
	}
	sleep := b.sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	delay := b.InitialDelay
	for attempt := 0; ; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		if apperr.IsPermanent(err) || attempt >= b.MaxRetries {
			return zero, err
		}
		if err := sleep(ctx, delay); err != nil {
			return zero, err
		}
		delay *= 2
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
