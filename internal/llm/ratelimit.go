package llm

import (
	"context"
	"sync"
	"time"
)

// Limiter gates outbound calls.
type Limiter interface {
	Acquire(ctx context.Context) error
}

// TokenBucket throttles to at most rps calls per second with a burst
// capacity. A nil *TokenBucket never blocks.
type TokenBucket struct {
	tokens   chan struct{}
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewTokenBucket returns nil when rps <= 0, which disables limiting.
func NewTokenBucket(rps float64, burst int) *TokenBucket {
	if rps <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}

	l := &TokenBucket{
		tokens: make(chan struct{}, burst),
		stopCh: make(chan struct{}),
	}
	for i := 0; i < burst; i++ {
		l.tokens <- struct{}{}
	}

	period := time.Duration(float64(time.Second) / rps)
	if period <= 0 {
		period = time.Millisecond
	}
	ticker := time.NewTicker(period)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				select {
				case l.tokens <- struct{}{}:
				default:
					// bucket full
				}
			case <-l.stopCh:
				return
			}
		}
	}()
	return l
}

// Acquire blocks until a token is available or the context ends.
func (l *TokenBucket) Acquire(ctx context.Context) error {
	if l == nil {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-l.stopCh:
		return context.Canceled
	case <-l.tokens:
		return nil
	}
}

// Stop terminates the refill goroutine. Pending Acquire calls fail.
func (l *TokenBucket) Stop() {
	if l == nil {
		return
	}
	l.stopOnce.Do(func() { close(l.stopCh) })
}

// RateLimit makes every call wait for a token. Placed inside Retry it
// throttles each attempt rather than each logical call.
func RateLimit(l Limiter) Middleware {
	return func(next Backend) Backend {
		if l == nil {
			return next
		}
		if tb, ok := l.(*TokenBucket); ok && tb == nil {
			return next
		}
		return &funcs{
			name: next.Name(),
			translate: func(ctx context.Context, instructions, text string) (string, error) {
				if err := l.Acquire(ctx); err != nil {
					return "", err
				}
				return next.Translate(ctx, instructions, text)
			},
			decompose: func(ctx context.Context, instructions, raw string) (string, error) {
				if err := l.Acquire(ctx); err != nil {
					return "", err
				}
				return next.Decompose(ctx, instructions, raw)
			},
			generate: func(ctx context.Context, req GenerateRequest) (Image, error) {
				if err := l.Acquire(ctx); err != nil {
					return Image{}, err
				}
				return next.GenerateImage(ctx, req)
			},
		}
	}
}
