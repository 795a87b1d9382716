package llm

import (
	"context"
	"time"

	"go.uber.org/zap"

	"promptlab/internal/apperr"
)

// Middleware decorates a Backend with a cross-cutting concern.
type Middleware func(Backend) Backend

// Wrap applies middlewares in left-to-right order.
// Example: Wrap(inner, A, B) => A(B(inner))
func Wrap(inner Backend, mws ...Middleware) Backend {
	out := inner
	for i := len(mws) - 1; i >= 0; i-- {
		out = mws[i](out)
	}
	return out
}

// funcs adapts three call hooks into a Backend. Each middleware supplies
// only the around-call behavior.
type funcs struct {
	name      string
	translate func(ctx context.Context, instructions, text string) (string, error)
	decompose func(ctx context.Context, instructions, raw string) (string, error)
	generate  func(ctx context.Context, req GenerateRequest) (Image, error)
}

func (f *funcs) Name() string { return f.name }
func (f *funcs) Translate(ctx context.Context, instructions, text string) (string, error) {
	return f.translate(ctx, instructions, text)
}
func (f *funcs) Decompose(ctx context.Context, instructions, raw string) (string, error) {
	return f.decompose(ctx, instructions, raw)
}
func (f *funcs) GenerateImage(ctx context.Context, req GenerateRequest) (Image, error) {
	return f.generate(ctx, req)
}

// Retry runs every call through CallWithBackoff. Permanent errors and
// credential failures return on the first attempt.
func Retry(b Backoff) Middleware {
	return func(next Backend) Backend {
		return &funcs{
			name: next.Name(),
			translate: func(ctx context.Context, instructions, text string) (string, error) {
				return CallWithBackoff(ctx, b, func(ctx context.Context) (string, error) {
					return next.Translate(ctx, instructions, text)
				})
			},
			decompose: func(ctx context.Context, instructions, raw string) (string, error) {
				return CallWithBackoff(ctx, b, func(ctx context.Context) (string, error) {
					return next.Decompose(ctx, instructions, raw)
				})
			},
			generate: func(ctx context.Context, req GenerateRequest) (Image, error) {
				return CallWithBackoff(ctx, b, func(ctx context.Context) (Image, error) {
					return next.GenerateImage(ctx, req)
				})
			},
		}
	}
}

// Logging records each call with its duration and error classification.
func Logging(log *zap.Logger) Middleware {
	if log == nil {
		log = zap.NewNop()
	}
	return func(next Backend) Backend {
		l := log.With(zap.String("backend", next.Name()))
		record := func(op string, start time.Time, err error) {
			fields := []zap.Field{zap.String("op", op), zap.Duration("duration", time.Since(start))}
			if err != nil {
				fields = append(fields, zap.String("kind", string(apperr.KindOf(err))), zap.String("error", RedactMedia(err.Error())))
				l.Warn("backend call failed", fields...)
				return
			}
			l.Debug("backend call", fields...)
		}
		return &funcs{
			name: next.Name(),
			translate: func(ctx context.Context, instructions, text string) (string, error) {
				start := time.Now()
				out, err := next.Translate(ctx, instructions, text)
				record("translate", start, err)
				return out, err
			},
			decompose: func(ctx context.Context, instructions, raw string) (string, error) {
				start := time.Now()
				out, err := next.Decompose(ctx, instructions, raw)
				record("decompose", start, err)
				return out, err
			},
			generate: func(ctx context.Context, req GenerateRequest) (Image, error) {
				start := time.Now()
				img, err := next.GenerateImage(ctx, req)
				record("generate_image", start, err)
				return img, err
			},
		}
	}
}

// OnCredentialExpired invokes fn whenever a call fails with an expired credential.
func OnCredentialExpired(fn func()) Middleware {
	check := func(err error) {
		if err != nil && apperr.KindOf(err) == apperr.KindCredential && fn != nil {
			fn()
		}
	}
	return func(next Backend) Backend {
		return &funcs{
			name: next.Name(),
			translate: func(ctx context.Context, instructions, text string) (string, error) {
				out, err := next.Translate(ctx, instructions, text)
				check(err)
				return out, err
			},
			decompose: func(ctx context.Context, instructions, raw string) (string, error) {
				out, err := next.Decompose(ctx, instructions, raw)
				check(err)
				return out, err
			},
			generate: func(ctx context.Context, req GenerateRequest) (Image, error) {
				img, err := next.GenerateImage(ctx, req)
				check(err)
				return img, err
			},
		}
	}
}
