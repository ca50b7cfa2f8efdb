package distance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"relocation-quote/internal/config"

	"github.com/eapache/go-resiliency/retrier"
)

// RetryPolicy — детерминированное расписание повторов одного внешнего вызова.
type RetryPolicy struct {
	MaxAttempts    int
	Pacing         time.Duration // пауза перед каждой попыткой, включая первую
	Backoff        time.Duration // после n-й неудачи ждём Backoff*n
	AttemptTimeout time.Duration // 0 — без таймаута попытки

	// OnRetry вызывается после неудачной попытки, если будет следующая.
	OnRetry func(attempt int, err error)
}

// PolicyFromConfig собирает политику из конфигурации.
func PolicyFromConfig(cfg config.RetryConfig) RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    cfg.MaxAttempts,
		Pacing:         cfg.Pacing(),
		Backoff:        cfg.Backoff(),
		AttemptTimeout: cfg.Timeout(),
	}
}

func (p RetryPolicy) attempts() int {
	if p.MaxAttempts < 1 {
		return 1
	}
	return p.MaxAttempts
}

// backoffs — линейное расписание без джиттера: step, 2*step, ...
func (p RetryPolicy) backoffs() []time.Duration {
	out := make([]time.Duration, p.attempts()-1)
	for i := range out {
		out[i] = p.Backoff * time.Duration(i+1)
	}
	return out
}

// ExhaustedError — все попытки неудачны. Err — ошибка последней попытки.
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("failed after %d attempts: %v", e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Attempts возвращает число сделанных попыток, если err получена из Retry.
func Attempts(err error) int {
	var exhausted *ExhaustedError
	if errors.As(err, &exhausted) {
		return exhausted.Attempts
	}
	return 0
}

// stopOnCancel повторяет любую ошибку, пока жив контекст вызывающего.
type stopOnCancel struct {
	ctx context.Context
}

func (c stopOnCancel) Classify(err error) retrier.Action {
	switch {
	case err == nil:
		return retrier.Succeed
	case c.ctx.Err() != nil:
		return retrier.Fail
	default:
		return retrier.Retry
	}
}

// Retry выполняет op по политике p. Таймаут попытки отменяет только её
// и считается обычной неудачей. Отмена ctx прекращает повторы сразу.
func Retry[T any](ctx context.Context, p RetryPolicy, op func(ctx context.Context) (T, error)) (T, error) {
	var (
		result   T
		attempts int
	)
	limit := p.attempts()

	r := retrier.New(p.backoffs(), stopOnCancel{ctx: ctx})
	err := r.RunCtx(ctx, func(ctx context.Context) error {
		if err := sleep(ctx, p.Pacing); err != nil {
			return err
		}
		attempts++

		v, err := runAttempt(ctx, p.AttemptTimeout, op)
		if err != nil {
			if p.OnRetry != nil && attempts < limit && ctx.Err() == nil {
				p.OnRetry(attempts, err)
			}
			return err
		}
		result = v
		return nil
	})

	if err == nil {
		return result, nil
	}

	var zero T
	if ctxErr := ctx.Err(); ctxErr != nil {
		return zero, fmt.Errorf("aborted after %d attempts: %w", attempts, ctxErr)
	}
	return zero, &ExhaustedError{Attempts: attempts, Err: err}
}

type outcome[T any] struct {
	value T
	err   error
}

func runAttempt[T any](ctx context.Context, timeout time.Duration, op func(ctx context.Context) (T, error)) (T, error) {
	if timeout <= 0 {
		return op(ctx)
	}

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	done := make(chan outcome[T], 1)
	go func() {
		v, err := op(attemptCtx)
		done <- outcome[T]{value: v, err: err}
	}()

	var zero T
	select {
	case o := <-done:
		if o.err != nil && ctx.Err() == nil && errors.Is(attemptCtx.Err(), context.DeadlineExceeded) {
			return zero, fmt.Errorf("%w after %s: %v", ErrTimeout, timeout, o.err)
		}
		return o.value, o.err
	case <-attemptCtx.Done():
		if err := ctx.Err(); err != nil {
			return zero, err
		}
		return zero, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
