package utils

import (
	"context"
	"time"

	"hippocampus/apperror"

	"github.com/m-mizutani/goerr/v2"
	"go.uber.org/zap"
)

const (
	DefaultMaxAttempts = 4
	DefaultBaseDelay   = time.Second
)

// Classifier reports whether err is a transient connectivity failure worth
// another attempt.
type Classifier func(err error) bool

// Retrier runs an operation with bounded exponential backoff. Each external
// client supplies its own Classifier; Before runs ahead of every attempt and
// its failure is classified like the operation's.
type Retrier struct {
	Name        string
	MaxAttempts int
	BaseDelay   time.Duration
	Classify    Classifier
	Before      func(ctx context.Context) error
	Sleep       func(ctx context.Context, d time.Duration) error
}

func NewRetrier(name string, maxAttempts int, baseDelay time.Duration, classify Classifier) *Retrier {
	if maxAttempts < 1 {
		maxAttempts = DefaultMaxAttempts
	}
	if baseDelay <= 0 {
		baseDelay = DefaultBaseDelay
	}
	return &Retrier{
		Name:        name,
		MaxAttempts: maxAttempts,
		BaseDelay:   baseDelay,
		Classify:    classify,
		Sleep:       SleepContext,
	}
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Do calls fn until it succeeds, fails with a non-transient error or runs out
// of attempts. Attempt n (0-based) that fails transiently is followed by a
// sleep of BaseDelay * 2^n. Exhaustion yields an upstream-unavailable error
// carrying the attempt count and the last error.
func (r *Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	attempts := r.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = SleepContext
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		lastErr = r.attempt(ctx, fn)
		if lastErr == nil {
			return nil
		}

		if _, ok := apperror.As(lastErr); ok {
			return lastErr
		}
		if !r.transient(lastErr) {
			return goerr.Wrap(lastErr, "operation failed",
				goerr.V("service", r.Name),
				goerr.V("operation", op),
				goerr.V("attempt", attempt+1))
		}
		if attempt == attempts-1 {
			break
		}

		delay := r.BaseDelay << attempt
		Logger.Warn("transient failure, retrying",
			zap.String("service", r.Name),
			zap.String("operation", op),
			zap.Int("attempt", attempt+1),
			zap.Duration("backoff", delay),
			zap.Error(lastErr))
		TrackRetryAttempt(r.Name)

		if err := sleep(ctx, delay); err != nil {
			return goerr.Wrap(err, "retry aborted",
				goerr.V("service", r.Name),
				goerr.V("operation", op),
				goerr.V("last_error", lastErr.Error()))
		}
	}

	Logger.Error("retries exhausted",
		zap.String("service", r.Name),
		zap.String("operation", op),
		zap.Int("attempts", attempts),
		zap.Error(lastErr))

	return apperror.Upstream(lastErr, r.Name+" is unavailable").
		With("service", r.Name).
		With("operation", op).
		With("attempts", attempts).
		With("last_error", lastErr.Error())
}

// DoOnce retries only the Before check, then runs fn a single time. It is for
// writes that are not idempotent: a retry after a lost reply would apply them
// twice. A transient failure of fn is reported as upstream-unavailable.
func (r *Retrier) DoOnce(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	if r.Before != nil {
		preflight := *r
		preflight.Before = nil
		if err := preflight.Do(ctx, op+".preflight", r.Before); err != nil {
			return err
		}
	}

	err := fn(ctx)
	if err == nil {
		return nil
	}
	if _, ok := apperror.As(err); ok {
		return err
	}
	if !r.transient(err) {
		return goerr.Wrap(err, "operation failed",
			goerr.V("service", r.Name),
			goerr.V("operation", op),
			goerr.V("attempt", 1))
	}

	Logger.Error("non-idempotent operation failed, not retrying",
		zap.String("service", r.Name),
		zap.String("operation", op),
		zap.Error(err))
	return apperror.Upstream(err, r.Name+" is unavailable").
		With("service", r.Name).
		With("operation", op).
		With("attempts", 1).
		With("last_error", err.Error())
}

func (r *Retrier) attempt(ctx context.Context, fn func(ctx context.Context) error) error {
	if r.Before != nil {
		if err := r.Before(ctx); err != nil {
			return err
		}
	}
	return fn(ctx)
}

func (r *Retrier) transient(err error) bool {
	return r.Classify != nil && r.Classify(err)
}
