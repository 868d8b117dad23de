package retry

import (
	"context"
	"errors"
	"time"

	"github.com/vvka-141/dwhetl/pkg/dwhetl"
)

// Executor orchestrates retry attempts with backoff and error classification.
// Execute is safe for concurrent use; WithOnRetry returns a new instance.
type Executor struct {
	classifier dwhetl.ErrorClassifier
	strategy   dwhetl.BackoffStrategy
	onRetry    func(attempt int, err error, delay time.Duration)
	sleep      func(ctx context.Context, d time.Duration) error
}

// NewExecutor creates a new retry executor with the given configuration.
// Panics if classifier or strategy is nil.
func NewExecutor(classifier dwhetl.ErrorClassifier, strategy dwhetl.BackoffStrategy) *Executor {
	if classifier == nil {
		panic("classifier cannot be nil")
	}
	if strategy == nil {
		panic("strategy cannot be nil")
	}
	return &Executor{
		classifier: classifier,
		strategy:   strategy,
		sleep:      sleepContext,
	}
}

// WithOnRetry returns a new Executor that calls callback before each retry.
// The receiver is not modified.
func (e *Executor) WithOnRetry(callback func(attempt int, err error, delay time.Duration)) *Executor {
	clone := *e
	clone.onRetry = callback
	return &clone
}

// Execute runs operation, retrying transient failures until the strategy's
// attempts are spent. When ctx ends during a backoff wait, the context error
// is returned joined with the last operation error.
func (e *Executor) Execute(ctx context.Context, operation func(ctx context.Context) error) error {
	lastErr := operation(ctx)
	if lastErr == nil || !e.classifier.IsTransient(lastErr) {
		return lastErr
	}

	maxAttempts := e.strategy.MaxAttempts()
	for attempt := 0; maxAttempts < 0 || attempt < maxAttempts; attempt++ {
		delay := e.strategy.NextDelay(attempt)
		if e.onRetry != nil {
			e.onRetry(attempt, lastErr, delay)
		}

		if err := e.sleep(ctx, delay); err != nil {
			return errors.Join(err, lastErr)
		}

		lastErr = operation(ctx)
		if lastErr == nil || !e.classifier.IsTransient(lastErr) {
			return lastErr
		}
	}

	return lastErr
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
