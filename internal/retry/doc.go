// Package retry retries warehouse session acquisition with exponential
// backoff.
//
// Statements are never retried: COPY and INSERT ... SELECT are not idempotent,
// so a load run fails fast and the operator reruns it from the drop stage.
// Only opening the session is worth another attempt, for example while a
// paused cluster resumes.
//
//	classifier := retry.NewWarehouseErrorClassifier()
//	strategy := retry.NewExponentialBackoff(3)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    session, err = manager.Acquire(ctx, conn)
//	    return err
//	})
//
// Executor instances are safe for concurrent use. WithOnRetry returns a copy.
package retry
