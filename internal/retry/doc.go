// Package retry re-runs operations that fail with transient errors.
//
// An Executor combines an ErrorClassifier, which decides whether a failure is
// worth retrying, with a BackoffStrategy, which decides how long to wait.
// The catalog connector and the object storage client both go through it.
//
//	executor := retry.NewExecutor(
//	    retry.NewPostgreSQLErrorClassifier(),
//	    retry.NewExponentialBackoff(3, retry.WithInitialDelay(200*time.Millisecond)),
//	)
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return pool.Ping(ctx)
//	})
package retry
