// Package retry provides automatic retry logic with exponential backoff
// for transient database connection failures.
//
// Retry is deliberately limited to connection establishment. Table loads are
// never retried: a failed load is recorded in the log table and the pipeline
// moves on to the next table.
//
// # Example Usage
//
//	classifier := retry.NewPostgreSQLErrorClassifier()
//	strategy := retry.NewExponentialBackoff(3)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return connectToDatabase(ctx)
//	})
package retry
