// Package retry provides bounded retry with backoff.
//
// The evaluator runner uses it to retry child-launch failures (for example a
// binary that is briefly busy or missing while being replaced). Non-zero exits
// are never retried: the default predicate only accepts typed errors whose
// kind is retryable.
//
//	err := retry.Do(func() error {
//		return start()
//	}, &retry.Config{
//		MaxAttempts: 3,
//		Backoff:     &retry.ConstantBackoff{Delay: time.Second},
//		Logger:      logger.GetLogger(),
//	})
package retry
