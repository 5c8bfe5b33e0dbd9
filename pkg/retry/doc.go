// Package retry re-runs browser steps that fail for transient reasons, such
// as a profile page that times out or a followers dialog that has not
// rendered yet.
//
//	err := retry.Do(ctx, func(ctx context.Context) error {
//	    return page.Goto(ctx, url, timeout)
//	}, &retry.Config{MaxAttempts: 2, Backoff: retry.DefaultExponentialBackoff()})
//
// Classified errors are retried according to errors.IsRetryable; cancellation
// is never retried.
package retry
