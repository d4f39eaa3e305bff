// Package httputil provides retry support for dataset fetches.
//
// [Retry] wraps HTTP requests with automatic retry for transient
// failures:
//
//   - Network errors (timeouts, connection resets)
//   - 5xx server errors
//
// Non-transient failures (4xx responses, malformed documents) are
// returned immediately. The caller marks an error transient by wrapping
// it in [RetryableError]:
//
//	err := httputil.RetryWithBackoff(ctx, func() error {
//	    resp, err := client.Get(url)
//	    if err != nil {
//	        return &httputil.RetryableError{Err: err}
//	    }
//	    ...
//	})
//
// Defaults are 3 attempts with a 1 second initial delay, doubling each
// retry. Byte-level response caching lives in the cache package, not
// here.
package httputil
