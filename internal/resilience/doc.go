// Package resilience groups the fault tolerance helpers used around feed
// requests.
//
// Subpackages:
//   - circuitbreaker: per-host breakers built on sony/gobreaker
//   - retry: exponential backoff with jitter for transient HTTP and network errors
//
// Usage Example:
//
//	breakers := circuitbreaker.NewHostSet(nil, logger)
//	_, err := breakers.For(feedURL).Execute(func() (interface{}, error) {
//	    return nil, retry.WithBackoff(ctx, retry.FeedFetchConfig(), fetch)
//	})
package resilience
