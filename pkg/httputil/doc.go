// Package httputil provides HTTP helpers for fetching remote assets.
//
// # Fetch
//
// [Fetch] downloads a URL with a size limit, retrying transient failures
// (network errors, 5xx and 429 responses) with exponential backoff:
//
//	data, err := httputil.Fetch(ctx, nil, "https://example.com/mono.ttf", 8<<20)
//
// # Retry
//
// [Retry] runs any operation with backoff. Only errors wrapped in
// [RetryableError] are retried; everything else returns immediately.
package httputil
