package ratelimit

import "errors"

var (
	// ErrRateLimitExceeded is returned by callers that convert a denied
	// Result into an error; pair it with Result.RetryAfter for producers.
	ErrRateLimitExceeded = errors.New("rate limit exceeded")

	ErrInvalidLimit    = errors.New("invalid limit")
	ErrInvalidInterval = errors.New("invalid interval")
	ErrKeyRequired     = errors.New("key is required")
	ErrStoreRequired   = errors.New("store is required")
)
