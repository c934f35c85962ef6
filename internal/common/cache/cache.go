// Package cache is the response cache memoizing AI gateway calls.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque values with a per-entry TTL. Implementations must be
// safe for concurrent use; readers never observe a partially written value.
type Cache interface {
	// Get returns the value and true on a live hit.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores value under key. ttl <= 0 means no expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	// InvalidatePrefix removes every key starting with prefix and returns
	// how many were removed.
	InvalidatePrefix(ctx context.Context, prefix string) (int, error)
}
