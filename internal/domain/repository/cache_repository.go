package repository

import (
	"context"
	"time"
)

// SearchKeyPrefix namespaces cached search responses so they can be dropped
// together when leg data changes.
const SearchKeyPrefix = "search:legs:"

// CacheRepository is the byte-level cache boundary.
type CacheRepository interface {
	// Get returns the cached value or nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key with a TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a single key.
	Delete(ctx context.Context, key string) error

	// Exists reports whether key is present.
	Exists(ctx context.Context, key string) (bool, error)

	// InvalidateSearchResults drops every cached search response.
	InvalidateSearchResults(ctx context.Context) (int, error)
}
