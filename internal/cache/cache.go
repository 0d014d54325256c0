package cache

import (
	"context"
	"time"
)

// DefaultTTL bounds fast-tier entries unless a caller overrides it.
const DefaultTTL = time.Hour

// Cache is the fast key-value tier of the layered cache. Implementations must
// treat expired entries and backend faults as misses; Get never fails upward
// and never aborts a resolution.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration)
	Invalidate(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// ProductKey derives the fast-cache key for a barcode. Products are the only
// entity type sharing this keyspace.
func ProductKey(barcode string) string {
	return "product:" + barcode
}
