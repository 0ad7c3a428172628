package repository

import (
	"context"
	"time"
)

// KnownURLRepository is a fast, expiring mirror of the store's URL set, used
// to skip detail fetches for articles crawled recently. It is advisory: the
// article store stays the source of truth, and a cache miss only costs one
// redundant fetch-and-upsert.
type KnownURLRepository interface {
	// MarkKnown records the urls for the given expiry window.
	MarkKnown(ctx context.Context, urls []string, ttl time.Duration) error
	// FilterKnown returns which of the given urls are currently known.
	FilterKnown(ctx context.Context, urls []string) (map[string]bool, error)
}
