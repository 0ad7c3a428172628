package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/news-service/pkg/utils"
)

const knownURLPrefix = "known:"

// KnownURLRepoImpl provides a concrete implementation for the
// KnownURLRepository interface using Redis.
type KnownURLRepoImpl struct {
	client *redis.Client
}

// NewKnownURLRepo creates a new instance of KnownURLRepoImpl.
func NewKnownURLRepo(client *redis.Client) *KnownURLRepoImpl {
	return &KnownURLRepoImpl{client: client}
}

// generateKey creates a consistent Redis key for a given URL by hashing it.
func (r *KnownURLRepoImpl) generateKey(url string) string {
	return fmt.Sprintf("%s%s", knownURLPrefix, utils.HashURL(url))
}

// MarkKnown records the urls with the given expiry in one pipelined round trip.
func (r *KnownURLRepoImpl) MarkKnown(ctx context.Context, urls []string, ttl time.Duration) error {
	if len(urls) == 0 {
		return nil
	}
	pipe := r.client.Pipeline()
	for _, u := range urls {
		pipe.SetEx(ctx, r.generateKey(u), "1", ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// FilterKnown reports which urls are currently known, in one pipelined round trip.
func (r *KnownURLRepoImpl) FilterKnown(ctx context.Context, urls []string) (map[string]bool, error) {
	known := make(map[string]bool, len(urls))
	if len(urls) == 0 {
		return known, nil
	}

	pipe := r.client.Pipeline()
	cmds := make([]*redis.IntCmd, len(urls))
	for i, u := range urls {
		cmds[i] = pipe.Exists(ctx, r.generateKey(u))
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	for i, cmd := range cmds {
		if cmd.Val() == 1 {
			known[urls[i]] = true
		}
	}
	return known, nil
}
