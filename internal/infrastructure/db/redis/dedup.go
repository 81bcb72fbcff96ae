package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// dedupTTL bounds how long an identical notification stays suppressed; a
// status transition repeating after this window notifies again.
const dedupTTL = 6 * time.Hour

// DedupChecker suppresses duplicate notification deliveries, backed by Redis.
// Key format: notify:<classification key built by the queue dispatcher>.
type DedupChecker struct {
	client *redis.Client
}

// NewDedupChecker creates a DedupChecker wrapping the given Redis client.
func NewDedupChecker(client *redis.Client) *DedupChecker {
	return &DedupChecker{client: client}
}

// IsDuplicate reports whether this notification was already delivered within
// the dedup window.
func (d *DedupChecker) IsDuplicate(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, "notify:"+key).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check: %w", err)
	}
	return n > 0, nil
}

// Mark records that this notification has been delivered (expires after
// dedupTTL).
func (d *DedupChecker) Mark(ctx context.Context, key string) error {
	return d.client.Set(ctx, "notify:"+key, "1", dedupTTL).Err()
}
