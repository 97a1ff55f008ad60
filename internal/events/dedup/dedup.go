// Package dedup suppresses duplicate event deliveries using Redis.
package dedup

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers event ids for a retention window. Kafka delivers
// at-least-once; consumers check each event id before applying it.
type Deduper struct {
	rdb       *redis.Client
	retention time.Duration
}

// New returns a Deduper remembering ids for the given retention.
func New(rdb *redis.Client, retention time.Duration) *Deduper {
	return &Deduper{rdb: rdb, retention: retention}
}

// Seen atomically records the event id and reports whether it was already
// recorded. On a Redis failure it reports false with the error: the caller
// applies the event anyway, since consumers must be idempotent regardless.
func (d *Deduper) Seen(ctx context.Context, eventID string) (bool, error) {
	set, err := d.rdb.SetNX(ctx, "evt:"+eventID, 1, d.retention).Result()
	if err != nil {
		return false, err
	}
	return !set, nil
}
