package filters

import (
	"context"
	"net/http"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RateLimitFilter enforces the classified endpoint's per-client rate limit
// using a Redis counter per client and window. It fails open: a Redis outage
// must not take legitimate traffic down with it, and authentication further
// down the chain stays fail-closed regardless.
type RateLimitFilter struct {
	rdb *redis.Client
	log *zap.Logger
}

// NewRateLimitFilter returns a rate limit filter backed by rdb.
func NewRateLimitFilter(rdb *redis.Client, log *zap.Logger) *RateLimitFilter {
	return &RateLimitFilter{rdb: rdb, log: log}
}

func (f *RateLimitFilter) Name() string { return "rate-limit" }

func (f *RateLimitFilter) Apply(ctx context.Context, r *http.Request) (context.Context, *Failure) {
	desc, ok := DescriptorFromContext(ctx)
	if !ok || desc.RateLimit <= 0 || desc.RateWindow <= 0 {
		return ctx, nil
	}
	sc, ok := SecurityContextFromContext(ctx)
	if !ok {
		return ctx, nil
	}

	key := "rl:" + desc.Name + ":" + sc.ClientIP
	count, err := f.rdb.Incr(ctx, key).Result()
	if err != nil {
		f.log.Warn("rate limit counter unavailable", zap.String("key", key), zap.Error(err))
		return ctx, nil
	}
	if count == 1 {
		if err := f.rdb.Expire(ctx, key, desc.RateWindow).Err(); err != nil {
			f.log.Warn("rate limit expire failed", zap.String("key", key), zap.Error(err))
		}
	}
	if count > int64(desc.RateLimit) {
		return ctx, NewFailure(FailureRateLimited, "RATE_LIMITED", "too many requests")
	}
	return ctx, nil
}
