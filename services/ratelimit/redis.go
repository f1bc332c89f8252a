package ratelimitsvc

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shikshahq/shiksha/core"
)

// Limiter throttles brute-forceable endpoints with a fixed window counter in
// redis. A zero Limiter (no redis configured) never throttles.
type Limiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(conf *core.Config) *Limiter {
	if conf.Redis.Addr == "" {
		return &Limiter{}
	}
	return &Limiter{
		client: redis.NewClient(&redis.Options{
			Addr:     conf.Redis.Addr,
			Password: conf.Redis.Password,
		}),
		limit:  int64(conf.RateLimit.LoginAttempts),
		window: conf.RateLimit.Window,
	}
}

// Allow reports whether key may proceed within the current window.
// Fails open: a throttling outage must not lock everyone out.
func (l *Limiter) Allow(ctx context.Context, key string) bool {
	if l == nil || l.client == nil {
		return true
	}

	rkey := "ratelimit:" + key
	pipe := l.client.Pipeline()
	incr := pipe.Incr(ctx, rkey)
	pipe.Expire(ctx, rkey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return true
	}
	return incr.Val() <= l.limit
}

func (l *Limiter) Close() error {
	if l.client == nil {
		return nil
	}
	return l.client.Close()
}
