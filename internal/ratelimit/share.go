package ratelimit

import (
	"context"
	"fmt"
	"strings"

	"github.com/Cymoe/bill/internal/config"
	redis "github.com/redis/go-redis/v9"
)

const keyShareView = "share:view:ip:%s"

// ShareLimiter throttles share-link reads per client IP. A nil or
// unconfigured limiter allows everything, so the server runs without redis
// in development.
type ShareLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewShareLimiter(cfg config.Config) *ShareLimiter {
	addr := strings.TrimSpace(cfg.RedisAddr)
	if addr == "" || cfg.ShareRateLimit <= 0 || cfg.ShareRateLimitBurst <= 0 {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(cfg.RedisPassword),
	})

	return &ShareLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    cfg.ShareRateLimit,
		burst:   cfg.ShareRateLimitBurst,
	}
}

func (l *ShareLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *ShareLimiter) Allow(ctx context.Context, clientIP string) (bool, error) {
	if !l.Enabled() {
		return true, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keyShareView, strings.TrimSpace(clientIP)), l.rate, l.burst)
}
