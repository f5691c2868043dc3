package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/SamiracleWhip/sami-o-api-dashboard-sub000/internal/config"
)

const keySummarizerBucket = "summarize:key:%s"

// KeyLimiter throttles summarizer traffic per API key ahead of the
// durable usage quota. When disabled it admits everything; the quota in
// the database remains the hard ceiling either way.
type KeyLimiter struct {
	enabled bool

	bucket *TokenBucket
	rate   float64
	burst  int
}

func NewKeyLimiter(cfg config.Config) (*KeyLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limit redis addr is required")
	}
	if limitCfg.KeyRate <= 0 || limitCfg.KeyBurst <= 0 {
		return nil, errors.New("key rate limit must be positive")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: strings.TrimSpace(limitCfg.RedisPassword),
		DB:       limitCfg.RedisDB,
	})

	return &KeyLimiter{
		enabled: true,
		bucket:  NewTokenBucket(client),
		rate:    limitCfg.KeyRate,
		burst:   limitCfg.KeyBurst,
	}, nil
}

func (l *KeyLimiter) Enabled() bool {
	return l != nil && l.enabled
}

func (l *KeyLimiter) Allow(ctx context.Context, keyID string) (*Result, error) {
	if !l.Enabled() {
		return &Result{Allowed: true}, nil
	}
	return l.bucket.Allow(ctx, fmt.Sprintf(keySummarizerBucket, strings.TrimSpace(keyID)), l.rate, l.burst)
}
