// Package ratelimit throttles repeated login failures per account.
package ratelimit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/watchdesk/console/config"
)

const (
	defaultMaxAttempts = 10
	defaultWindow      = 15 * time.Minute
)

// LoginLimiter counts failed login attempts per email in redis and blocks
// further attempts once the window budget is spent. A nil *LoginLimiter is
// valid and never blocks, so callers need no conditional wiring.
type LoginLimiter struct {
	client      *redis.Client
	maxAttempts int
	window      time.Duration
}

// NewLoginLimiter connects to redis and verifies the connection. Returns
// (nil, nil) when no redis address is configured.
func NewLoginLimiter(ctx context.Context, cfg config.RedisConfig) (*LoginLimiter, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ratelimit: redis unreachable: %w", err)
	}

	return &LoginLimiter{
		client:      client,
		maxAttempts: defaultMaxAttempts,
		window:      defaultWindow,
	}, nil
}

func (l *LoginLimiter) key(email string) string {
	return "login_attempts:" + strings.ToLower(strings.TrimSpace(email))
}

// Blocked reports whether the account has exhausted its attempt budget.
// Redis errors fail open: an unavailable limiter must not lock everyone out.
func (l *LoginLimiter) Blocked(ctx context.Context, email string) bool {
	if l == nil {
		return false
	}
	count, err := l.client.Get(ctx, l.key(email)).Int()
	if err != nil {
		return false
	}
	return count >= l.maxAttempts
}

// RecordFailure counts one failed attempt against the account.
func (l *LoginLimiter) RecordFailure(ctx context.Context, email string) {
	if l == nil {
		return
	}
	key := l.key(email)
	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return
	}
	_ = incr
}

// Reset clears the attempt counter after a successful login.
func (l *LoginLimiter) Reset(ctx context.Context, email string) {
	if l == nil {
		return
	}
	_ = l.client.Del(ctx, l.key(email)).Err()
}

// Close releases the redis connection.
func (l *LoginLimiter) Close() error {
	if l == nil {
		return nil
	}
	return l.client.Close()
}
