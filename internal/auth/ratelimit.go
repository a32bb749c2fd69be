package auth

import (
	"context"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/ScholarChen20/travel-agent/internal/cache"
	"github.com/ScholarChen20/travel-agent/internal/errs"
)

// LoginLimiter is a fixed-window counter of failed logins per username.
// Only failed credential checks move the counter; a successful login clears
// it. The gate is consulted before any password verification runs.
type LoginLimiter struct {
	store  cache.Store
	max    int
	window time.Duration
	log    *zap.Logger
}

// NewLoginLimiter returns a limiter that locks a username out after max
// failures inside window.
func NewLoginLimiter(store cache.Store, max int, window time.Duration, log *zap.Logger) *LoginLimiter {
	return &LoginLimiter{store: store, max: max, window: window, log: log}
}

// Allow returns errs.ErrRateLimited when the username has reached the
// failure cap. A cache-server failure fails open: login availability is
// worth more than the limiter's precision.
func (l *LoginLimiter) Allow(ctx context.Context, username string) error {
	raw, ok, err := l.store.Get(ctx, cache.LoginRateKey(username))
	if err != nil {
		l.log.Warn("rate-limit check unavailable", zap.String("username", username), zap.Error(err))
		return nil
	}
	if !ok {
		return nil
	}
	attempts, err := strconv.Atoi(raw)
	if err != nil {
		return nil
	}
	if attempts >= l.max {
		return errs.ErrRateLimited
	}
	return nil
}

// Failure records a failed credential check and refreshes the window TTL.
func (l *LoginLimiter) Failure(ctx context.Context, username string) {
	key := cache.LoginRateKey(username)
	if _, err := l.store.Incr(ctx, key); err != nil {
		l.log.Warn("rate-limit increment failed", zap.String("username", username), zap.Error(err))
		return
	}
	if err := l.store.Expire(ctx, key, l.window); err != nil {
		l.log.Warn("rate-limit expire failed", zap.String("username", username), zap.Error(err))
	}
}

// Success clears the failure counter.
func (l *LoginLimiter) Success(ctx context.Context, username string) {
	if _, err := l.store.Delete(ctx, cache.LoginRateKey(username)); err != nil {
		l.log.Warn("rate-limit reset failed", zap.String("username", username), zap.Error(err))
	}
}
