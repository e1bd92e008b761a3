package ratelimit

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/noah-isme/toko-checkout/internal/obs"
)

// Allower decides whether one more request for key is permitted.
type Allower interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// Fallback serves decisions from Primary and switches to Secondary while
// Primary keeps failing.
type Fallback struct {
	Primary   Allower
	Secondary Allower
	breaker   *breaker
	logger    zerolog.Logger
}

// NewFallback opens the breaker on Primary after threshold consecutive errors
// and retries it after openFor.
func NewFallback(primary, secondary Allower, threshold int, openFor time.Duration, logger zerolog.Logger) *Fallback {
	return &Fallback{
		Primary:   primary,
		Secondary: secondary,
		breaker:   newBreaker(threshold, openFor, logger),
		logger:    logger,
	}
}

// Allow implements Allower.
func (f *Fallback) Allow(ctx context.Context, key string) (Decision, error) {
	if f.breaker.allow() {
		d, err := f.Primary.Allow(ctx, key)
		f.breaker.report(err == nil)
		if err == nil {
			return d, nil
		}
		f.logger.Warn().Err(err).Msg("primary rate limiter failed")
	}
	if obs.RateLimitFallbackTotal != nil {
		obs.RateLimitFallbackTotal.Inc()
	}
	return f.Secondary.Allow(ctx, key)
}
