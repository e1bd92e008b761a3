package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// ErrInvalidRate is returned for rate strings that are not in the "<limit>-<period>" form.
var ErrInvalidRate = errors.New("invalid rate")

const defaultPrefix = "checkout:ratelimit"

// Decision is the outcome of one rate limit check.
type Decision struct {
	Allowed   bool
	Limit     int64
	Remaining int64
	Reset     time.Time
}

// Limiter counts requests per key against a fixed rate.
type Limiter struct {
	inner *limiter.Limiter
}

// New builds a limiter from a formatted rate such as "120-M" or "5-S".
func New(formatted string, store limiter.Store) (*Limiter, error) {
	rate, err := limiter.NewRateFromFormatted(strings.TrimSpace(formatted))
	if err != nil {
		return nil, fmt.Errorf("%q: %v: %w", formatted, err, ErrInvalidRate)
	}
	return NewWithRate(rate, store), nil
}

// NewWithRate builds a limiter from an explicit rate.
func NewWithRate(rate limiter.Rate, store limiter.Store) *Limiter {
	if store == nil {
		store = NewMemoryStore("")
	}
	return &Limiter{inner: limiter.New(store, rate)}
}

// NewMemoryStore returns a process-local store.
func NewMemoryStore(prefix string) limiter.Store {
	return memory.NewStoreWithOptions(limiter.StoreOptions{
		Prefix:          prefixOrDefault(prefix),
		CleanUpInterval: limiter.DefaultCleanUpInterval,
	})
}

// NewRedisStore returns a store shared by every instance using rdb.
func NewRedisStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	if rdb == nil {
		return nil, errors.New("redis client required")
	}
	return limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{
		Prefix:   prefixOrDefault(prefix),
		MaxRetry: 3,
	})
}

// Allow counts one request for key.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	lctx, err := l.inner.Get(ctx, key)
	if err != nil {
		return Decision{}, err
	}
	return Decision{
		Allowed:   !lctx.Reached,
		Limit:     lctx.Limit,
		Remaining: lctx.Remaining,
		Reset:     time.Unix(lctx.Reset, 0),
	}, nil
}

func prefixOrDefault(prefix string) string {
	if strings.TrimSpace(prefix) == "" {
		return defaultPrefix
	}
	return prefix
}
