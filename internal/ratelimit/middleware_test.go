package ratelimit

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/stretchr/testify/require"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestHandlerMiddlewareEnforcesLimit(t *testing.T) {
	handler := Handler{
		Limiter: NewWithRate(limiter.Rate{Period: time.Minute, Limit: 1}, NewMemoryStore("")),
		Config:  Config{Key: func(*http.Request) string { return "static" }},
	}
	counted := handler.Middleware(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	rr1 := httptest.NewRecorder()
	counted.ServeHTTP(rr1, req.Clone(req.Context()))
	require.Equal(t, http.StatusOK, rr1.Code)
	require.Equal(t, "0", rr1.Header().Get("X-RateLimit-Remaining"))

	rr2 := httptest.NewRecorder()
	counted.ServeHTTP(rr2, req.Clone(req.Context()))
	require.Equal(t, http.StatusTooManyRequests, rr2.Code)
	require.Equal(t, "1", rr2.Header().Get("X-RateLimit-Limit"))
	require.NotEmpty(t, rr2.Header().Get("Retry-After"))
	require.Contains(t, rr2.Body.String(), "RATE_LIMITED")
}

func TestHandlerMiddlewareSeparatesKeys(t *testing.T) {
	handler := Handler{
		Limiter: NewWithRate(limiter.Rate{Period: time.Minute, Limit: 1}, nil),
		Config:  Config{Key: func(r *http.Request) string { return r.Header.Get("X-Client") }},
	}
	counted := handler.Middleware(okHandler())
	for _, client := range []string{"a", "b"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("X-Client", client)
		rr := httptest.NewRecorder()
		counted.ServeHTTP(rr, req)
		require.Equal(t, http.StatusOK, rr.Code, client)
	}
}

func TestRedisStoreSharesCounts(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	store, err := NewRedisStore(client, "test:ratelimit")
	require.NoError(t, err)
	lim, err := New("2-M", store)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		d, err := lim.Allow(t.Context(), "k")
		require.NoError(t, err)
		require.True(t, d.Allowed)
	}
	d, err := lim.Allow(t.Context(), "k")
	require.NoError(t, err)
	require.False(t, d.Allowed)
	require.EqualValues(t, 2, d.Limit)
}

func TestHandlerMiddlewareOnError(t *testing.T) {
	storeErr := errors.New("store unavailable")
	var got error
	handler := Handler{
		Limiter: &stubAllower{err: storeErr},
		Config:  Config{Key: func(*http.Request) string { return "err" }},
		OnError: func(err error) { got = err },
	}

	rr := httptest.NewRecorder()
	handler.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.ErrorIs(t, got, storeErr)
	require.Empty(t, rr.Header().Get("X-RateLimit-Limit"))
}

func TestHandlerMiddlewarePassesThroughWhenRedisGoesAway(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	store, err := NewRedisStore(client, "")
	require.NoError(t, err)
	mr.Close()

	called := false
	handler := Handler{
		Limiter: NewWithRate(limiter.Rate{Period: time.Second, Limit: 1}, store),
		Config:  Config{Key: func(*http.Request) string { return "err" }},
		OnError: func(error) { called = true },
	}

	rr := httptest.NewRecorder()
	handler.Middleware(okHandler()).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/test", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.True(t, called)
}

func TestNewRejectsMalformedRate(t *testing.T) {
	_, err := New("fast", nil)
	require.ErrorIs(t, err, ErrInvalidRate)
}
