package ratelimit

import (
	"net/http"
	"strconv"
	"time"

	"github.com/noah-isme/toko-checkout/internal/common"
)

// Config describes how to derive a rate limit key.
type Config struct {
	Key func(*http.Request) string
}

// Handler enforces rate limits before delegating to the next handler.
type Handler struct {
	Limiter Allower
	Config  Config
	OnError func(error)
}

// Middleware implements the http.Handler middleware interface. Limiter
// failures let the request through.
func (h Handler) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Limiter == nil || h.Config.Key == nil {
			next.ServeHTTP(w, r)
			return
		}
		decision, err := h.Limiter.Allow(r.Context(), h.Config.Key(r))
		if err != nil {
			if h.OnError != nil {
				h.OnError(err)
			}
			next.ServeHTTP(w, r)
			return
		}

		headers := w.Header()
		headers.Set("X-RateLimit-Limit", strconv.FormatInt(decision.Limit, 10))
		headers.Set("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		headers.Set("X-RateLimit-Reset", strconv.FormatInt(decision.Reset.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(time.Until(decision.Reset).Seconds())
			if retryAfter < 0 {
				retryAfter = 0
			}
			headers.Set("Retry-After", strconv.Itoa(retryAfter))
			common.JSONError(w, http.StatusTooManyRequests, common.CodeRateLimited, "rate limit exceeded", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}
