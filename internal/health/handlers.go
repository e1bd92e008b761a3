package health

import (
	"context"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/noah-isme/toko-checkout/internal/common"
)

var ready atomic.Bool

func init() { ready.Store(true) }

// SetReady toggles readiness, e.g. false while the server drains on shutdown.
func SetReady(v bool) { ready.Store(v) }

// Checker represents dependencies that can be checked for readiness.
type Checker interface {
	CheckCatalog(ctx context.Context, timeout time.Duration) error
	CheckRateLimiter(ctx context.Context, timeout time.Duration) error
}

// Handler exposes HTTP handlers for health endpoints.
type Handler struct {
	Checker          Checker
	CatalogTimeout   time.Duration
	RateLimitTimeout time.Duration
}

// Live reports liveness status.
func (h Handler) Live(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Ready reports readiness based on dependency checks.
func (h Handler) Ready(w http.ResponseWriter, r *http.Request) {
	if !ready.Load() {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "shutting down"})
		return
	}
	if h.Checker == nil {
		common.JSON(w, http.StatusServiceUnavailable, map[string]string{"status": "dependencies unavailable"})
		return
	}
	ctx := r.Context()
	status := map[string]string{
		"catalog":   runCheck(ctx, h.Checker.CheckCatalog, timeoutOr(h.CatalogTimeout, 200*time.Millisecond)),
		"ratelimit": runCheck(ctx, h.Checker.CheckRateLimiter, timeoutOr(h.RateLimitTimeout, 300*time.Millisecond)),
	}
	code := http.StatusOK
	for _, v := range status {
		if v != "ok" {
			code = http.StatusServiceUnavailable
		}
	}
	common.JSON(w, code, status)
}

func runCheck(ctx context.Context, check func(context.Context, time.Duration) error, timeout time.Duration) string {
	if err := check(ctx, timeout); err != nil {
		return err.Error()
	}
	return "ok"
}

func timeoutOr(d, fallback time.Duration) time.Duration {
	if d <= 0 {
		return fallback
	}
	return d
}
