package common

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP returns the first forwarded hop, then X-Real-IP, then the remote host.
func ClientIP(r *http.Request) string {
	if r == nil {
		return ""
	}
	if fwd := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); ip != "" {
		return ip
	}
	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil {
		return host
	}
	return strings.TrimSpace(r.RemoteAddr)
}

// RateLimitKey scopes a rate limit bucket to the route and client address.
func RateLimitKey(scope string) func(*http.Request) string {
	return func(r *http.Request) string {
		return scope + ":" + ClientIP(r)
	}
}
