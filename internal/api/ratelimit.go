package api

import (
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/popcornapp/popcorn-server/internal/ratelimit"
)

// RateLimiter wraps KeyedRateLimiter for API use.
type RateLimiter = ratelimit.KeyedRateLimiter

// NewRateLimiter creates a limiter allowing ratePerInterval requests per interval with the given burst.
func NewRateLimiter(ratePerInterval int, interval time.Duration, burst int) *RateLimiter {
	return ratelimit.PerInterval(ratePerInterval, interval, burst)
}

// checkAuthRate rejects the request with 429 when ip has used up its auth budget.
func (s *Server) checkAuthRate(ip string) error {
	if s.authRateLimiter == nil || s.authRateLimiter.Allow(ip) {
		return nil
	}
	s.logger.Warn("Rate limit exceeded", "ip", ip)
	return huma.Error429TooManyRequests("Too many requests. Please try again later.")
}

// extractIP picks the client address from proxy headers, falling back to the connection address.
func extractIP(xForwardedFor, xRealIP, remoteAddr string) string {
	if xForwardedFor != "" {
		// First entry is the client.
		client, _, _ := strings.Cut(xForwardedFor, ",")
		return strings.TrimSpace(client)
	}
	if xRealIP != "" {
		return xRealIP
	}
	if i := strings.LastIndexByte(remoteAddr, ':'); i >= 0 {
		return remoteAddr[:i]
	}
	return remoteAddr
}
