package api

import (
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// limiterIdleTTL is how long an idle per-IP limiter is kept before cleanup.
const limiterIdleTTL = 1 * time.Hour

// rateLimiterEntry holds a rate limiter with last seen time
type rateLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// rateLimitMiddleware provides rate limiting per IP
func (a *API) rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !a.limiterFor(getRealIP(r)).Allow() {
			http.Error(w, "Too many requests", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (a *API) limiterFor(ip string) *rate.Limiter {
	a.rateLimitersMu.Lock()
	defer a.rateLimitersMu.Unlock()

	entry, exists := a.rateLimiters[ip]
	if !exists {
		entry = &rateLimiterEntry{
			limiter: rate.NewLimiter(rate.Limit(a.config.API.RateLimit.RequestsPerSecond), a.config.API.RateLimit.Burst),
		}
		a.rateLimiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter
}

// cleanupRateLimiters periodically removes inactive rate limiters to prevent memory leaks
func (a *API) cleanupRateLimiters() {
	ticker := time.NewTicker(limiterIdleTTL)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			a.evictIdleLimiters(time.Now())
		case <-a.stopCh:
			return
		}
	}
}

func (a *API) evictIdleLimiters(now time.Time) {
	a.rateLimitersMu.Lock()
	defer a.rateLimitersMu.Unlock()
	for ip, entry := range a.rateLimiters {
		if now.Sub(entry.lastSeen) > limiterIdleTTL {
			delete(a.rateLimiters, ip)
		}
	}
}

// getRealIP returns the direct peer address. Forwarded headers are not trusted.
func getRealIP(r *http.Request) string {
	ip, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return ip
}
