package api

import (
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/courtly/leaguecore/internal/api/auth"
	"github.com/courtly/leaguecore/internal/api/respond"
	"github.com/courtly/leaguecore/internal/domain"
)

// --------------------------------------------------------------------------
// Request timing middleware
// --------------------------------------------------------------------------

// TimingMiddleware adds X-Process-Time header to all responses.
func TimingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		elapsed := time.Since(start)
		w.Header().Set("X-Process-Time", fmt.Sprintf("%.2fms", float64(elapsed.Microseconds())/1000.0))
	})
}

// --------------------------------------------------------------------------
// Security headers for the public surface
// --------------------------------------------------------------------------

// PublicSecurityHeaders hardens the unauthenticated read endpoints.
func PublicSecurityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		next.ServeHTTP(w, r)
	})
}

// --------------------------------------------------------------------------
// Rate limiting middleware (keyed token buckets)
// --------------------------------------------------------------------------

type keyedLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rate     rate.Limit
	burst    int
}

func newKeyedLimiter(requestsPerWindow int, window time.Duration) *keyedLimiter {
	rps := float64(requestsPerWindow) / window.Seconds()
	burst := requestsPerWindow / 2
	if burst < 1 {
		burst = 1
	}
	return &keyedLimiter{
		limiters: make(map[string]*rate.Limiter),
		rate:     rate.Limit(rps),
		burst:    burst,
	}
}

func (l *keyedLimiter) getLimiter(key string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	if limiter, exists := l.limiters[key]; exists {
		return limiter
	}
	limiter := rate.NewLimiter(l.rate, l.burst)
	l.limiters[key] = limiter
	return limiter
}

func rateLimited(w http.ResponseWriter) {
	w.Header().Set("Retry-After", "60")
	respond.WriteError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests")
}

// TenantRateLimit limits general tenant traffic per (tenant, user).
// Admins bypass this bucket.
func TenantRateLimit(requestsPerWindow int, window time.Duration) func(http.Handler) http.Handler {
	limiter := newKeyedLimiter(requestsPerWindow, window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.PrincipalFrom(r.Context())
			if p == nil || p.HasRole(domain.RoleAdmin) {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.getLimiter(p.TenantID + ":" + p.UserID).Allow() {
				rateLimited(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// TenantOpRateLimit limits an expensive operation per tenant, regardless of
// which user triggers it. Used for generation and conflict-validation routes.
func TenantOpRateLimit(requestsPerWindow int, window time.Duration) func(http.Handler) http.Handler {
	limiter := newKeyedLimiter(requestsPerWindow, window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := auth.PrincipalFrom(r.Context())
			if p == nil {
				next.ServeHTTP(w, r)
				return
			}
			if !limiter.getLimiter(p.TenantID).Allow() {
				rateLimited(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// IPRateLimit limits by client IP. Used on the public surface.
func IPRateLimit(requestsPerWindow int, window time.Duration) func(http.Handler) http.Handler {
	limiter := newKeyedLimiter(requestsPerWindow, window)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip, _, _ := net.SplitHostPort(r.RemoteAddr)
			if ip == "" {
				ip = r.RemoteAddr
			}
			if !limiter.getLimiter(ip).Allow() {
				rateLimited(w)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
