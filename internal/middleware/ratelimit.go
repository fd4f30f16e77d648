package middleware

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// RealIP extracts the client's real IP address, preferring Cloudflare's
// CF-Connecting-IP header, then X-Forwarded-For, and falling back to RemoteAddr.
func RealIP(r *http.Request) string {
	if ip := r.Header.Get("CF-Connecting-IP"); ip != "" {
		return ip
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		// First IP in the chain is the original client
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Policy is a named fixed-window budget. Buckets are kept per policy, so
// the same client has independent budgets for login and registration.
type Policy struct {
	Name   string
	Limit  int
	Window time.Duration
}

// Decision is the outcome of one Take call.
type Decision struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type bucket struct {
	used    int
	resetAt time.Time
}

// RateLimiter counts requests per (policy, key) in memory. Call Cleanup
// periodically to drop expired buckets.
type RateLimiter struct {
	mu      sync.Mutex
	buckets map[string]*bucket
	now     func() time.Time
}

func NewRateLimiter() *RateLimiter {
	return &RateLimiter{
		buckets: make(map[string]*bucket),
		now:     time.Now,
	}
}

// Take consumes one request from key's bucket under p.
func (rl *RateLimiter) Take(p Policy, key string) Decision {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	id := p.Name + "|" + key
	b, ok := rl.buckets[id]
	if !ok || !now.Before(b.resetAt) {
		b = &bucket{resetAt: now.Add(p.Window)}
		rl.buckets[id] = b
	}
	b.used++
	return Decision{
		Allowed:   b.used <= p.Limit,
		Remaining: max(p.Limit-b.used, 0),
		ResetAt:   b.resetAt,
	}
}

// Cleanup removes expired buckets and reports how many were dropped.
func (rl *RateLimiter) Cleanup() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	n := 0
	for id, b := range rl.buckets {
		if !now.Before(b.resetAt) {
			delete(rl.buckets, id)
			n++
		}
	}
	return n
}

// RateLimit returns middleware enforcing p per keyFunc(r). Every response
// carries X-RateLimit-Limit and X-RateLimit-Remaining; rejected requests
// get 429 with Retry-After in whole seconds.
func RateLimit(limiter *RateLimiter, p Policy, keyFunc func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			d := limiter.Take(p, keyFunc(r))
			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(p.Limit))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
			if !d.Allowed {
				wait := math.Ceil(d.ResetAt.Sub(limiter.now()).Seconds())
				w.Header().Set("Retry-After", strconv.Itoa(max(int(wait), 1)))
				writeError(w, http.StatusTooManyRequests, "too many requests, try again later")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
