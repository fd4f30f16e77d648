package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter() (*RateLimiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
	rl := NewRateLimiter()
	rl.now = clock.now
	return rl, clock
}

func TestRateLimiterTake(t *testing.T) {
	rl, _ := newTestLimiter()
	p := Policy{Name: "login", Limit: 5, Window: time.Minute}

	for i := 0; i < 5; i++ {
		d := rl.Take(p, "key")
		if !d.Allowed {
			t.Fatalf("request %d should be allowed", i+1)
		}
		if d.Remaining != 4-i {
			t.Errorf("request %d: remaining = %d, want %d", i+1, d.Remaining, 4-i)
		}
	}

	d := rl.Take(p, "key")
	if d.Allowed {
		t.Error("6th request should be denied")
	}
	if d.Remaining != 0 {
		t.Errorf("remaining = %d, want 0", d.Remaining)
	}
}

func TestRateLimiterWindowReset(t *testing.T) {
	rl, clock := newTestLimiter()
	p := Policy{Name: "login", Limit: 3, Window: 10 * time.Second}

	for i := 0; i < 3; i++ {
		rl.Take(p, "key")
	}
	if rl.Take(p, "key").Allowed {
		t.Error("should be blocked within window")
	}

	clock.advance(10 * time.Second)

	if !rl.Take(p, "key").Allowed {
		t.Error("should be allowed after window expires")
	}
}

func TestRateLimiterPoliciesAreIndependent(t *testing.T) {
	rl, _ := newTestLimiter()
	login := Policy{Name: "login", Limit: 1, Window: time.Minute}
	register := Policy{Name: "register", Limit: 1, Window: time.Minute}

	rl.Take(login, "1.2.3.4")
	if rl.Take(login, "1.2.3.4").Allowed {
		t.Error("second login should be denied")
	}
	if !rl.Take(register, "1.2.3.4").Allowed {
		t.Error("register budget should not be shared with login")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl, clock := newTestLimiter()

	rl.Take(Policy{Name: "short", Limit: 5, Window: time.Second}, "expired")
	rl.Take(Policy{Name: "long", Limit: 5, Window: time.Hour}, "active")
	clock.advance(time.Minute)

	if n := rl.Cleanup(); n != 1 {
		t.Errorf("Cleanup removed %d buckets, want 1", n)
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.buckets["short|expired"]; ok {
		t.Error("expired bucket should have been cleaned up")
	}
	if _, ok := rl.buckets["long|active"]; !ok {
		t.Error("active bucket should still exist")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	rl, clock := newTestLimiter()
	p := Policy{Name: "test", Limit: 2, Window: 30 * time.Second}
	handler := RateLimit(rl, p, RealIP)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(remote string) *httptest.ResponseRecorder {
		req := httptest.NewRequest("POST", "/", nil)
		req.RemoteAddr = remote
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	for i := 0; i < 2; i++ {
		rec := send("10.0.0.1:5555")
		if rec.Code != http.StatusOK {
			t.Errorf("request %d: status = %d, want %d", i+1, rec.Code, http.StatusOK)
		}
		if got := rec.Header().Get("X-RateLimit-Limit"); got != "2" {
			t.Errorf("X-RateLimit-Limit = %q, want 2", got)
		}
	}

	clock.advance(10 * time.Second)
	rec := send("10.0.0.1:5555")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("3rd request: status = %d, want %d", rec.Code, http.StatusTooManyRequests)
	}
	if got := rec.Header().Get("Retry-After"); got != "20" {
		t.Errorf("Retry-After = %q, want 20", got)
	}
	if got := rec.Header().Get("X-RateLimit-Remaining"); got != "0" {
		t.Errorf("X-RateLimit-Remaining = %q, want 0", got)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q, want application/json", ct)
	}

	// A different client is unaffected.
	if rec := send("10.0.0.2:5555"); rec.Code != http.StatusOK {
		t.Errorf("other client: status = %d, want 200", rec.Code)
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		remote  string
		want    string
	}{
		{"cloudflare", map[string]string{"CF-Connecting-IP": "1.1.1.1", "X-Forwarded-For": "2.2.2.2"}, "3.3.3.3:1", "1.1.1.1"},
		{"forwarded chain", map[string]string{"X-Forwarded-For": "2.2.2.2, 9.9.9.9"}, "3.3.3.3:1", "2.2.2.2"},
		{"remote addr", nil, "3.3.3.3:1", "3.3.3.3"},
		{"remote without port", nil, "3.3.3.3", "3.3.3.3"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tt.remote
			for k, v := range tt.headers {
				req.Header.Set(k, v)
			}
			if got := RealIP(req); got != tt.want {
				t.Errorf("RealIP = %q, want %q", got, tt.want)
			}
		})
	}
}
