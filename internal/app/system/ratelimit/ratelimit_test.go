package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestLimiter_AllowBurstThenBlock(t *testing.T) {
	l := New(3, time.Minute)
	for i := 0; i < 3; i++ {
		if !l.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if l.Allow("1.2.3.4") {
		t.Error("4th request should be blocked")
	}
	if !l.Allow("5.6.7.8") {
		t.Error("other keys have their own bucket")
	}
}

func TestLimiter_Refill(t *testing.T) {
	clock := time.Now()
	l := New(2, time.Minute)
	l.now = func() time.Time { return clock }

	l.Allow("k")
	l.Allow("k")
	if l.Allow("k") {
		t.Fatal("bucket should be empty")
	}

	clock = clock.Add(30 * time.Second) // one token per 30s
	if !l.Allow("k") {
		t.Error("expected a token after refill")
	}
}

func TestLimiter_ResetAndSweep(t *testing.T) {
	clock := time.Now()
	l := New(1, time.Minute)
	l.now = func() time.Time { return clock }

	l.Allow("a")
	l.Reset("a")
	if !l.Allow("a") {
		t.Error("Reset should restore the bucket")
	}

	clock = clock.Add(5 * time.Minute)
	l.Allow("b")
	if l.Len() != 1 {
		t.Errorf("idle bucket should be swept, have %d keys", l.Len())
	}
}

func TestMiddleware(t *testing.T) {
	l := New(1, time.Minute)
	rejected := 0
	h := l.Middleware(func(*http.Request) { rejected++ })(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))

	do := func() int {
		req := httptest.NewRequest("POST", "/api/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec.Code
	}

	if got := do(); got != http.StatusNoContent {
		t.Fatalf("first request = %d", got)
	}
	if got := do(); got != http.StatusTooManyRequests {
		t.Fatalf("second request = %d, want 429", got)
	}
	if rejected != 1 {
		t.Errorf("onReject called %d times", rejected)
	}
}

func TestClientIP(t *testing.T) {
	tests := []struct {
		name   string
		xff    string
		xri    string
		remote string
		want   string
	}{
		{"forwarded list", "203.0.113.5, 10.0.0.1", "", "10.0.0.2:80", "203.0.113.5"},
		{"real ip", "", " 198.51.100.7 ", "10.0.0.2:80", "198.51.100.7"},
		{"remote with port", "", "", "192.0.2.1:1234", "192.0.2.1"},
		{"remote without port", "", "", "192.0.2.1", "192.0.2.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = tt.remote
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.xri != "" {
				r.Header.Set("X-Real-IP", tt.xri)
			}
			if got := ClientIP(r); got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}
