package http

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func newTestLimiter(limit int) *writeLimiter {
	wl := newWriteLimiter(limit, time.Minute)
	wl.stop()
	return wl
}

func TestWriteLimiterEnforcesLimit(t *testing.T) {
	wl := newTestLimiter(3)
	var metrics securityMetrics

	for i := 0; i < 3; i++ {
		if !wl.allow("198.51.100.7", &metrics) {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if wl.allow("198.51.100.7", &metrics) {
		t.Error("request over the limit should be rejected")
	}
	if got := atomic.LoadInt64(&metrics.rateLimitHits); got != 1 {
		t.Errorf("rateLimitHits = %d, want 1", got)
	}
}

func TestWriteLimiterTracksClientsSeparately(t *testing.T) {
	wl := newTestLimiter(1)

	if !wl.allow("198.51.100.7", nil) {
		t.Fatal("first client's first request should be allowed")
	}
	if !wl.allow("198.51.100.8", nil) {
		t.Error("second client must get its own window")
	}
	if wl.allow("198.51.100.7", nil) {
		t.Error("first client's second request should be rejected")
	}
}

func TestWriteLimiterWindowExpiry(t *testing.T) {
	wl := newTestLimiter(1)

	if !wl.allow("198.51.100.7", nil) {
		t.Fatal("first request should be allowed")
	}
	if wl.allow("198.51.100.7", nil) {
		t.Fatal("second request in the same window should be rejected")
	}

	// Age the window past its duration; the next write starts a fresh one
	wl.mu.Lock()
	wl.windows["198.51.100.7"].startedAt = time.Now().Add(-2 * time.Minute)
	wl.mu.Unlock()

	if !wl.allow("198.51.100.7", nil) {
		t.Error("request after window expiry should be allowed")
	}
}

func TestWriteLimiterConcurrentClients(t *testing.T) {
	wl := newTestLimiter(writeLimit)
	done := make(chan struct{})

	for i := 0; i < 4; i++ {
		go func(i int) {
			defer func() { done <- struct{}{} }()
			ip := fmt.Sprintf("203.0.113.%d", i)
			for j := 0; j < writeLimit; j++ {
				if !wl.allow(ip, nil) {
					t.Errorf("client %s rejected within its limit", ip)
					return
				}
			}
		}(i)
	}
	for i := 0; i < 4; i++ {
		<-done
	}
}
