package http

import (
	"sync"
	"sync/atomic"
	"time"
)

// Mutating requests (POST, DELETE) allowed per client per window. Reads
// are never throttled; the dashboard polls reports far more often than
// anyone records transactions or moves goal money.
const (
	writeLimit  = 60
	writeWindow = time.Minute
)

// writeLimiter throttles mutating requests per client IP over a fixed
// counting window that starts at the client's first write.
type writeLimiter struct {
	limit  int
	window time.Duration

	mu      sync.Mutex
	windows map[string]*writeWindowState

	sweepStop chan struct{}
	stopOnce  sync.Once
}

type writeWindowState struct {
	startedAt time.Time
	count     int
}

func newWriteLimiter(limit int, window time.Duration) *writeLimiter {
	wl := &writeLimiter{
		limit:     limit,
		window:    window,
		windows:   make(map[string]*writeWindowState),
		sweepStop: make(chan struct{}),
	}
	go wl.sweep()
	return wl
}

// allow counts one mutating request for the client and reports whether it
// stays within the window limit.
func (wl *writeLimiter) allow(clientIP string, metrics *securityMetrics) bool {
	now := time.Now()

	wl.mu.Lock()
	defer wl.mu.Unlock()

	win, ok := wl.windows[clientIP]
	if !ok || now.Sub(win.startedAt) >= wl.window {
		wl.windows[clientIP] = &writeWindowState{startedAt: now, count: 1}
		return true
	}

	win.count++
	if win.count > wl.limit {
		if metrics != nil {
			atomic.AddInt64(&metrics.rateLimitHits, 1)
		}
		return false
	}
	return true
}

// sweep periodically drops windows that expired several periods ago, so
// one-off clients do not accumulate in the map forever.
func (wl *writeLimiter) sweep() {
	ticker := time.NewTicker(5 * wl.window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cutoff := time.Now().Add(-2 * wl.window)
			wl.mu.Lock()
			for ip, win := range wl.windows {
				if win.startedAt.Before(cutoff) {
					delete(wl.windows, ip)
				}
			}
			wl.mu.Unlock()
		case <-wl.sweepStop:
			return
		}
	}
}

// stop shuts down the sweep goroutine. Safe to call more than once.
func (wl *writeLimiter) stop() {
	wl.stopOnce.Do(func() {
		close(wl.sweepStop)
	})
}
