package http

import (
	"strconv"
	"sync"
	"time"
)

// rateLimiter caps POST traffic per client IP with a fixed window counter.
// The window opens on the first request and closes once the limit is spent;
// it reopens only after the full window has elapsed.
type rateLimiter struct {
	mu     sync.Mutex
	limit  int
	window time.Duration
	counts map[string]*windowCount

	done chan struct{}
	once sync.Once
}

type windowCount struct {
	openedAt time.Time
	n        int
}

func newRateLimiter(limit int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		limit:  limit,
		window: window,
		counts: make(map[string]*windowCount),
		done:   make(chan struct{}),
	}
	go rl.janitor()
	return rl
}

// allow counts a request against the client's current window.
func (rl *rateLimiter) allow(clientIP string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	wc, ok := rl.counts[clientIP]
	if !ok || now.Sub(wc.openedAt) >= rl.window {
		wc = &windowCount{openedAt: now}
		rl.counts[clientIP] = wc
	}

	wc.n++
	return wc.n <= rl.limit
}

// retryAfterSeconds is the Retry-After hint sent to throttled clients.
func (rl *rateLimiter) retryAfterSeconds() string {
	return strconv.Itoa(int(rl.window.Seconds()))
}

// janitor drops windows that have sat idle for two full periods.
func (rl *rateLimiter) janitor() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.sweep(time.Now())
		}
	}
}

func (rl *rateLimiter) sweep(now time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for ip, wc := range rl.counts {
		if now.Sub(wc.openedAt) >= 2*rl.window {
			delete(rl.counts, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.once.Do(func() { close(rl.done) })
}
