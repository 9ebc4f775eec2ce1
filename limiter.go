package blogs

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LoginLimiter rate-limits login attempts per IP address with one token
// bucket per key. A bucket holds max tokens and refills one every
// window/max.
type LoginLimiter struct {
	mu       sync.Mutex
	limiters map[string]*limiterEntry
	limit    rate.Limit
	burst    int
	idle     time.Duration

	done     chan struct{}
	stopOnce sync.Once
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLoginLimiter creates a LoginLimiter that allows max attempts per window.
func NewLoginLimiter(max int, window time.Duration) *LoginLimiter {
	if max < 1 {
		max = 1
	}
	l := &LoginLimiter{
		limiters: make(map[string]*limiterEntry),
		limit:    rate.Every(window / time.Duration(max)),
		burst:    max,
		idle:     window,
		done:     make(chan struct{}),
	}
	go l.cleanup()
	return l
}

func (l *LoginLimiter) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.limiters[ip]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = e
	}
	e.lastSeen = time.Now()
	return e.limiter
}

// cleanup drops buckets idle for longer than a full refill.
func (l *LoginLimiter) cleanup() {
	ticker := time.NewTicker(l.idle)
	defer ticker.Stop()
	for {
		select {
		case <-l.done:
			return
		case now := <-ticker.C:
			l.mu.Lock()
			for ip, e := range l.limiters {
				if now.Sub(e.lastSeen) > l.idle {
					delete(l.limiters, ip)
				}
			}
			l.mu.Unlock()
		}
	}
}

// Allow checks if the IP has not exceeded the rate limit and records the attempt.
func (l *LoginLimiter) Allow(ip string) bool {
	return l.get(ip).Allow()
}

// Check reports whether the IP has an attempt left without consuming it.
// Call Record on failure.
func (l *LoginLimiter) Check(ip string) bool {
	return l.get(ip).Tokens() >= 1
}

// Record consumes one attempt for the IP.
func (l *LoginLimiter) Record(ip string) {
	l.get(ip).Allow()
}

// Stop shuts down the cleanup goroutine.
func (l *LoginLimiter) Stop() {
	l.stopOnce.Do(func() {
		close(l.done)
	})
}
