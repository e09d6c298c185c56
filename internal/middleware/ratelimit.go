// ratelimit.go implements a per-IP token bucket limiter for the log-in and
// sign-up submissions, so the upstream API is not used as a password oracle
// through this frontend.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// visitorIdle is how long an IP's bucket survives without requests.
const visitorIdle = 10 * time.Minute

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// ipLimiter hands out one token bucket per client IP.
type ipLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	rps     rate.Limit
	burst   int
}

func newIPLimiter(rps float64, burst int) *ipLimiter {
	return &ipLimiter{
		entries: make(map[string]*limiterEntry),
		rps:     rate.Limit(rps),
		burst:   burst,
	}
}

func (l *ipLimiter) get(ip string, now time.Time) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.entries[ip]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.entries[ip] = entry
	}
	entry.lastSeen = now
	return entry.limiter
}

func (l *ipLimiter) sweep(now time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for ip, entry := range l.entries {
		if now.Sub(entry.lastSeen) > visitorIdle {
			delete(l.entries, ip)
		}
	}
}

// RateLimit returns middleware that allows each client IP rps requests per
// second with bursts of up to burst. Returns 429 when exceeded.
func RateLimit(rps float64, burst int) echo.MiddlewareFunc {
	limiter := newIPLimiter(rps, burst)

	// Background cleanup of idle buckets.
	go func() {
		for {
			time.Sleep(time.Minute)
			limiter.sweep(time.Now())
		}
	}()

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.get(c.RealIP(), time.Now()).Allow() {
				return echo.NewHTTPError(http.StatusTooManyRequests,
					"You're making too many requests. Please slow down.")
			}
			return next(c)
		}
	}
}
