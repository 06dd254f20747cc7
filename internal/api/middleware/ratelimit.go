package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/budgemon/budgemon/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"
)

// idleClientTTL is how long an unused client limiter is kept.
const idleClientTTL = 3 * time.Minute

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter hands out one token bucket per client IP.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*client
	rps       rate.Limit
	burst     int
	lastSweep time.Time
	now       func() time.Time

	// trustProxy keys clients by X-Forwarded-For. Only safe when a proxy
	// in front of the server overwrites that header.
	trustProxy bool
}

// NewRateLimiter creates a limiter allowing rps requests per second per
// client with the given burst. Clients are keyed by the connection's
// remote address unless trustProxy is set.
func NewRateLimiter(rps float64, burst int, trustProxy bool) *RateLimiter {
	return &RateLimiter{
		clients:    make(map[string]*client),
		rps:        rate.Limit(rps),
		burst:      burst,
		now:        time.Now,
		trustProxy: trustProxy,
	}
}

// Allow reports whether the client identified by key may proceed.
func (l *RateLimiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) > idleClientTTL {
		for k, c := range l.clients {
			if now.Sub(c.lastSeen) > idleClientTTL {
				delete(l.clients, k)
			}
		}
		l.lastSweep = now
	}

	c, ok := l.clients[key]
	if !ok {
		c = &client{limiter: rate.NewLimiter(l.rps, l.burst)}
		l.clients[key] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

// RateLimit rejects requests over the per-client budget with 429.
func RateLimit(limiter *RateLimiter, log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r, limiter.trustProxy)
			if !limiter.Allow(ip) {
				metrics.RateLimited.Inc()
				log.Warn().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("client_ip", ip).
					Msg("Rate limit exceeded")
				WriteError(w, http.StatusTooManyRequests, "Too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request, trustProxy bool) string {
	if fwd := r.Header.Get("X-Forwarded-For"); trustProxy && fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
