package server

import (
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"resumatch/internal/errors"

	"golang.org/x/time/rate"
)

const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key (API key or IP) and
// forgets clients that stay idle for limiterIdleTTL.
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	rejected  atomic.Int64
	stop      chan struct{}
	closeOnce sync.Once
	logger    *errors.Logger
}

// NewRateLimiter allows requestsPerMin per client with bursts of up to
// burstCapacity requests.
func NewRateLimiter(requestsPerMin int, burstCapacity int, logger *errors.Logger) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(requestsPerMin) / 60.0),
		burst:   burstCapacity,
		stop:    make(chan struct{}),
		logger:  logger,
	}
	go rl.evictLoop(limiterIdleTTL)
	return rl
}

func (rl *RateLimiter) bucketFor(key string, now time.Time) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	c, ok := rl.clients[key]
	if !ok {
		c = &clientLimiter{bucket: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = c
	}
	c.lastSeen = now
	return c.bucket
}

// Allow takes a token for key. When none is available it reports how long
// the client should wait before retrying.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := time.Now()
	res := rl.bucketFor(key, now).ReserveN(now, 1)
	if !res.OK() {
		rl.rejected.Add(1)
		return false, 0
	}
	if wait := res.DelayFrom(now); wait > 0 {
		res.CancelAt(now)
		rl.rejected.Add(1)
		return false, wait
	}
	return true, 0
}

// GetStats reports the limiter configuration and load.
func (rl *RateLimiter) GetStats() map[string]any {
	rl.mu.Lock()
	active := len(rl.clients)
	rl.mu.Unlock()

	return map[string]any{
		"active_limiters": active,
		"rate_per_minute": float64(rl.limit) * 60.0,
		"burst_capacity":  rl.burst,
		"rejected_total":  rl.rejected.Load(),
	}
}

func (rl *RateLimiter) evictLoop(every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case now := <-ticker.C:
			rl.evictIdle(now.Add(-every))
		case <-rl.stop:
			return
		}
	}
}

func (rl *RateLimiter) evictIdle(cutoff time.Time) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, c := range rl.clients {
		if c.lastSeen.Before(cutoff) {
			delete(rl.clients, key)
		}
	}
	if rl.logger != nil {
		rl.logger.Debug("Rate limiter eviction completed", "remaining_limiters", len(rl.clients))
	}
}

// Close stops the eviction goroutine. It is safe to call more than once.
func (rl *RateLimiter) Close() {
	rl.closeOnce.Do(func() { close(rl.stop) })
}

// rateLimitMiddleware rejects clients that exceed their bucket with 429 and a
// Retry-After header.
func (s *Server) rateLimitMiddleware() func(http.HandlerFunc) http.HandlerFunc {
	if s.RateLimit == nil || !s.RateLimit.Enabled || s.RateLimiter == nil {
		return func(next http.HandlerFunc) http.HandlerFunc { return next }
	}

	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			key := getRateLimitKey(r, s.RateLimit.ByAPIKey, s.RateLimit.ByIP)
			if key == "" {
				next(w, r)
				return
			}

			ok, wait := s.RateLimiter.Allow(key)
			if !ok {
				if wait > 0 {
					w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
				}
				s.Logger.Info("Rate limit exceeded",
					"endpoint", r.URL.Path,
					"client_ip", getClientIP(r),
					"retry_after", wait)
				s.Observability.GetMetrics().RecordRateLimitHit(r.Context(), r.URL.Path)
				writeErrorResponse(w, "Rate limit exceeded", "Too many requests", http.StatusTooManyRequests)
				return
			}
			next(w, r)
		}
	}
}

// requestAPIKey returns the key from X-API-Key or an Authorization bearer token.
func requestAPIKey(r *http.Request) string {
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}

func getRateLimitKey(r *http.Request, byAPIKey, byIP bool) string {
	if byAPIKey {
		if key := requestAPIKey(r); key != "" {
			return "api:" + key
		}
	}
	if byIP {
		return "ip:" + getClientIP(r)
	}
	return ""
}

// getClientIP prefers proxy headers over the socket address.
func getClientIP(r *http.Request) string {
	if ip := parseFirstIP(r.Header.Get("X-Forwarded-For")); ip != "" {
		return ip
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(xri) != nil {
		return xri
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// parseFirstIP returns the first valid address in a comma separated list.
func parseFirstIP(ips string) string {
	for ip := range strings.SplitSeq(ips, ",") {
		ip = strings.TrimSpace(ip)
		if net.ParseIP(ip) != nil {
			return ip
		}
	}
	return ""
}
