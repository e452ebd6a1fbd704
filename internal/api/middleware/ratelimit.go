package middleware

import (
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/mingle-social/server/internal/api/apierr"
	"github.com/mingle-social/server/internal/config"
)

// Tier selects which per-minute budget applies to a route group. Login
// gets a much tighter budget than the rest of the API to slow down
// credential stuffing.
type Tier string

const (
	TierPublic Tier = "public"
	TierLogin  Tier = "login"
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP and tier. Entries idle
// for longer than the cleanup window are evicted by a background sweep.
type RateLimiter struct {
	mu      sync.Mutex
	entries map[string]*limiterEntry
	limits  map[Tier]rate.Limit
	burst   map[Tier]int
	done    chan struct{}
}

func NewRateLimiter(cfg config.RateLimitConfig) *RateLimiter {
	rl := &RateLimiter{
		entries: make(map[string]*limiterEntry),
		limits: map[Tier]rate.Limit{
			TierPublic: rate.Limit(float64(cfg.PublicPerMinute) / 60.0),
			TierLogin:  rate.Limit(float64(cfg.LoginPerMinute) / 60.0),
		},
		burst: map[Tier]int{
			TierPublic: cfg.PublicPerMinute,
			TierLogin:  cfg.LoginPerMinute,
		},
		done: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Close stops the background eviction goroutine.
func (rl *RateLimiter) Close() {
	close(rl.done)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			cutoff := time.Now().Add(-3 * time.Minute)
			for key, entry := range rl.entries {
				if entry.lastSeen.Before(cutoff) {
					delete(rl.entries, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) allow(key string, tier Tier) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, ok := rl.entries[key]
	if !ok {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.limits[tier], rl.burst[tier])}
		rl.entries[key] = entry
	}
	entry.lastSeen = time.Now()
	return entry.limiter.Allow()
}

// Limit enforces the given tier for every request passing through. Health
// probes are exempt so orchestrators cannot be throttled into flapping.
func (rl *RateLimiter) Limit(tier Tier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/healthz" || r.URL.Path == "/readyz" {
				next.ServeHTTP(w, r)
				return
			}
			key := string(tier) + ":" + clientIP(r)
			if !rl.allow(key, tier) {
				w.Header().Set("Retry-After", strconv.Itoa(60))
				apierr.Write(w, r, http.StatusTooManyRequests, "Too many requests", nil)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		for i := 0; i < len(fwd); i++ {
			if fwd[i] == ',' {
				return fwd[:i]
			}
		}
		return fwd
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
