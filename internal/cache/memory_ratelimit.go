package cache

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	// memoryLimiterSweepSize triggers pruning of idle clients.
	memoryLimiterSweepSize = 10000
	// memoryLimiterIdle is how long a client may be idle before pruning.
	memoryLimiterIdle = 10 * time.Minute
)

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// MemoryRateLimiter is a single-node token bucket per client IP.
type MemoryRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientLimiter
}

// NewMemoryRateLimiter creates an empty MemoryRateLimiter.
func NewMemoryRateLimiter() *MemoryRateLimiter {
	return &MemoryRateLimiter{clients: make(map[string]*clientLimiter)}
}

// CheckIPRateLimit has the same semantics as Cache.CheckIPRateLimit.
func (m *MemoryRateLimiter) CheckIPRateLimit(_ context.Context, ip string, ratePerMinute, burst int) (*RateLimitResult, error) {
	now := time.Now()
	key := hashIP(ip)
	perSecond := rate.Limit(float64(ratePerMinute) / 60.0)

	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.clients) >= memoryLimiterSweepSize {
		m.sweepLocked(now)
	}

	c, ok := m.clients[key]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(perSecond, burst)}
		m.clients[key] = c
	}
	c.lastSeen = now

	r := c.limiter.ReserveN(now, 1)
	if delay := r.DelayFrom(now); delay > 0 {
		r.CancelAt(now)
		return &RateLimitResult{
			Allowed:    false,
			Remaining:  0,
			ResetAt:    now.Add(delay),
			RetryAfter: roundUpSecond(delay),
		}, nil
	}

	return &RateLimitResult{
		Allowed:   true,
		Remaining: int64(c.limiter.TokensAt(now)),
		ResetAt:   now.Add(time.Duration(float64(time.Second) / float64(perSecond))),
	}, nil
}

func (m *MemoryRateLimiter) sweepLocked(now time.Time) {
	for key, c := range m.clients {
		if now.Sub(c.lastSeen) > memoryLimiterIdle {
			delete(m.clients, key)
		}
	}
}

func roundUpSecond(d time.Duration) time.Duration {
	if r := d % time.Second; r != 0 {
		d += time.Second - r
	}
	return d
}
