package security

import (
	"fmt"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	limiterCleanupInterval = 5 * time.Minute
	limiterStaleThreshold  = 10 * time.Minute
)

// RateLimiter enforces RateLimitPolicy with a token bucket per
// server+tool pair. Cleanup of stale buckets happens inline during
// Allow calls.
//
// MaxRequestsPerMinute sets the sustained refill rate, MaxConcurrent
// the burst, and MaxTotalOperations a monotonic hard cap. Zero values
// disable the corresponding dimension; a zero policy disables the
// limiter entirely.
type RateLimiter struct {
	mu          sync.Mutex
	policy      RateLimitPolicy
	buckets     map[string]*toolBucket
	lastCleanup time.Time
}

// toolBucket holds limiter state for a single server+tool key.
type toolBucket struct {
	limiter  *rate.Limiter
	total    int64
	lastSeen time.Time
}

// NewRateLimiter creates a rate limiter for the given policy.
func NewRateLimiter(policy RateLimitPolicy) *RateLimiter {
	return &RateLimiter{
		policy:      policy,
		buckets:     make(map[string]*toolBucket),
		lastCleanup: time.Now(),
	}
}

// enabled reports whether any limit dimension is configured.
func (rl *RateLimiter) enabled() bool {
	return rl.policy.MaxRequestsPerMinute > 0 || rl.policy.MaxTotalOperations > 0
}

// Allow consumes one operation for the given server+tool pair, or
// returns ErrRateLimited when a limit is exhausted.
func (rl *RateLimiter) Allow(serverID, toolName string) error {
	if !rl.enabled() {
		return nil
	}

	key := serverID + "\x00" + toolName

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()

	if now.Sub(rl.lastCleanup) > limiterCleanupInterval {
		for k, b := range rl.buckets {
			if now.Sub(b.lastSeen) > limiterStaleThreshold {
				delete(rl.buckets, k)
			}
		}
		rl.lastCleanup = now
	}

	b, ok := rl.buckets[key]
	if !ok {
		b = &toolBucket{limiter: rl.newLimiter()}
		rl.buckets[key] = b
	}
	b.lastSeen = now

	if rl.policy.MaxTotalOperations > 0 && b.total >= rl.policy.MaxTotalOperations {
		return fmt.Errorf("%w: total operations cap (%d) reached for tool %q",
			ErrRateLimited, rl.policy.MaxTotalOperations, toolName)
	}

	if b.limiter != nil && !b.limiter.Allow() {
		return fmt.Errorf("%w: %d requests/minute for tool %q",
			ErrRateLimited, rl.policy.MaxRequestsPerMinute, toolName)
	}

	b.total++
	return nil
}

func (rl *RateLimiter) newLimiter() *rate.Limiter {
	if rl.policy.MaxRequestsPerMinute <= 0 {
		return nil
	}
	burst := rl.policy.MaxConcurrent
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(float64(rl.policy.MaxRequestsPerMinute)/60.0), burst)
}
