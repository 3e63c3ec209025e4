package resilience

import (
	"math"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// LimiterOpts configures a token bucket.
type LimiterOpts struct {
	// Rate is the number of tokens added per second.
	Rate float64
	// Burst is the maximum number of tokens (bucket capacity).
	Burst int
}

// KeyedLimiter keeps one token bucket per key, e.g. per client address.
// Buckets idle for longer than idleTTL are dropped on the next Allow.
type KeyedLimiter struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	buckets map[string]*keyedBucket
	sweep   time.Time
	now     func() time.Time
}

type keyedBucket struct {
	l    *rate.Limiter
	seen time.Time
}

// NewKeyedLimiter creates a KeyedLimiter. Burst <= 0 defaults to 1 and
// idleTTL <= 0 to 10 minutes.
func NewKeyedLimiter(opts LimiterOpts, idleTTL time.Duration) *KeyedLimiter {
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	if idleTTL <= 0 {
		idleTTL = 10 * time.Minute
	}
	return &KeyedLimiter{
		limit:   rate.Limit(opts.Rate),
		burst:   opts.Burst,
		idleTTL: idleTTL,
		buckets: make(map[string]*keyedBucket),
		now:     time.Now,
	}
}

// Allow takes a token from key's bucket.
func (k *KeyedLimiter) Allow(key string) bool {
	k.mu.Lock()
	now := k.now()
	if now.Sub(k.sweep) >= k.idleTTL {
		for key, b := range k.buckets {
			if now.Sub(b.seen) >= k.idleTTL {
				delete(k.buckets, key)
			}
		}
		k.sweep = now
	}
	b, ok := k.buckets[key]
	if !ok {
		b = &keyedBucket{l: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = b
	}
	b.seen = now
	k.mu.Unlock()
	return b.l.AllowN(now, 1)
}

// RetryAfter is how long an empty bucket takes to earn one token, rounded up
// to whole seconds. It is zero for an unlimited rate. A bucket that never
// refills is evicted after idleTTL, so that is the wait.
func (k *KeyedLimiter) RetryAfter() time.Duration {
	if k.limit == rate.Inf {
		return 0
	}
	if k.limit <= 0 {
		return k.idleTTL
	}
	return time.Duration(math.Ceil(1/float64(k.limit))) * time.Second
}

// Len returns the number of live buckets.
func (k *KeyedLimiter) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}
