package resilience

import (
	"testing"
	"time"

	"golang.org/x/time/rate"
)

func fixedClock(k *KeyedLimiter, now *time.Time) {
	k.now = func() time.Time { return *now }
}

func TestKeyedLimiterBurst(t *testing.T) {
	k := NewKeyedLimiter(LimiterOpts{Rate: 10, Burst: 3}, time.Minute)
	now := time.Now()
	fixedClock(k, &now)
	for i := 0; i < 3; i++ {
		if !k.Allow("a") {
			t.Fatalf("expected allow on call %d", i)
		}
	}
	if k.Allow("a") {
		t.Fatal("expected rejection after burst exhausted")
	}
}

func TestKeyedLimiterRefill(t *testing.T) {
	k := NewKeyedLimiter(LimiterOpts{Rate: 10, Burst: 5}, time.Minute)
	now := time.Now()
	fixedClock(k, &now)

	for i := 0; i < 5; i++ {
		k.Allow("a")
	}
	if k.Allow("a") {
		t.Fatal("should be empty")
	}

	// 500ms at 10/s refills 5 tokens.
	now = now.Add(500 * time.Millisecond)
	for i := 0; i < 5; i++ {
		if !k.Allow("a") {
			t.Fatalf("expected allow after refill, call %d", i)
		}
	}
	if k.Allow("a") {
		t.Fatal("should be empty again")
	}
}

func TestKeyedLimiterRefillCapsAtBurst(t *testing.T) {
	k := NewKeyedLimiter(LimiterOpts{Rate: 100, Burst: 2}, 24*time.Hour)
	now := time.Now()
	fixedClock(k, &now)
	k.Allow("a")
	now = now.Add(time.Hour)
	k.Allow("a")
	k.Allow("a")
	if k.Allow("a") {
		t.Fatal("tokens should be capped at burst")
	}
}

func TestKeyedLimiterZeroBurst(t *testing.T) {
	k := NewKeyedLimiter(LimiterOpts{Rate: 1}, time.Minute)
	if !k.Allow("a") {
		t.Fatal("burst should default to 1")
	}
	if k.burst != 1 || k.limit != rate.Limit(1) {
		t.Fatalf("unexpected limiter config %v/%d", k.limit, k.burst)
	}
}

func TestKeyedLimiterIsolatesKeys(t *testing.T) {
	k := NewKeyedLimiter(LimiterOpts{Rate: 1, Burst: 1}, time.Minute)
	now := time.Now()
	fixedClock(k, &now)

	if !k.Allow("a") || k.Allow("a") {
		t.Fatal("a should get exactly one token")
	}
	if !k.Allow("b") {
		t.Fatal("b has its own bucket")
	}
	if k.Len() != 2 {
		t.Fatalf("Len = %d, want 2", k.Len())
	}
}

func TestKeyedLimiterEvictsIdle(t *testing.T) {
	k := NewKeyedLimiter(LimiterOpts{Rate: 1, Burst: 1}, time.Minute)
	now := time.Now()
	fixedClock(k, &now)

	k.Allow("a")
	k.Allow("b")
	now = now.Add(2 * time.Minute)
	k.Allow("c")
	if k.Len() != 1 {
		t.Fatalf("idle buckets should be swept, Len = %d", k.Len())
	}
}

func TestKeyedLimiterRetryAfter(t *testing.T) {
	cases := []struct {
		rate float64
		want time.Duration
	}{
		{20, time.Second},
		{1, time.Second},
		{0.4, 3 * time.Second},
		{0, time.Minute},
	}
	for _, c := range cases {
		k := NewKeyedLimiter(LimiterOpts{Rate: c.rate, Burst: 1}, time.Minute)
		if got := k.RetryAfter(); got != c.want {
			t.Errorf("rate %v: RetryAfter = %v, want %v", c.rate, got, c.want)
		}
	}
}
