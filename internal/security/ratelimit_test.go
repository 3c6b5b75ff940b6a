package security

import (
	"errors"
	"testing"
)

func TestRateLimiterBurstExhaustion(t *testing.T) {
	rl := NewRateLimiter(RateLimitPolicy{
		MaxRequestsPerMinute: 60,
		MaxConcurrent:        3,
	})

	for i := range 3 {
		if err := rl.Allow("srv", "read_file"); err != nil {
			t.Fatalf("call %d = %v, want nil", i, err)
		}
	}

	// The bucket refills at one token per second; the fourth immediate
	// call exceeds the burst.
	if err := rl.Allow("srv", "read_file"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("call after burst = %v, want ErrRateLimited", err)
	}
}

func TestRateLimiterToolIndependence(t *testing.T) {
	rl := NewRateLimiter(RateLimitPolicy{
		MaxRequestsPerMinute: 60,
		MaxConcurrent:        1,
	})

	if err := rl.Allow("srv", "read_file"); err != nil {
		t.Fatalf("read_file = %v", err)
	}
	if err := rl.Allow("srv", "read_file"); !errors.Is(err, ErrRateLimited) {
		t.Fatalf("second read_file = %v, want ErrRateLimited", err)
	}

	// A different tool and a different server each get their own bucket.
	if err := rl.Allow("srv", "write_file"); err != nil {
		t.Errorf("write_file = %v, want nil", err)
	}
	if err := rl.Allow("other", "read_file"); err != nil {
		t.Errorf("other server = %v, want nil", err)
	}
}

func TestRateLimiterTotalCap(t *testing.T) {
	rl := NewRateLimiter(RateLimitPolicy{MaxTotalOperations: 2})

	for i := range 2 {
		if err := rl.Allow("srv", "tool"); err != nil {
			t.Fatalf("call %d = %v", i, err)
		}
	}
	if err := rl.Allow("srv", "tool"); !errors.Is(err, ErrRateLimited) {
		t.Errorf("call over cap = %v, want ErrRateLimited", err)
	}
}

func TestRateLimiterDisabled(t *testing.T) {
	rl := NewRateLimiter(RateLimitPolicy{})

	for i := range 100 {
		if err := rl.Allow("srv", "tool"); err != nil {
			t.Fatalf("call %d = %v, want nil with zero policy", i, err)
		}
	}
}
