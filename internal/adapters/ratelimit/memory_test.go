package ratelimit

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLimiter_FixedWindow(t *testing.T) {
	now := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)
	l := NewMemoryLimiter(3, time.Minute)
	l.now = func() time.Time { return now }
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		if ok, _ := l.Allow(ctx, "redeem:doctor-1"); !ok {
			t.Fatalf("attempt %d should be allowed", i)
		}
	}
	if ok, _ := l.Allow(ctx, "redeem:doctor-1"); ok {
		t.Fatalf("4th attempt should be denied")
	}
	if ok, _ := l.Allow(ctx, "redeem:doctor-2"); !ok {
		t.Fatalf("keys must be independent")
	}

	now = now.Add(time.Minute)
	if ok, _ := l.Allow(ctx, "redeem:doctor-1"); !ok {
		t.Fatalf("new window should reset the counter")
	}
}
