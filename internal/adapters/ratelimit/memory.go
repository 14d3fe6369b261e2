package ratelimit

import (
	"context"
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// MemoryLimiter es la variante de un solo proceso (dev y tests).
type MemoryLimiter struct {
	mu     sync.Mutex
	max    int
	window time.Duration
	byKey  map[string]*window
	now    func() time.Time
}

func NewMemoryLimiter(max int, w time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		max:    max,
		window: w,
		byKey:  make(map[string]*window),
		now:    time.Now,
	}
}

func (l *MemoryLimiter) Allow(ctx context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.byKey[key]
	if !ok || !now.Before(w.start.Add(l.window)) {
		w = &window{start: now}
		l.byKey[key] = w
	}
	w.count++
	return w.count <= l.max, nil
}
