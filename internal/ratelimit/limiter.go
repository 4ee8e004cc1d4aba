// Package ratelimit provides fixed-window request limiters keyed by tenant
// or client address.
package ratelimit

import (
	"context"
	"sync"
	"time"
)

// Decision is the outcome of one Allow call. RetryAfter is only set when
// the request was refused.
type Decision struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

type window struct {
	count   int
	resetAt time.Time
}

// Memory is a per-process fixed-window limiter.
type Memory struct {
	limit  int
	period time.Duration
	now    func() time.Time

	mu       sync.Mutex
	windows  map[string]*window
	lastScan time.Time
}

func NewMemory(limit int, period time.Duration) *Memory {
	if limit <= 0 {
		limit = 60
	}
	if period <= 0 {
		period = time.Minute
	}
	return &Memory{
		limit:   limit,
		period:  period,
		now:     time.Now,
		windows: map[string]*window{},
	}
}

func (m *Memory) Allow(ctx context.Context, key string) (Decision, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	m.evict(now)

	w := m.windows[key]
	if w == nil || !now.Before(w.resetAt) {
		m.windows[key] = &window{count: 1, resetAt: now.Add(m.period)}
		return Decision{Allowed: true, Remaining: m.limit - 1}, nil
	}
	if w.count >= m.limit {
		return Decision{RetryAfter: w.resetAt.Sub(now)}, nil
	}
	w.count++
	return Decision{Allowed: true, Remaining: m.limit - w.count}, nil
}

// evict drops expired windows at most once per period.
func (m *Memory) evict(now time.Time) {
	if now.Sub(m.lastScan) < m.period {
		return
	}
	m.lastScan = now
	for k, w := range m.windows {
		if !now.Before(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
