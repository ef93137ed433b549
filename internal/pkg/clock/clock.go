package clock

import (
	"context"
	"sync"
	"time"
)

type Clock interface {
	Now(ctx context.Context) time.Time
}

type SystemClock struct{}

func (SystemClock) Now(ctx context.Context) time.Time {
	return time.Now().UTC()
}

// FixedClock returns a settable instant.
type FixedClock struct {
	mu sync.RWMutex
	t  time.Time
}

func NewFixedClock(t time.Time) *FixedClock {
	return &FixedClock{t: t.UTC()}
}

func (c *FixedClock) Now(ctx context.Context) time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.t
}

func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	c.t = t.UTC()
	c.mu.Unlock()
}

func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}
