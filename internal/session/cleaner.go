package session

import (
	"context"
	"log/slog"
	"time"
)

// Cleaner evicts idle sessions
type Cleaner struct {
	registry *Registry
	ttl      time.Duration
	interval time.Duration
}

// NewCleaner creates a cleanup worker. Sessions unused for ttl are evicted
// every interval.
func NewCleaner(registry *Registry, ttl, interval time.Duration) *Cleaner {
	if ttl <= 0 {
		ttl = 2 * time.Hour
	}
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		registry: registry,
		ttl:      ttl,
		interval: interval,
	}
}

// Run blocks until ctx is done
func (c *Cleaner) Run(ctx context.Context) error {
	slog.Info("session cleaner started", "interval", c.interval, "ttl", c.ttl)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("session cleaner stopped")
			return nil
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep evicts every idle session and returns how many were evicted
func (c *Cleaner) Sweep() int {
	idle := c.registry.Idle(c.ttl)
	if len(idle) == 0 {
		slog.Debug("no idle sessions found")
		return 0
	}

	slog.Info("found idle sessions", "count", len(idle))

	evicted := 0
	for _, id := range idle {
		if c.registry.Evict(id) {
			evicted++
			slog.Info("idle session evicted", "id", id)
		}
	}
	return evicted
}
