// Package resource bounds the background work a store may perform.
//
// Maintenance sweeps run per-shard tasks concurrently; the Controller
// caps how many run at once and throttles their persistence IO so that
// maintenance never starves foreground inserts and searches.
package resource

import (
	"context"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// Config holds resource limits.
type Config struct {
	// MaxBackgroundWorkers is the maximum number of concurrent background
	// jobs (per-shard maintenance tasks). If 0, defaults to 1.
	MaxBackgroundWorkers int64

	// IOLimitBytesPerSec is the maximum IO throughput for background
	// tasks. If 0, unlimited.
	IOLimitBytesPerSec int64
}

// Controller manages background concurrency and IO throughput.
type Controller struct {
	cfg Config

	bgSem     *semaphore.Weighted
	ioLimiter *rate.Limiter // nil if unlimited
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxBackgroundWorkers <= 0 {
		cfg.MaxBackgroundWorkers = 1
	}

	c := &Controller{
		cfg:   cfg,
		bgSem: semaphore.NewWeighted(cfg.MaxBackgroundWorkers),
	}

	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// MaxBackgroundWorkers returns the configured background concurrency.
func (c *Controller) MaxBackgroundWorkers() int {
	return int(c.cfg.MaxBackgroundWorkers)
}

// AcquireBackground reserves a background worker slot.
// Blocks if all slots are busy.
func (c *Controller) AcquireBackground(ctx context.Context) error {
	return c.bgSem.Acquire(ctx, 1)
}

// ReleaseBackground releases a background worker slot.
func (c *Controller) ReleaseBackground() {
	c.bgSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil || bytes <= 0 {
		return nil
	}
	// WaitN cannot exceed the limiter burst.
	if burst := c.ioLimiter.Burst(); bytes > burst {
		bytes = burst
	}
	return c.ioLimiter.WaitN(ctx, bytes)
}
