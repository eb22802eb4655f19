package resource

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMappedLimitExceeded is returned when mapping a segment would exceed the
// configured shared-memory budget.
var ErrMappedLimitExceeded = errors.New("shared memory budget exceeded")

// Config holds resource limits.
type Config struct {
	// MappedLimitBytes caps the total size of live shared-memory segments.
	// If 0, segments are only tracked.
	MappedLimitBytes int64

	// MaxWorkers bounds the goroutines a single raster copy may fan out to.
	// If 0, defaults to 1.
	MaxWorkers int64

	// CaptureBytesPerSec throttles upload capture writes.
	// If 0, unlimited.
	CaptureBytesPerSec int64
}

// Controller governs shared-memory bytes, worker fan-out and capture IO.
type Controller struct {
	cfg Config

	mappedSem  *semaphore.Weighted // nil if unlimited
	mappedUsed atomic.Int64

	workerSem *semaphore.Weighted

	ioLimiter *rate.Limiter
}

// NewController creates a new resource controller.
func NewController(cfg Config) *Controller {
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = 1
	}

	c := &Controller{
		cfg:       cfg,
		workerSem: semaphore.NewWeighted(cfg.MaxWorkers),
	}

	if cfg.MappedLimitBytes > 0 {
		c.mappedSem = semaphore.NewWeighted(cfg.MappedLimitBytes)
	}

	if cfg.CaptureBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.CaptureBytesPerSec), int(cfg.CaptureBytesPerSec))
	}

	return c
}

// AcquireMapped reserves bytes of the shared-memory budget.
// Non-blocking: a segment that does not fit fails right away.
func (c *Controller) AcquireMapped(bytes int64) error {
	if c == nil || bytes <= 0 {
		return nil
	}

	if c.mappedSem != nil && !c.mappedSem.TryAcquire(bytes) {
		return fmt.Errorf("%w: %d bytes requested, %d of %d in use",
			ErrMappedLimitExceeded, bytes, c.MappedBytes(), c.MappedLimit())
	}

	c.mappedUsed.Add(bytes)
	return nil
}

// ReleaseMapped returns bytes to the shared-memory budget.
func (c *Controller) ReleaseMapped(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}

	if c.mappedSem != nil {
		c.mappedSem.Release(bytes)
	}
	c.mappedUsed.Add(-bytes)
}

// MappedBytes returns the bytes held by live segments.
func (c *Controller) MappedBytes() int64 {
	if c == nil {
		return 0
	}
	return c.mappedUsed.Load()
}

// MappedLimit returns the configured budget in bytes (0 if unlimited).
func (c *Controller) MappedLimit() int64 {
	if c == nil {
		return 0
	}
	return c.cfg.MappedLimitBytes
}

// Workers returns the configured worker bound.
func (c *Controller) Workers() int {
	if c == nil {
		return 1
	}
	return int(c.cfg.MaxWorkers)
}

// AcquireWorker reserves a worker slot, blocking while all are busy.
func (c *Controller) AcquireWorker(ctx context.Context) error {
	if c == nil {
		return nil
	}
	return c.workerSem.Acquire(ctx, 1)
}

// ReleaseWorker releases a worker slot.
func (c *Controller) ReleaseWorker() {
	if c == nil {
		return
	}
	c.workerSem.Release(1)
}

// AcquireIO waits until the IO limit allows the specified number of bytes.
// Requests larger than the burst are split.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
