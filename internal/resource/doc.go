// Package resource governs the process-wide limits of the bridge.
//
// A Controller manages three resources:
//
//   - Mapped bytes: a fail-fast budget over live shared-memory segments
//   - Workers: how many goroutines one raster copy may fan out to
//   - IO: a token bucket throttling capture writes
//
//	rc := resource.NewController(resource.Config{
//	    MappedLimitBytes:   1 << 30,
//	    MaxWorkers:         4,
//	    CaptureBytesPerSec: 32 << 20,
//	})
//
//	if err := rc.AcquireMapped(size); err != nil {
//	    // ErrMappedLimitExceeded
//	}
//	defer rc.ReleaseMapped(size)
//
//	w := resource.NewRateLimitedWriter(ctx, file, rc)
//
// All methods are safe for concurrent use and a nil *Controller is a valid
// no-op controller.
package resource
