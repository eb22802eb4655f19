package geobridge

import (
	"github.com/hupe1980/geobridge/capture"
	"github.com/hupe1980/geobridge/internal/resource"
)

type options struct {
	logger           *Logger
	metricsCollector MetricsCollector
	resource         resource.Config
	scope            string
	shmDir           string

	capture     *capture.Writer
	capturePath string
	captureOpts capture.Options
}

// Option configures a Bridge.
type Option func(*options)

// WithLogger sets the logger. If nil is passed, logging is disabled.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMetricsCollector sets the metrics collector. If nil is passed,
// metrics are discarded.
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// ResourceConfig holds the limits of a Bridge's resource controller.
type ResourceConfig = resource.Config

// WithResourceConfig bounds shared-memory bytes, raster copy workers and
// capture throughput.
func WithResourceConfig(cfg ResourceConfig) Option {
	return func(o *options) {
		o.resource = cfg
	}
}

// WithProcessScope overrides the key prefix of every segment.
// The default is derived from the process id, e.g. "_4242_".
func WithProcessScope(scope string) Option {
	return func(o *options) {
		o.scope = scope
	}
}

// WithSharedMemoryDir places Unix segments in dir instead of /dev/shm.
func WithSharedMemoryDir(dir string) Option {
	return func(o *options) {
		o.shmDir = dir
	}
}

// WithCapture records every successful commit to w. The caller keeps
// ownership of w.
func WithCapture(w *capture.Writer) Option {
	return func(o *options) {
		o.capture = w
	}
}

// WithCaptureFile records every successful commit to a new file at path.
// The Bridge closes the file on Close. The resource controller throttles
// writes unless opts.Controller is set.
func WithCaptureFile(path string, opts capture.Options) Option {
	return func(o *options) {
		o.capturePath = path
		o.captureOpts = opts
	}
}

func applyOptions(optFns []Option) options {
	opts := options{
		logger:           NoopLogger(),
		metricsCollector: NoopMetricsCollector{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return opts
}
