package resforge

import (
	"log/slog"

	"github.com/hupe1980/resforge/blobstore"
)

type options struct {
	metricsCollector MetricsCollector
	logger           *Logger
	stores           map[string]blobstore.BlobStore
	memoryCacheBytes int64
	ioLimit          int64
	workers          int
}

// Option configures a Workspace.
type Option func(*options)

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &resforge.BasicMetricsCollector{}
//	ws, _ := resforge.Open(ctx, cfg, resforge.WithMetricsCollector(metrics))
//	// ... use ws ...
//	stats := metrics.GetStats()
//	fmt.Printf("Reads: %d, Bytes: %d\n", stats.ReadCount, stats.ReadBytes)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := resforge.NewJSONLogger(slog.LevelInfo)
//	ws, _ := resforge.Open(ctx, cfg, resforge.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithStore supplies the blob store used by tree mounts whose store field
// equals name. It takes precedence over building the store from the
// configuration, and is the only way to back "memory" mounts.
func WithStore(name string, store blobstore.BlobStore) Option {
	return func(o *options) {
		if o.stores == nil {
			o.stores = make(map[string]blobstore.BlobStore)
		}
		o.stores[name] = store
	}
}

// WithBlockCache overrides cache.memory_bytes: the size of the in-memory
// block cache placed in front of remote stores.
func WithBlockCache(bytes int64) Option {
	return func(o *options) {
		o.memoryCacheBytes = bytes
	}
}

// WithIOLimit overrides io_limit_bytes_per_sec.
func WithIOLimit(bytesPerSec int64) Option {
	return func(o *options) {
		o.ioLimit = bytesPerSec
	}
}

// WithWorkers overrides the number of concurrent extraction workers.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
		memoryCacheBytes: -1,
		ioLimit:          -1,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
