package codec

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
)

// DefaultMaxDepth bounds pointer-following recursion in one pass.
const DefaultMaxDepth = 1 << 16

// ErrDepthLimit is returned when a pass follows more nested pointers than
// the configured maximum depth. The data may be valid; raise the limit with
// WithMaxDepth.
var ErrDepthLimit = errors.New("pointer depth limit exceeded")

func depthError(off int64, obj Object, limit int) error {
	return fmt.Errorf("%w: %s at 0x%x is deeper than %d", ErrDepthLimit, typeName(obj), off, limit)
}

type options struct {
	gpu      []byte
	logger   *slog.Logger
	maxDepth int
}

// Option configures a load or save pass.
type Option func(*options)

// WithGPUData supplies the GPU side buffer for loads of split resources.
func WithGPUData(b []byte) Option {
	return func(o *options) {
		o.gpu = b
	}
}

// WithLogger sets the logger used for pass diagnostics.
// If nil is passed, logging is disabled.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithMaxDepth overrides the pointer recursion limit.
func WithMaxDepth(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.maxDepth = n
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{maxDepth: DefaultMaxDepth}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return o
}
