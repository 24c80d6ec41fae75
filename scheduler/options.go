package scheduler

import "github.com/outofforest/flashplan/move"

// Config holds the resolved configuration of a Scheduler. It is built by
// applying Options over defaultConfig and is never mutated after New
// returns.
type Config struct {
	geometry     move.Config
	logger       Logger
	profiler     Profiler
	collectStats bool
}

func defaultConfig(geometry move.Config) Config {
	return Config{
		geometry:     geometry,
		logger:       nopLogger{},
		profiler:     nopProfiler{},
		collectStats: false,
	}
}

// Option configures a Scheduler at construction time.
type Option func(*Config)

// WithLogger wires a Logger to receive structured diagnostics from every
// pass. The default is a no-op logger.
func WithLogger(logger Logger) Option {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithProfiler wires a Profiler invoked at every pass boundary. The default
// is a no-op profiler.
func WithProfiler(profiler Profiler) Option {
	return func(c *Config) {
		c.profiler = profiler
	}
}

// WithStats enables collection of the Stats attached to a Plan. Disabled by
// default, since tallying bytes copied costs a little extra bookkeeping on
// the hot path.
func WithStats() Option {
	return func(c *Config) {
		c.collectStats = true
	}
}
