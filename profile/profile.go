package profile

// Config holds the parameters of a profiling session.
type Config struct {
	Mode  string // one of [Modes]; empty disables profiling
	Dir   string // output directory
	Quiet bool   // suppress the profiler's own log messages
}

// Option modifies a [Config].
type Option func(Config) Config

// WithMode selects the profiling mode.
func WithMode(mode string) Option {
	return func(c Config) Config {
		c.Mode = mode

		return c
	}
}

// WithDir sets the directory profiles are written to.
func WithDir(dir string) Option {
	return func(c Config) Config {
		c.Dir = dir

		return c
	}
}

// WithQuiet silences the profiler.
func WithQuiet(quiet bool) Option {
	return func(c Config) Config {
		c.Quiet = quiet

		return c
	}
}

// Stopper ends a profiling session and flushes its output.
type Stopper interface{ Stop() }

// Start begins profiling as configured by opts. It returns a no-op
// [Stopper] when no mode is selected or the binary was built without the
// pprof tag. Both Start and Stop are always safe to call.
func Start(opts ...Option) Stopper {
	var c Config

	for _, opt := range opts {
		c = opt(c)
	}

	if c.Mode == "" {
		return ignore{}
	}

	return start(c)
}

type ignore struct{}

func (ignore) Stop() {}
