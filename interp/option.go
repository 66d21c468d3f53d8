package interp

import (
	"fmt"
	"io"
	"maps"
	"os"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ardnew/riptide/log"
)

// Option modifies the configuration of a [Runtime].
type Option func(config) config

const (
	// DefaultGracePeriod is how long exit waits for terminated processes
	// before killing them.
	DefaultGracePeriod = 2 * time.Second
	// DefaultMaxDepth is the deepest nesting of block invocations before the
	// runtime aborts.
	DefaultMaxDepth = 10000
	// AbortExitCode is the process exit status used by the default abort hook.
	AbortExitCode = 70
)

// ExecFunc replaces the running process image.
type ExecFunc func(path string, argv, env []string) error

type config struct {
	logger   log.Logger
	stdin    io.Reader
	stdout   io.Writer
	stderr   io.Writer
	env      []string
	dir      string
	grace    time.Duration
	buffer   int
	maxDepth int
	builtins map[string]Value
	loader   ModuleLoader
	abort    func(error)
	exec     ExecFunc
}

func makeConfig(opts ...Option) config {
	dir, _ := os.Getwd()

	c := config{
		logger:   log.Default(),
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		env:      os.Environ(),
		dir:      dir,
		grace:    DefaultGracePeriod,
		buffer:   DefaultStreamBuffer,
		maxDepth: DefaultMaxDepth,
		builtins: map[string]Value{},
		exec:     unix.Exec,
	}

	for _, opt := range opts {
		if opt != nil {
			c = opt(c)
		}
	}

	if c.abort == nil {
		stderr := c.stderr
		c.abort = func(err error) {
			fmt.Fprintln(stderr, err)
			os.Exit(AbortExitCode)
		}
	}

	return c
}

// WithLogger sets the logger receiving runtime records.
func WithLogger(logger log.Logger) Option {
	return func(c config) config {
		c.logger = logger

		return c
	}
}

// WithStdin sets the reader behind the root fiber's input. Each line is
// received as a string. Without it the root input is empty.
func WithStdin(r io.Reader) Option {
	return func(c config) config {
		c.stdin = r

		return c
	}
}

// WithStdout sets the writer behind the root fiber's output.
func WithStdout(w io.Writer) Option {
	return func(c config) config {
		if w == nil {
			w = io.Discard
		}

		c.stdout = w

		return c
	}
}

// WithStderr sets the writer for diagnostics and external command errors.
func WithStderr(w io.Writer) Option {
	return func(c config) config {
		if w == nil {
			w = io.Discard
		}

		c.stderr = w

		return c
	}
}

// WithEnviron sets the initial value of @environment from KEY=value pairs.
func WithEnviron(env []string) Option {
	return func(c config) config {
		c.env = env

		return c
	}
}

// WithDir sets the initial value of @cwd.
func WithDir(dir string) Option {
	return func(c config) config {
		c.dir = dir

		return c
	}
}

// WithGracePeriod sets how long exit waits before killing processes.
func WithGracePeriod(d time.Duration) Option {
	return func(c config) config {
		if d >= 0 {
			c.grace = d
		}

		return c
	}
}

// WithStreamBuffer sets the capacity of pipes between pipeline stages.
func WithStreamBuffer(n int) Option {
	return func(c config) config {
		if n >= 0 {
			c.buffer = n
		}

		return c
	}
}

// WithMaxDepth sets the deepest nesting of block invocations. Zero removes
// the limit.
func WithMaxDepth(n int) Option {
	return func(c config) config {
		if n >= 0 {
			c.maxDepth = n
		}

		return c
	}
}

// WithBuiltins adds host values resolvable by name. Later options override
// earlier ones, and all of them override the core builtins.
func WithBuiltins(builtins map[string]Value) Option {
	return func(c config) config {
		c.builtins = maps.Clone(c.builtins)
		maps.Copy(c.builtins, builtins)

		return c
	}
}

// WithModuleLoader sets the resolver of import statements.
func WithModuleLoader(loader ModuleLoader) Option {
	return func(c config) config {
		c.loader = loader

		return c
	}
}

// WithAbort sets the hook invoked on a [FatalError]. The default prints the
// error and exits the process.
func WithAbort(abort func(error)) Option {
	return func(c config) config {
		c.abort = abort

		return c
	}
}

// WithExec sets the function used by exec to replace the process image.
func WithExec(exec ExecFunc) Option {
	return func(c config) config {
		if exec != nil {
			c.exec = exec
		}

		return c
	}
}
