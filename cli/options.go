package cli

import (
	"io"
	"log/slog"
	"os"
)

// Options configures how a module tree is bound to the command line.
type Options struct {
	// Version is printed by --version on every command.
	Version string
	// Args overrides os.Args[1:].
	Args []string
	// Out receives command results, help and the version banner.
	Out io.Writer
	// Err receives error messages printed by Main.
	Err io.Writer
	// Logger, when set, is attached to the context passed to every command.
	// Otherwise commands see whatever logger the execution context carries.
	Logger *slog.Logger
	// Schema adds a hidden "schema" command printing the tree's .proto description.
	Schema bool
}

// Option configures Options.
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		Version: "dev",
		Args:    os.Args[1:],
		Out:     os.Stdout,
		Err:     os.Stderr,
	}
}

func newOptions(opts []Option) Options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithVersion sets the version banner.
func WithVersion(version string) Option {
	return func(o *Options) {
		o.Version = version
	}
}

// WithArgs sets the arguments to parse instead of os.Args[1:].
func WithArgs(args ...string) Option {
	return func(o *Options) {
		o.Args = append([]string{}, args...)
	}
}

// WithOutput sets the writer for results and help.
func WithOutput(w io.Writer) Option {
	return func(o *Options) {
		o.Out = w
	}
}

// WithErrorOutput sets the writer for error messages.
func WithErrorOutput(w io.Writer) Option {
	return func(o *Options) {
		o.Err = w
	}
}

// WithLogger sets the logger, which commands reach through ctxlog.FromContext.
func WithLogger(logger *slog.Logger) Option {
	return func(o *Options) {
		o.Logger = logger
	}
}

// WithSchemaCommand enables the hidden "schema" command.
func WithSchemaCommand() Option {
	return func(o *Options) {
		o.Schema = true
	}
}
