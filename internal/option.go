package internal

import (
	"io"
	"log/slog"
)

// Option is a functional option for configuring the application.
type Option func(*Application)

// WithConfig sets the application configuration.
func WithConfig(cfg *Config) Option {
	return func(a *Application) {
		a.config = cfg
	}
}

// WithOutput sets where command results are written. Defaults to stdout.
func WithOutput(w io.Writer) Option {
	return func(a *Application) {
		a.out = w
	}
}

// WithLogger replaces the JSON logger built from the configuration.
func WithLogger(l *slog.Logger) Option {
	return func(a *Application) {
		a.logger = l
	}
}
