package config

import (
	"fmt"

	"github.com/caarlos0/env/v10"
)

// Option adjusts how Load reads the environment.
type Option func(*env.Options)

// WithEnvironment reads variables from environ instead of the process
// environment. Used by tests to stay hermetic.
func WithEnvironment(environ map[string]string) Option {
	return func(o *env.Options) {
		o.Environment = environ
	}
}

// WithPrefix prepends prefix to every variable name.
func WithPrefix(prefix string) Option {
	return func(o *env.Options) {
		o.Prefix = prefix
	}
}

// Load parses environment variables into cfg, which must be a pointer to a
// struct using `env` and `envDefault` tags.
func Load(cfg any, opts ...Option) error {
	var o env.Options
	for _, opt := range opts {
		opt(&o)
	}
	if err := env.ParseWithOptions(cfg, o); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}
