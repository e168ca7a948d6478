package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Option tunes a single Load call.
type Option func(*options)

type options struct {
	files  []string
	prefix string
}

// WithEnvFiles replaces the default ".env" file list. Missing files are skipped.
func WithEnvFiles(files ...string) Option {
	return func(o *options) {
		o.files = files
	}
}

// WithPrefix makes every env tag resolve as prefix+tag.
func WithPrefix(prefix string) Option {
	return func(o *options) {
		o.prefix = prefix
	}
}

// Load reads dotenv files and parses the environment into v.
func Load[T any](v *T, opts ...Option) error {
	if v == nil {
		return ErrNilPointer
	}

	o := &options{files: []string{".env"}}
	for _, opt := range opts {
		opt(o)
	}

	for _, file := range o.files {
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err := godotenv.Load(file); err != nil {
			return errors.Join(ErrReadingEnvFile, fmt.Errorf("%s: %w", file, err))
		}
	}

	if err := env.ParseWithOptions(v, env.Options{Prefix: o.prefix}); err != nil {
		return errors.Join(ErrParsingConfig, err)
	}
	return nil
}

// MustLoad is Load that panics on error. Meant for process startup.
func MustLoad[T any](v *T, opts ...Option) {
	if err := Load(v, opts...); err != nil {
		panic(fmt.Sprintf("failed to load required configuration: %v", err))
	}
}
