package storage

import (
	"log/slog"
	"net/http"
)

// Option configures a Relay.
type Option func(*options)

type options struct {
	writer      ObjectWriter
	httpClient  *http.Client
	logger      *slog.Logger
	environment map[string]string
}

// WithObjectWriter replaces the S3 client built from Config.
// Use it to share a client or to substitute a fake in tests.
func WithObjectWriter(w ObjectWriter) Option {
	return func(o *options) {
		if w != nil {
			o.writer = w
		}
	}
}

// WithHTTPClient sets the client used to fetch relay sources.
// Defaults to a client without a timeout; deadlines come from the caller's context.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		if c != nil {
			o.httpClient = c
		}
	}
}

// WithLogger sets the logger. Defaults to a no-op logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithEnvironment resolves unset Config fields from env instead of the
// process environment.
func WithEnvironment(env map[string]string) Option {
	return func(o *options) {
		o.environment = env
	}
}
