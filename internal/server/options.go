package server

import (
	"context"
	"log/slog"
	"net"
	"time"
)

// Option configures Run.
type Option func(*config)

// Address sets the listen address. Defaults to ":8080".
func Address(addr string) Option {
	return func(c *config) {
		if addr != "" {
			c.address = addr
		}
	}
}

// Listener serves on an existing listener instead of opening Address.
func Listener(ln net.Listener) Option {
	return func(c *config) {
		c.listener = ln
	}
}

// Logger sets the server logger. If nil, logging is disabled.
func Logger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// ShutdownTimeout bounds the graceful shutdown, hooks included.
// Defaults to 10 seconds.
func ShutdownTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.shutdownTimeout = d
		}
	}
}

// ReadTimeout sets http.Server.ReadTimeout. Defaults to 30 seconds.
func ReadTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.readTimeout = d
		}
	}
}

// WriteTimeout sets http.Server.WriteTimeout. Defaults to 2 minutes.
func WriteTimeout(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.writeTimeout = d
		}
	}
}

// ShutdownHook registers a cleanup function run after the server stops.
// Hooks run in registration order and share the shutdown timeout.
//
// Example:
//
//	server.ShutdownHook(func(context.Context) error {
//		logger.Flush(2 * time.Second)
//		return nil
//	})
func ShutdownHook(fn func(context.Context) error) Option {
	return func(c *config) {
		if fn != nil {
			c.shutdownHooks = append(c.shutdownHooks, fn)
		}
	}
}
