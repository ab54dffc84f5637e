// Package server runs an HTTP handler until the context is canceled or the
// process receives SIGINT or SIGTERM, then shuts down gracefully.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrymomot/objrelay/pkg/logger"
)

// Server defaults.
const (
	defaultAddress           = ":8080"
	defaultShutdownTimeout   = 10 * time.Second
	defaultReadTimeout       = 30 * time.Second
	defaultWriteTimeout      = 2 * time.Minute
	defaultIdleTimeout       = 120 * time.Second
	defaultReadHeaderTimeout = 10 * time.Second
	defaultMaxHeaderBytes    = 1 << 20
)

type config struct {
	listener        net.Listener
	logger          *slog.Logger
	address         string
	shutdownHooks   []func(context.Context) error
	shutdownTimeout time.Duration
	readTimeout     time.Duration
	writeTimeout    time.Duration
}

// Run serves handler and blocks until shutdown completes.
// It returns nil after a clean shutdown, the serve error if the server fails,
// or the joined shutdown and hook errors.
func Run(ctx context.Context, handler http.Handler, opts ...Option) error {
	cfg := &config{
		address:         defaultAddress,
		logger:          logger.NewNope(),
		shutdownTimeout: defaultShutdownTimeout,
		readTimeout:     defaultReadTimeout,
		writeTimeout:    defaultWriteTimeout,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	srv := &http.Server{
		Handler:           handler,
		ReadTimeout:       cfg.readTimeout,
		WriteTimeout:      cfg.writeTimeout,
		IdleTimeout:       defaultIdleTimeout,
		ReadHeaderTimeout: defaultReadHeaderTimeout,
		MaxHeaderBytes:    defaultMaxHeaderBytes,
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	ln := cfg.listener
	if ln == nil {
		var err error
		if ln, err = net.Listen("tcp", cfg.address); err != nil {
			return err
		}
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		cfg.logger.Info("server starting", slog.String("address", ln.Addr().String()))
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return shutdown(srv, cfg)
	})

	return g.Wait()
}

func shutdown(srv *http.Server, cfg *config) error {
	cfg.logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.shutdownTimeout)
	defer cancel()

	var errs []error

	if err := srv.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}

	for _, hook := range cfg.shutdownHooks {
		if err := hook(ctx); err != nil {
			errs = append(errs, err)
			cfg.logger.Error("shutdown hook failed", slog.Any("error", err))
		}
	}

	if len(errs) > 0 {
		cfg.logger.Error("shutdown completed with errors")
		return errors.Join(errs...)
	}

	cfg.logger.Info("shutdown completed")
	return nil
}
