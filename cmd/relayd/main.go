// Command relayd serves the object storage relay over HTTP.
package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/dmitrymomot/objrelay/internal/config"
	"github.com/dmitrymomot/objrelay/internal/httpapi"
	"github.com/dmitrymomot/objrelay/internal/server"
	"github.com/dmitrymomot/objrelay/pkg/logger"
	"github.com/dmitrymomot/objrelay/pkg/storage"
)

const flushTimeout = 2 * time.Second

func main() {
	if err := run(context.Background()); err != nil {
		log.Printf("relayd: %v", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	l := logger.New(cfg.Log, httpapi.RequestIDExtractor()).With(slog.String("env", cfg.AppEnv))

	relay, err := storage.New(storage.Config{}, storage.WithLogger(l))
	if err != nil {
		return err
	}

	sc := relay.Config()
	l.Info("storage configured",
		slog.String("endpoint", sc.Endpoint),
		slog.String("region", sc.Region),
		slog.String("bucket", sc.Bucket),
		slog.Bool("path_style", sc.PathStyle),
	)

	handler := httpapi.NewRouter(relay,
		httpapi.WithLogger(l),
		httpapi.WithMaxUploadSize(cfg.HTTP.MaxUploadSize),
		httpapi.WithAllowedOrigins(cfg.HTTP.CORSAllowedOrigins...),
	)

	return server.Run(ctx, handler,
		server.Address(cfg.HTTP.Addr),
		server.Logger(l),
		server.ReadTimeout(cfg.HTTP.ReadTimeout),
		server.WriteTimeout(cfg.HTTP.WriteTimeout),
		server.ShutdownTimeout(cfg.HTTP.ShutdownTimeout),
		server.ShutdownHook(func(context.Context) error {
			logger.Flush(flushTimeout)
			return nil
		}),
	)
}
