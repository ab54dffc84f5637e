// Package logger builds the service's structured slog logger.
//
// Output is JSON (or text) on stdout. ContextExtractors pull request-scoped
// values such as the request ID out of the context on every log call.
// When a Sentry DSN is configured, warnings and errors are also forwarded to
// Sentry; errors become Sentry issues. Without a DSN the logger silently
// stays stdout-only, so the same wiring works locally and in production.
//
//	log := logger.New(logger.Config{Level: "debug"}, requestIDExtractor)
//	log.InfoContext(ctx, "object stored", slog.String("key", key))
//
// Call Flush before exit so buffered Sentry events are delivered.
package logger
