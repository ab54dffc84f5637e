// Package health provides liveness and readiness HTTP handlers.
//
// Readiness runs named [Checks] in parallel under a shared timeout and
// reports each result. Responses are plain text ("OK" / "Service
// Unavailable") unless the client asks for JSON with an Accept header or
// ?format=json:
//
//	r.Get("/healthz", health.LivenessHandler())
//	r.Get("/readyz", health.ReadinessHandler(health.Checks{
//		"storage": relay.Ping,
//	}, health.WithLogger(log)))
package health
