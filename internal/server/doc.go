// Package server orchestrates the feedlog server components.
//
// # Overview
//
// The server package is the central coordinator of the feedlog process.
// It owns the data store, the web UI handler, the JSON API, and the HTTP
// server, and it selects the listener based on configuration: a plain TCP
// listener, or a Tailscale tsnet listener (plain, TLS with a configured
// cert pair, or public Funnel).
//
// # Lifecycle
//
// New wires all components onto a single http.ServeMux. Run blocks until
// the context is canceled (typically by SIGINT/SIGTERM via
// signal.NotifyContext) and then performs a graceful shutdown with a
// five second deadline.
//
// # Health Endpoints
//
//   - GET /health - Liveness check, always 200 while the process runs
//   - GET /health/ready - Readiness check, 200 once the database answers
package server
