// Package api hosts the operator HTTP server. Notable routes:
//   - GET /healthz and /readyz for Kubernetes probes.
//   - GET /metrics for Prometheus scraping.
//   - GET /v1/courts and /v1/courts/{identifier} for the court registry and
//     per-court harvest progress.
package api
