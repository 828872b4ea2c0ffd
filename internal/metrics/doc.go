// Package metrics exports deployment phases and component states in the
// Prometheus format.
//
// A Collector implements orchestrator.Observer. Server serves it on
// /metrics when a metrics address is configured.
package metrics
