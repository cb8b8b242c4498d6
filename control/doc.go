// Package control
// Author: momentics <momentics@gmail.com>
//
// Runtime tuning, metrics, and debug introspection layer for the buffering
// subsystem.
//
// Provides concurrent-safe state handling primitives including:
//   - Tuning store with snapshot reads and reload listeners
//   - Metrics telemetry registry scraped by exporters
//   - Debug probes exporting arena/cache/region state
//   - Colorized lifecycle tracing for development runs
//
// This package is cross-platform and build-tag-partitioned as needed.
package control
