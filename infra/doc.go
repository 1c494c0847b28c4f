// Package infra contains technical adapters: CSV and SQLite storage, the
// zerolog logger and the Prometheus and InfluxDB metrics sinks. These
// packages depend only on the interfaces defined in the core packages.
package infra
