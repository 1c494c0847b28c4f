// Package metrics defines the sinks that observe computed network snapshots.
// Sinks like PromSink and InfluxSink live in infra/metrics and are built from
// configuration through the factory registry; several configured sinks are
// combined into a MultiSink automatically.
package metrics
