// Package metric exposes bankmesh Prometheus metrics.
//
// Session, login, transfer and decrypt counters are recorded by the
// bank server; storage gauges are registered by the Badger store through
// Registerer. Everything is served from a private registry at /metrics.
package metric
