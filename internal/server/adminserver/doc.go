// Package adminserver serves the operator HTTP endpoint.
//
//	GET /metrics               Prometheus exposition
//	GET /healthz               liveness, build info, active sessions
//	GET /v1/ledger/summary     account count and total held
//
// It binds separately from the bank listener and is off unless
// admin.addr is set.
package adminserver
