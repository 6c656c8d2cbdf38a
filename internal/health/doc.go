// Package health holds the liveness and readiness probes served on the ops
// port.
//
// A [Probe] is checked per request: nil means pass, an error is the reason
// for failing. Probes compose with [All]. [ShutdownGate] fails
// readiness while the server drains, and [ContentLoaded] fails it until a
// content snapshot is active.
package health
