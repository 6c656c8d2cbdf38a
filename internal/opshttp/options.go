package opshttp

import (
	"net/http"

	"github.com/keithlinneman/linnemanlabs-sections/internal/health"
)

const (
	DefaultPort = 9000

	HealthPath  = "/-/healthy"
	ReadyPath   = "/-/ready"
	MetricsPath = "/metrics"
	PprofPath   = "/debug"
)

type Options struct {
	Port        int
	Metrics     http.Handler
	EnablePprof bool
	Health      health.Probe
	Readiness   health.Probe

	// OnPanic is called for every recovered handler panic.
	OnPanic func()

	// AllowPublic serves callers with public source addresses. The admin
	// port is expected to be reachable only from inside the network.
	AllowPublic bool
}

type panicCounterFunc func()

func (f panicCounterFunc) IncHttpPanic() {
	if f != nil {
		f()
	}
}
