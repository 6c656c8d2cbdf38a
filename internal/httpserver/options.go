package httpserver

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/linnemanlabs-sections/internal/health"
	"github.com/keithlinneman/linnemanlabs-sections/internal/httpmw"
	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
)

const (
	DefaultPort = 8080

	// DefaultMaxBodyBytes caps request bodies. The site only serves GET and
	// HEAD; nothing should be sending a body.
	DefaultMaxBodyBytes = 1024

	RequestIDHeader = httpmw.DefaultRequestIDHeader
	TraceIDHeader   = "X-Trace-Id"
	SpanIDHeader    = "X-Span-Id"
)

type Options struct {
	Logger       log.Logger
	Port         int
	UseRecoverMW bool
	OnPanic      httpmw.PanicCounter
	MetricsMW    func(http.Handler) http.Handler
	RateLimitMW  func(http.Handler) http.Handler
	ClientIPOpts httpmw.ClientIPOptions
	CSP          httpmw.CSPOptions

	// Health and Readiness are also exposed on the public port for load
	// balancer checks. nil leaves the route unregistered.
	Health    health.Probe
	Readiness health.Probe

	// ContentInfo stamps X-Content-Bundle-Version and X-Content-Hash.
	ContentInfo httpmw.ContentInfo

	// Routes registers the site's routes. It runs last and is expected to
	// install the NotFound fallback.
	Routes func(chi.Router)

	MaxBodyBytes int64
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.Port == 0 {
		o.Port = DefaultPort
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = DefaultMaxBodyBytes
	}
	if o.CSP.FrameSources == nil && o.CSP.ImageSources == nil {
		o.CSP = httpmw.DefaultCSPOptions()
	}
}
