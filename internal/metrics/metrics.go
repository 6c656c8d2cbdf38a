// Package metrics owns the Prometheus registry served on the ops port.
// Labels are kept to bounded sets: method, route pattern, status, section
// type, error kind.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/keithlinneman/linnemanlabs-sections/internal/version"
)

type ServerMetrics struct {
	reg     *prometheus.Registry
	handler http.Handler

	buildInfo       *prometheus.GaugeVec
	profilingActive prometheus.Gauge

	// http
	inflight       prometheus.Gauge
	reqTotal       *prometheus.CounterVec
	reqDur         *prometheus.HistogramVec
	respBytes      *prometheus.HistogramVec
	errorsTotal    *prometheus.CounterVec
	httpPanicTotal prometheus.Counter
	rateLimited    prometheus.Counter
	rateCapacity   prometheus.Counter

	// rendering
	pageRenders     *prometheus.CounterVec
	pageRenderDur   prometheus.Histogram
	sectionsDrawn   *prometheus.CounterVec
	slideSessions   prometheus.Gauge
	slideSessionsTt prometheus.Counter
	slideFrames     prometheus.Counter

	// content
	contentSource    *prometheus.GaugeVec
	contentLoadedTs  prometheus.Gauge
	contentBundle    *prometheus.GaugeVec
	contentPages     prometheus.Gauge
	watcherPolls     prometheus.Counter
	watcherSwaps     prometheus.Counter
	watcherErrors    *prometheus.CounterVec
	bundleLoadDur    prometheus.Histogram
	watcherLastOK    prometheus.Gauge
	watcherStaleness prometheus.Gauge
}

// New builds a private registry with the Go and process collectors and all
// application metrics.
func New() *ServerMetrics {
	m := &ServerMetrics{
		buildInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "build_info",
			Help: "Build metadata (value is always 1)",
		}, []string{"app", "component", "version", "commit", "commit_date", "build_id", "build_date", "vcs_dirty", "go_version"}),
		profilingActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "profiling_active",
			Help: "Whether continuous profiling is running (1) or not (0)",
		}),
	}
	m.initHTTP()
	m.initRender()
	m.initContent()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.buildInfo,
		m.profilingActive,
		m.inflight,
		m.reqTotal,
		m.reqDur,
		m.respBytes,
		m.errorsTotal,
		m.httpPanicTotal,
		m.rateLimited,
		m.rateCapacity,
		m.pageRenders,
		m.pageRenderDur,
		m.sectionsDrawn,
		m.slideSessions,
		m.slideSessionsTt,
		m.slideFrames,
		m.contentSource,
		m.contentLoadedTs,
		m.contentBundle,
		m.contentPages,
		m.watcherPolls,
		m.watcherSwaps,
		m.watcherErrors,
		m.bundleLoadDur,
		m.watcherLastOK,
		m.watcherStaleness,
	)
	m.reg = reg
	m.handler = promhttp.HandlerFor(reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
	return m
}

func (m *ServerMetrics) Handler() http.Handler { return m.handler }

// Registry is exposed for tests and extra collectors.
func (m *ServerMetrics) Registry() *prometheus.Registry { return m.reg }

// SetBuildInfoFromVersion is called once at startup.
func (m *ServerMetrics) SetBuildInfoFromVersion(component string, vi version.Info) {
	dirty := "unknown"
	if vi.VCSDirty != nil {
		dirty = strconv.FormatBool(*vi.VCSDirty)
	}
	m.buildInfo.With(prometheus.Labels{
		"app":         vi.App,
		"component":   component,
		"version":     vi.Version,
		"commit":      vi.Commit,
		"commit_date": vi.CommitDate,
		"build_id":    vi.BuildID,
		"build_date":  vi.BuildDate,
		"go_version":  vi.GoVersion,
		"vcs_dirty":   dirty,
	}).Set(1)
}

func (m *ServerMetrics) SetProfilingActive(active bool) { m.profilingActive.Set(boolGauge(active)) }

func boolGauge(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
