package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func (m *ServerMetrics) initContent() {
	m.contentSource = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "content_source_info",
		Help: "Active content source (label carries the value, gauge is always 1)",
	}, []string{"source"})
	m.contentLoadedTs = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "content_loaded_timestamp_seconds",
		Help: "Unix time the active content was loaded",
	})
	m.contentBundle = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "content_bundle_info",
		Help: "Active content digest (label carries identity, value is always 1)",
	}, []string{"sha256"})
	m.contentPages = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "content_pages",
		Help: "Pages in the active content",
	})
	m.watcherPolls = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "content_watcher_polls_total",
		Help: "Watcher poll or reload cycles",
	})
	m.watcherSwaps = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "content_watcher_swaps_total",
		Help: "Successful content swaps",
	})
	m.watcherErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "content_watcher_errors_total",
		Help: "Watcher errors by kind",
	}, []string{"type"})
	m.bundleLoadDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "content_bundle_load_duration_seconds",
		Help:    "Time to fetch, verify and index content",
		Buckets: []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
	})
	m.watcherLastOK = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "content_watcher_last_success_timestamp_seconds",
		Help: "Unix time of the last successful poll",
	})
	m.watcherStaleness = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "content_watcher_stale",
		Help: "Whether content freshness cannot be verified (1) or not (0)",
	})
}

// SetContent records identity of the snapshot that just became active.
func (m *ServerMetrics) SetContent(source, sha256 string, pages int, loadedAt time.Time) {
	m.contentSource.Reset()
	m.contentSource.WithLabelValues(source).Set(1)
	m.contentBundle.Reset()
	m.contentBundle.WithLabelValues(sha256).Set(1)
	m.contentPages.Set(float64(pages))
	m.contentLoadedTs.Set(float64(loadedAt.Unix()))
}

func (m *ServerMetrics) IncWatcherPolls()                      { m.watcherPolls.Inc() }
func (m *ServerMetrics) IncWatcherSwaps()                      { m.watcherSwaps.Inc() }
func (m *ServerMetrics) IncWatcherError(kind string)           { m.watcherErrors.WithLabelValues(kind).Inc() }
func (m *ServerMetrics) ObserveBundleLoadDuration(sec float64) { m.bundleLoadDur.Observe(sec) }
func (m *ServerMetrics) SetWatcherLastSuccess(unix float64)    { m.watcherLastOK.Set(unix) }
func (m *ServerMetrics) SetWatcherStale(stale bool)            { m.watcherStaleness.Set(boolGauge(stale)) }
