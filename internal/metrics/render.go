package metrics

import "github.com/prometheus/client_golang/prometheus"

func (m *ServerMetrics) initRender() {
	m.pageRenders = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "page_renders_total",
		Help: "Page renders by result (ok, error, not_found)",
	}, []string{"result"})
	m.pageRenderDur = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "page_render_duration_seconds",
		Help:    "Time to render a page document",
		Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25},
	})
	m.sectionsDrawn = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sections_rendered_total",
		Help: "Sections rendered by section type",
	}, []string{"type"})
	m.slideSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "slideshow_sessions_active",
		Help: "Mounted slideshow instances with a live connection",
	})
	m.slideSessionsTt = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slideshow_sessions_total",
		Help: "Slideshow instances mounted",
	})
	m.slideFrames = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "slideshow_frames_total",
		Help: "Slideshow frames pushed to clients",
	})
}

func (m *ServerMetrics) ObservePageRender(result string, seconds float64) {
	m.pageRenders.WithLabelValues(result).Inc()
	if result == "ok" {
		m.pageRenderDur.Observe(seconds)
	}
}

func (m *ServerMetrics) IncSectionRendered(sectionType string) {
	m.sectionsDrawn.WithLabelValues(sectionType).Inc()
}

func (m *ServerMetrics) SlideshowMounted() {
	m.slideSessions.Inc()
	m.slideSessionsTt.Inc()
}

func (m *ServerMetrics) SlideshowUnmounted() { m.slideSessions.Dec() }

func (m *ServerMetrics) IncSlideshowFrames() { m.slideFrames.Inc() }
