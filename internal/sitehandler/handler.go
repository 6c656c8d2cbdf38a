package sitehandler

import (
	"bytes"
	"io/fs"
	"net/http"
	"time"

	"github.com/keithlinneman/linnemanlabs-sections/internal/content"
	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
	"github.com/keithlinneman/linnemanlabs-sections/internal/page"
)

// Render results recorded in metrics.
const (
	ResultOK       = "ok"
	ResultNotFound = "not_found"
	ResultError    = "error"
)

// Handler serves pages from the active content snapshot.
type Handler struct {
	opts Options
}

func New(opts Options) (*Handler, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Handler{opts: opts}, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		w.Header().Set("Allow", "GET, HEAD")
		w.Header().Set("Cache-Control", "no-store")
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	snap, ok := h.opts.Content.Get()
	if !ok {
		h.serveMaintenance(w, r)
		return
	}

	slug, redirectTo, ok := resolveSlug(r.URL.Path)
	if redirectTo != "" {
		if q := r.URL.RawQuery; q != "" {
			redirectTo += "?" + q
		}
		http.Redirect(w, r, redirectTo, http.StatusPermanentRedirect)
		return
	}
	if !ok {
		h.serveNotFound(w, r, snap)
		return
	}

	if p, found := snap.Page(slug); found {
		w.Header().Set("Cache-Control", h.opts.PageCacheControl)
		h.renderPage(w, r, snap, p, http.StatusOK)
		return
	}

	if name, isAsset := assetName(h.opts.AssetsDir, slug); isAsset && existsFile(snap.FS, name) {
		w.Header().Set("Cache-Control", cacheControlForFile(name, &h.opts))
		http.ServeFileFS(w, r, snap.FS, name)
		return
	}

	h.serveNotFound(w, r, snap)
}

// renderPage buffers the document so a failed render can still answer 500.
func (h *Handler) renderPage(w http.ResponseWriter, r *http.Request, snap *content.Snapshot, p *page.Page, status int) {
	ctx := r.Context()
	start := time.Now()

	var buf bytes.Buffer
	err := h.opts.Pages.Render(ctx, &buf, snap.Site, p)
	elapsed := time.Since(start).Seconds()

	if err != nil {
		h.observe(ResultError, elapsed, nil)
		log.FromContext(ctx).Error(ctx, err, "render page",
			"page.slug", p.Slug,
			"page.source", p.Source,
		)
		w.Header().Set("Cache-Control", "no-store")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	result := ResultOK
	if status == http.StatusNotFound {
		result = ResultNotFound
	}
	h.observe(result, elapsed, p)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if r.Method != http.MethodHead {
		_, _ = w.Write(buf.Bytes())
	}
}

func (h *Handler) observe(result string, seconds float64, p *page.Page) {
	m := h.opts.Metrics
	if m == nil {
		return
	}
	m.ObservePageRender(result, seconds)
	if p == nil {
		return
	}
	for _, s := range p.Sections {
		m.IncSectionRendered(s.Type)
	}
}

func (h *Handler) serveMaintenance(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Retry-After", "60")
	serveFileWithStatus(w, r, http.StatusServiceUnavailable, h.opts.FallbackFS, h.opts.MaintenanceFile)
}

func (h *Handler) serveNotFound(w http.ResponseWriter, r *http.Request, snap *content.Snapshot) {
	w.Header().Set("Cache-Control", "no-store")

	// the site's own 404 page keeps the layout and navigation
	if p, ok := snap.Page(h.opts.NotFoundSlug); ok {
		h.renderPage(w, r, snap, p, http.StatusNotFound)
		return
	}
	if existsFile(h.opts.FallbackFS, h.opts.Fallback404File) {
		serveFileWithStatus(w, r, http.StatusNotFound, h.opts.FallbackFS, h.opts.Fallback404File)
		return
	}
	http.Error(w, "404 page not found", http.StatusNotFound)
}

// statusOverrideWriter replaces the first status http.ServeFileFS writes so
// a fallback file can be served as 404 or 503.
type statusOverrideWriter struct {
	http.ResponseWriter
	status      int
	wroteHeader bool
}

func (w *statusOverrideWriter) WriteHeader(code int) {
	if w.wroteHeader {
		return
	}
	w.wroteHeader = true
	w.ResponseWriter.WriteHeader(w.status)
}

func (w *statusOverrideWriter) Write(b []byte) (int, error) {
	if !w.wroteHeader {
		w.WriteHeader(w.status)
	}
	return w.ResponseWriter.Write(b)
}

func serveFileWithStatus(w http.ResponseWriter, r *http.Request, status int, fsys fs.FS, name string) {
	// conditional headers would turn the forced status into a 304
	r2 := r.Clone(r.Context())
	r2.Header.Del("If-Modified-Since")
	r2.Header.Del("If-None-Match")
	r2.Header.Del("Range")
	http.ServeFileFS(&statusOverrideWriter{ResponseWriter: w, status: status}, r2, fsys, name)
}
