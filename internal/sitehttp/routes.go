package sitehttp

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"io/fs"
	"net/http"
	"path"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/linnemanlabs-sections/internal/httpmw"
	"github.com/keithlinneman/linnemanlabs-sections/internal/pathutil"
	"github.com/keithlinneman/linnemanlabs-sections/internal/slidehttp"
	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

const (
	StaticPrefix = "/static/"

	// Static assets are not fingerprinted, so the ETag does the real work.
	DefaultStaticCacheControl = "public, max-age=300"
)

type Options struct {
	// Site answers everything no other route claims.
	Site http.Handler

	// Static is served under StaticPrefix. nil skips the route.
	Static             fs.FS
	StaticCacheControl string

	// Slideshow is mounted at slidehttp.Path. nil skips the route.
	Slideshow http.Handler
}

type Routes struct {
	site      http.Handler
	slideshow http.Handler
	static    http.Handler
}

// New indexes the static tree up front. A nil Site is an error.
func New(opts Options) (*Routes, error) {
	if opts.Site == nil {
		return nil, xerrors.New("sitehttp: site handler is required")
	}
	rt := &Routes{site: httpmw.Chain(opts.Site, httpmw.Scope("site"))}
	if opts.Slideshow != nil {
		rt.slideshow = httpmw.Chain(opts.Slideshow, httpmw.Scope("slideshow"))
	}
	if opts.Static != nil {
		cc := opts.StaticCacheControl
		if cc == "" {
			cc = DefaultStaticCacheControl
		}
		sf, err := newStaticFiles(opts.Static, cc)
		if err != nil {
			return nil, err
		}
		rt.static = httpmw.Chain(sf, httpmw.Scope("static"))
	}
	return rt, nil
}

// RegisterRoutes must run after every other registrar: the site handler
// becomes the router's NotFound and MethodNotAllowed fallback.
func (rt *Routes) RegisterRoutes(r chi.Router) {
	if rt.slideshow != nil {
		r.Method(http.MethodGet, slidehttp.Path, rt.slideshow)
	}
	if rt.static != nil {
		r.Method(http.MethodGet, StaticPrefix+"*", rt.static)
		r.Method(http.MethodHead, StaticPrefix+"*", rt.static)
	}
	r.NotFound(rt.site.ServeHTTP)
	r.MethodNotAllowed(rt.site.ServeHTTP)
}

type staticFile struct {
	body []byte
	etag string
}

// staticFiles serves a small immutable tree from memory.
type staticFiles struct {
	files        map[string]staticFile
	cacheControl string
}

func newStaticFiles(fsys fs.FS, cacheControl string) (*staticFiles, error) {
	sf := &staticFiles{files: make(map[string]staticFile), cacheControl: cacheControl}
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || pathutil.IsHidden(name) {
			return nil
		}
		b, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		sum := sha256.Sum256(b)
		sf.files[name] = staticFile{body: b, etag: `"` + hex.EncodeToString(sum[:8]) + `"`}
		return nil
	})
	if err != nil {
		return nil, xerrors.Wrap(err, "index static assets")
	}
	return sf, nil
}

func (sf *staticFiles) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, StaticPrefix)
	if name == "" || pathutil.HasDotSegments(name) || path.Clean(name) != name {
		http.NotFound(w, r)
		return
	}
	f, ok := sf.files[name]
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("ETag", f.etag)
	w.Header().Set("Cache-Control", sf.cacheControl)
	http.ServeContent(w, r, name, time.Time{}, bytes.NewReader(f.body))
}
