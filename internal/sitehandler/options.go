package sitehandler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/keithlinneman/linnemanlabs-sections/internal/content"
	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
	"github.com/keithlinneman/linnemanlabs-sections/internal/page"
)

var ErrInvalidOptions = errors.New("sitehandler: invalid options")

// SnapshotProvider is satisfied by content.Manager.
type SnapshotProvider interface {
	Get() (*content.Snapshot, bool)
}

// PageRenderer is satisfied by page.Renderer.
type PageRenderer interface {
	Render(ctx context.Context, w io.Writer, site *page.Site, p *page.Page) error
}

// Metrics is satisfied by metrics.ServerMetrics.
type Metrics interface {
	ObservePageRender(result string, seconds float64)
	IncSectionRendered(sectionType string)
}

type Options struct {
	Logger  log.Logger
	Content SnapshotProvider
	Pages   PageRenderer
	Metrics Metrics

	// FallbackFS holds the maintenance page and a plain 404 used when the
	// active content has no 404 page of its own.
	FallbackFS      fs.FS
	MaintenanceFile string // default "maintenance.html"
	Fallback404File string // default "404.html"

	// NotFoundSlug is the content page rendered with status 404.
	NotFoundSlug string // default "/404"
	// AssetsDir is the snapshot directory served for URLs with a file
	// extension, so /img/a.jpg reads <AssetsDir>/img/a.jpg.
	AssetsDir string // default "public"

	PageCacheControl  string // default "no-cache"
	AssetCacheControl string // default "public, max-age=31536000, immutable"
	OtherCacheControl string // default "public, max-age=3600"
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.Nop()
	}
	if o.MaintenanceFile == "" {
		o.MaintenanceFile = "maintenance.html"
	}
	if o.Fallback404File == "" {
		o.Fallback404File = "404.html"
	}
	if o.NotFoundSlug == "" {
		o.NotFoundSlug = "/404"
	}
	if o.AssetsDir == "" {
		o.AssetsDir = "public"
	}
	if o.PageCacheControl == "" {
		o.PageCacheControl = "no-cache"
	}
	if o.AssetCacheControl == "" {
		o.AssetCacheControl = "public, max-age=31536000, immutable"
	}
	if o.OtherCacheControl == "" {
		o.OtherCacheControl = "public, max-age=3600"
	}
}

func (o *Options) validate() error {
	if o.Content == nil {
		return fmt.Errorf("%w: Content is nil", ErrInvalidOptions)
	}
	if o.Pages == nil {
		return fmt.Errorf("%w: Pages is nil", ErrInvalidOptions)
	}
	if o.FallbackFS == nil {
		return fmt.Errorf("%w: FallbackFS is nil", ErrInvalidOptions)
	}
	// a missing maintenance page is a packaging bug; fail at boot
	if _, err := fs.Stat(o.FallbackFS, o.MaintenanceFile); err != nil {
		return fmt.Errorf("%w: missing %q in fallback FS: %v", ErrInvalidOptions, o.MaintenanceFile, err)
	}
	return nil
}
