package content

import (
	"io/fs"
	"time"

	"github.com/keithlinneman/linnemanlabs-sections/internal/page"
)

type Snapshot struct {
	FS       fs.FS
	Meta     Meta
	Site     *page.Site
	Pages    map[string]*page.Page
	LoadedAt time.Time
}

// Page looks up a page by normalized slug.
func (s *Snapshot) Page(slug string) (*page.Page, bool) {
	if s == nil {
		return nil, false
	}
	p, ok := s.Pages[page.NormalizeSlug(slug)]
	return p, ok
}

// Version prefers the version recorded at load time over site.yaml.
func (s *Snapshot) Version() string {
	if s.Meta.Version != "" {
		return s.Meta.Version
	}
	if s.Site != nil {
		return s.Site.Version
	}
	return ""
}
