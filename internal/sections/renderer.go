package sections

import (
	"time"

	g "maragu.dev/gomponents"

	"github.com/keithlinneman/linnemanlabs-sections/internal/markdown"
	"github.com/keithlinneman/linnemanlabs-sections/internal/registry"
)

// Section type names as written in page documents.
const (
	TypeGeneric = "GenericSection"
	TypeHero    = "HeroSection"
)

// Renderer carries the collaborators sections need at render time.
type Renderer struct {
	Registry      *registry.Registry
	Markdown      *markdown.Renderer
	SlideInterval time.Duration

	// LocalSlides renders heroes for pages served without the slideshow
	// endpoint.
	LocalSlides bool
}

// NewRenderer fills nil collaborators with the package defaults.
func NewRenderer(reg *registry.Registry, md *markdown.Renderer, slideInterval time.Duration) *Renderer {
	if reg == nil {
		reg = registry.Default()
	}
	if md == nil {
		md = markdown.Default()
	}
	return &Renderer{Registry: reg, Markdown: md, SlideInterval: slideInterval}
}

func (r *Renderer) Generic(p GenericSectionProps) g.Node {
	return GenericSection(p, r.Registry, r.Markdown)
}

func (r *Renderer) Hero(p HeroSectionProps) g.Node {
	if p.Interval <= 0 {
		p.Interval = r.SlideInterval
	}
	if r.LocalSlides {
		p.LocalTimer = true
	}
	return HeroSection(p)
}
