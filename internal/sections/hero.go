package sections

import (
	"strconv"
	"strings"
	"time"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/keithlinneman/linnemanlabs-sections/internal/atoms"
	"github.com/keithlinneman/linnemanlabs-sections/internal/slideshow"
)

const (
	heroEmptyRoot    = "relative w-full h-screen flex items-center"
	heroEmptyContent = "relative z-10 max-w-4xl pl-8 px-6 text-left text-white"
	heroActiveRoot   = "relative w-full h-screen overflow-hidden flex items-center"
	heroContent      = "relative z-10 max-w-4xl pl-32 pr-6 text-left text-white"
	heroGradient     = "background: linear-gradient(90deg, rgba(0,0,0,0.7) 0%, rgba(0,0,0,0.45) 40%, rgba(0,0,0,0.0) 100%)"
	primaryButton    = "bg-white text-black font-medium py-3 px-6 rounded-lg text-lg hover:bg-gray-200 transition"
	outlineButton    = "inline-flex items-center gap-3 border border-white/40 text-white font-medium py-3 px-5 rounded-lg text-lg bg-white/5 hover:bg-white/10 transition"

	DefaultPrimaryLabel   = "Get Started"
	DefaultSecondaryLabel = "Learn More"
	EmptyHeading          = "No hero images found"
)

type HeroSectionProps struct {
	ElementID string               `yaml:"elementId"`
	Image     ImageList            `yaml:"image"`
	Title     Text                 `yaml:"title"`
	Subtitle  Text                 `yaml:"subtitle"`
	Actions   []*atoms.ActionProps `yaml:"actions"`

	// Interval is the advance period announced to the client; zero means
	// slideshow.DefaultInterval.
	Interval time.Duration `yaml:"-"`

	// LocalTimer marks markup that has no slideshow endpoint behind it, so
	// the client advances on its own timer.
	LocalTimer bool `yaml:"-"`
}

// Stat is one of the fixed callouts under the hero actions.
type Stat struct {
	Value string
	Label string
}

// Stats are static decorative content.
var Stats = []Stat{
	{"2,635", "projects done"},
	{"129", "total clients"},
	{"30+", "designers"},
}

// HeroLayout is the hero's render decision for one current index.
type HeroLayout struct {
	Empty      bool
	Images     []string
	Layers     []slideshow.Layer
	Primary    *atoms.ActionProps
	Secondary  *atoms.ActionProps
	Interval   time.Duration
	LocalTimer bool
}

// DecideHero places every slide relative to current. Only the first two
// action slots are used and each renders only when populated.
func DecideHero(p HeroSectionProps, current int) HeroLayout {
	interval := p.Interval
	if interval <= 0 {
		interval = slideshow.DefaultInterval
	}
	l := HeroLayout{
		Empty:      len(p.Image) == 0,
		Images:     p.Image,
		Layers:     slideshow.Layers(len(p.Image), current),
		Interval:   interval,
		LocalTimer: p.LocalTimer,
	}
	if len(p.Actions) > 0 {
		l.Primary = p.Actions[0]
	}
	if len(p.Actions) > 1 {
		l.Secondary = p.Actions[1]
	}
	return l
}

// LayerStyle is the inline style of one slide layer.
func LayerStyle(image string, l slideshow.Layer) string {
	return strings.Join([]string{
		"background-image: " + atoms.CSSURL(image),
		"background-size: cover",
		"background-position: center",
		"position: absolute",
		"inset: 0",
		"transform: " + l.Transform,
		"opacity: " + strconv.Itoa(l.Opacity),
		"transition: " + slideshow.Transition,
		"will-change: transform, opacity",
		"pointer-events: none",
	}, "; ")
}

// HeroSection renders the slideshow at its mount state, current index 0.
// The client script advances it from frames pushed by the server, or on a
// local timer when LocalTimer is set.
func HeroSection(p HeroSectionProps) g.Node {
	return renderHero(p, DecideHero(p, 0))
}

func renderHero(p HeroSectionProps, l HeroLayout) g.Node {
	id := g.If(p.ElementID != "", h.ID(p.ElementID))
	if l.Empty {
		return h.Section(id,
			h.Class(heroEmptyRoot),
			h.Div(h.Class("absolute inset-0 bg-gray-800")),
			h.Div(h.Class(heroEmptyContent),
				h.H1(h.Class("text-4xl font-bold"), g.Text(EmptyHeading)),
			),
		)
	}

	return h.Section(id,
		h.Class(heroActiveRoot),
		g.Attr("data-slideshow", "hero"),
		g.Attr("data-slide-count", strconv.Itoa(len(l.Layers))),
		g.Attr("data-slide-interval", strconv.FormatInt(l.Interval.Milliseconds(), 10)),
		g.If(l.LocalTimer, g.Attr("data-slide-driver", "local")),
		h.Div(h.Class("absolute inset-0 overflow-hidden"),
			g.Map(l.Layers, func(layer slideshow.Layer) g.Node {
				return h.Div(
					g.Attr("data-slide-index", strconv.Itoa(layer.Index)),
					g.Attr("style", LayerStyle(l.Images[layer.Index], layer)),
				)
			}),
		),
		h.Div(h.Class("absolute inset-0"), g.Attr("style", heroGradient)),
		h.Div(h.Class(heroContent),
			h.H1(h.Class("text-5xl font-bold leading-tight mb-6"), g.Text(p.Title.Text)),
			g.If(p.Subtitle.Text != "", h.P(h.Class("text-xl mb-8"), g.Text(p.Subtitle.Text))),
			h.Div(h.Class("flex items-center gap-4 mt-6"),
				primaryAction(l.Primary),
				secondaryAction(l.Secondary),
			),
			statsRow(),
		),
	)
}

func primaryAction(a *atoms.ActionProps) g.Node {
	if a == nil {
		return nil
	}
	return h.A(
		g.If(a.URL != "", h.Href(a.URL)),
		h.Class(primaryButton),
		g.Text(labelOr(a.Label, DefaultPrimaryLabel)),
	)
}

func secondaryAction(a *atoms.ActionProps) g.Node {
	if a == nil {
		return nil
	}
	return h.A(
		g.If(a.URL != "", h.Href(a.URL)),
		h.Class(outlineButton),
		h.Span(g.Text(labelOr(a.Label, DefaultSecondaryLabel))),
		arrowIcon(),
	)
}

func arrowIcon() g.Node {
	return g.El("svg",
		g.Attr("xmlns", "http://www.w3.org/2000/svg"),
		g.Attr("fill", "none"),
		g.Attr("viewBox", "0 0 24 24"),
		g.Attr("stroke-width", "1.5"),
		g.Attr("stroke", "currentColor"),
		h.Class("w-5 h-5"),
		g.Attr("aria-hidden", "true"),
		g.El("path",
			g.Attr("stroke-linecap", "round"),
			g.Attr("stroke-linejoin", "round"),
			g.Attr("d", "M13.5 4.5l6 6m0 0l-6 6m6-6H4.5"),
		),
	)
}

func statsRow() g.Node {
	return h.Div(h.Class("mt-12 flex items-center gap-12 text-white"),
		g.Map(Stats, func(s Stat) g.Node {
			return h.Div(h.Class("flex items-start gap-4"),
				h.Div(h.Class("w-[1.5px] h-14 bg-white/60")),
				h.Div(
					h.Div(h.Class("text-3xl font-semibold"), g.Text(s.Value)),
					h.Div(h.Class("text-sm text-gray-300"), g.Text(s.Label)),
				),
			)
		}),
	)
}

func labelOr(label, def string) string {
	if label == "" {
		return def
	}
	return label
}
