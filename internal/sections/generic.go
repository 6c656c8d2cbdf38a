package sections

import (
	"io"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/keithlinneman/linnemanlabs-sections/internal/atoms"
	"github.com/keithlinneman/linnemanlabs-sections/internal/dataattrs"
	"github.com/keithlinneman/linnemanlabs-sections/internal/markdown"
	"github.com/keithlinneman/linnemanlabs-sections/internal/registry"
	"github.com/keithlinneman/linnemanlabs-sections/internal/styles"
)

const (
	genericRoot     = "sb-component-generic-section relative overflow-hidden"
	genericHeroRoot = "p-0 m-0 max-w-none"
	heroBgLayer     = "absolute inset-0 w-full h-full z-0"
	heroOverlay     = "absolute inset-0 z-[1] bg-black/40"
	contentLayer    = "relative z-10 flex items-center justify-center min-h-[90vh] px-10"
	heroColumn      = "w-full text-white px-10"
	flexContainer   = "w-full flex items-stretch self-stretch gap-x-12 gap-y-16"
	textBlock       = "w-full max-w-sectionBody"
	textBlockNarrow = "lg:max-w-[27.5rem]"
	mediaBlock      = "w-full lg:w-[57.5%] lg:shrink-0"
	actionsRow      = "flex gap-4 mt-8"
)

type GenericSectionProps struct {
	ElementID         string              `yaml:"elementId"`
	Colors            string              `yaml:"colors"`
	Badge             *atoms.BadgeProps   `yaml:"badge"`
	Title             *atoms.TitleProps   `yaml:"title"`
	Subtitle          string              `yaml:"subtitle"`
	Text              string              `yaml:"text"`
	Actions           []atoms.ActionProps `yaml:"actions"`
	Media             *registry.Media     `yaml:"media"`
	Styles            styles.Styles       `yaml:"styles"`
	EnableAnnotations bool                `yaml:"enableAnnotations"`
	DataAttrs         dataattrs.Attrs     `yaml:"-"`
}

// GenericLayout is the generic section's layout decision.
type GenericLayout struct {
	Hero     bool
	HasText  bool
	HasMedia bool

	RootClass      string
	ContainerClass string
	TextClass      string
	TitleClass     string
	SubtitleClass  string
	BodyClass      string

	// BackgroundStyle is the inline style of the hero background layer.
	BackgroundStyle string
}

// HasTextContent reports whether any text-block field is set.
func HasTextContent(p GenericSectionProps) bool {
	return (p.Badge != nil && p.Badge.Label != "") ||
		(p.Title != nil && p.Title.Text != "") ||
		p.Subtitle != "" ||
		p.Text != "" ||
		len(p.Actions) > 0
}

// FlexDirectionClasses maps a flex direction option to the responsive
// container classes. Unknown values stack vertically.
func FlexDirectionClasses(dir string) string {
	switch dir {
	case "row":
		return "flex-col lg:flex-row lg:justify-between"
	case "row-reverse":
		return "flex-col lg:flex-row-reverse lg:justify-between"
	default:
		return "flex-col"
	}
}

// DecideGeneric derives the layout. Hero mode is signalled only by a
// background url under styles.self and never shows media.
func DecideGeneric(p GenericSectionProps) GenericLayout {
	self := p.Styles.Self
	bgURL := self.BackgroundURL()
	hero := bgURL != ""
	hasMedia := p.Media != nil
	badgeLabel := p.Badge != nil && p.Badge.Label != ""

	l := GenericLayout{
		Hero:      hero,
		HasText:   HasTextContent(p),
		HasMedia:  hasMedia,
		RootClass: styles.Join(genericRoot, styles.If(hero, genericHeroRoot)),
	}

	if hero {
		l.ContainerClass = heroColumn
		l.TextClass = "w-full"
		l.BackgroundStyle = heroBackgroundStyle(bgURL, self)
	} else {
		dir := self.FlexDirection
		if dir == "" {
			dir = "row"
		}
		align := self.JustifyContent
		if align == "" {
			align = "flex-start"
		}
		l.ContainerClass = styles.Join(flexContainer, FlexDirectionClasses(dir), styles.ClassNames(styles.Options{AlignItems: align}))
		l.TextClass = styles.Join(textBlock, styles.If(hasMedia, textBlockNarrow))
	}

	l.TitleClass = styles.Join(styles.If(badgeLabel, "mt-4"), styles.If(hero, "text-white"))
	l.SubtitleClass = styles.Join("mt-4", pickText(hero, "text-gray-800"), styles.ClassNames(p.Styles.Subtitle))
	l.BodyClass = styles.Join("mt-6", pickText(hero, "text-gray-700"), styles.ClassNames(p.Styles.Text))
	return l
}

func pickText(hero bool, normal string) string {
	if hero {
		return "text-white"
	}
	return normal
}

func heroBackgroundStyle(url string, self styles.Self) string {
	size, pos, repeat := self.BackgroundSize, self.BackgroundPosition, self.BackgroundRepeat
	if bg := self.BackgroundImage; bg != nil {
		size = firstNonEmpty(size, bg.Size)
		pos = firstNonEmpty(pos, bg.Position)
		repeat = firstNonEmpty(repeat, bg.Repeat)
	}
	return "background-image: " + atoms.CSSURL(url) +
		"; background-size: " + firstNonEmpty(size, "cover") +
		"; background-position: " + firstNonEmpty(pos, "center") +
		"; background-repeat: " + firstNonEmpty(repeat, "no-repeat")
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}

// GenericSection renders p inside the layout wrapper. The wrapper receives
// styles.self, so its style-based hero signals apply; no direct background
// image is passed.
func GenericSection(p GenericSectionProps, reg *registry.Registry, md *markdown.Renderer) g.Node {
	l := DecideGeneric(p)

	var text g.Node
	if l.HasText {
		text = h.Div(h.Class(l.TextClass), textChildren(p, l, md))
	}

	var media g.Node
	if !l.Hero && l.HasMedia {
		media = h.Div(h.Class(mediaBlock), mediaNode(*p.Media, p.EnableAnnotations, reg))
	}

	return Section(SectionProps{
		ElementID: p.ElementID,
		ClassName: l.RootClass,
		Colors:    p.Colors,
		Styles:    p.Styles.Self,
		DataAttrs: p.DataAttrs,
		Children: []g.Node{
			g.If(l.Hero, h.Div(h.Class(heroBgLayer), g.Attr("style", l.BackgroundStyle))),
			g.If(l.Hero, h.Div(h.Class(heroOverlay))),
			h.Div(h.Class(contentLayer),
				h.Div(h.Class(l.ContainerClass), text, media),
			),
		},
	})
}

func textChildren(p GenericSectionProps, l GenericLayout, md *markdown.Renderer) g.Node {
	var nodes []g.Node
	if p.Badge != nil {
		nodes = append(nodes, atoms.Badge(*p.Badge))
	}
	if p.Title != nil {
		nodes = append(nodes, atoms.TitleBlock(*p.Title, l.TitleClass))
	}
	if p.Subtitle != "" {
		nodes = append(nodes, h.P(h.Class(l.SubtitleClass), g.Text(p.Subtitle)))
	}
	if p.Text != "" {
		nodes = append(nodes, md.Node(p.Text, l.BodyClass))
	}
	if len(p.Actions) > 0 {
		nodes = append(nodes, h.Div(h.Class(actionsRow), g.Map(p.Actions, atoms.Action)))
	}
	return g.Group(nodes)
}

// mediaNode resolves the renderer when the tree is rendered. A lookup
// failure is returned from Render unchanged.
func mediaNode(m registry.Media, annotations bool, reg *registry.Registry) g.Node {
	return g.NodeFunc(func(w io.Writer) error {
		c, err := reg.Lookup(m.Type)
		if err != nil {
			return err
		}
		n := c.Render(m, annotations)
		if n == nil {
			return nil
		}
		return n.Render(w)
	})
}
