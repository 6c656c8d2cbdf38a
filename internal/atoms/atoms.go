// Package atoms holds the small building blocks sections are composed of.
// Every atom renders nothing when its required content is missing, so
// callers can pass optional document fields straight through.
package atoms

import (
	"strconv"
	"strings"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/keithlinneman/linnemanlabs-sections/internal/styles"
)

const blockRoot = "sb-component sb-component-block"

// Action variants.
const (
	ActionButton = "Button"
	ActionLink   = "Link"

	StylePrimary   = "primary"
	StyleSecondary = "secondary"
)

type ActionProps struct {
	Type      string `yaml:"type"`
	Label     string `yaml:"label"`
	AltText   string `yaml:"altText"`
	URL       string `yaml:"url"`
	Style     string `yaml:"style"`
	ElementID string `yaml:"elementId"`
	ClassName string `yaml:"-"`
}

var buttonStyles = map[string]string{
	StylePrimary:   "sb-component-button-primary bg-primary text-white hover:bg-primary/90",
	StyleSecondary: "sb-component-button-secondary border border-current hover:bg-black/5",
}

// Action renders a call to action as an anchor. Buttons get the button
// chrome; anything else renders as an inline link.
func Action(p ActionProps) g.Node {
	if p.Label == "" && p.URL == "" {
		return nil
	}
	var class string
	if p.Type == ActionLink {
		class = styles.Join(blockRoot, "sb-component-link underline-offset-4 hover:underline", p.ClassName)
	} else {
		variant, ok := buttonStyles[p.Style]
		if !ok {
			variant = buttonStyles[StylePrimary]
		}
		class = styles.Join(blockRoot, "sb-component-button inline-flex items-center justify-center px-5 py-3 rounded-lg font-medium transition", variant, p.ClassName)
	}
	return h.A(
		g.If(p.ElementID != "", h.ID(p.ElementID)),
		g.If(p.URL != "", h.Href(p.URL)),
		g.If(p.AltText != "", g.Attr("aria-label", p.AltText)),
		h.Class(class),
		g.Text(p.Label),
	)
}

type BadgeProps struct {
	Label     string `yaml:"label"`
	Color     string `yaml:"color"`
	ElementID string `yaml:"elementId"`
}

func Badge(p BadgeProps) g.Node {
	if p.Label == "" {
		return nil
	}
	color := p.Color
	if color == "" {
		color = "text-primary"
	}
	return h.Div(
		g.If(p.ElementID != "", h.ID(p.ElementID)),
		h.Class(styles.Join(blockRoot, "sb-component-badge", color)),
		h.Span(h.Class("text-sm font-medium uppercase tracking-wider"), g.Text(p.Label)),
	)
}

type TitleProps struct {
	Text      string      `yaml:"text"`
	Color     string      `yaml:"color"`
	Styles    TitleStyles `yaml:"styles"`
	ElementID string      `yaml:"elementId"`
}

type TitleStyles struct {
	Self styles.Options `yaml:"self"`
}

// TitleBlock renders an h2. class is appended after the block's own classes.
func TitleBlock(p TitleProps, class string) g.Node {
	if p.Text == "" {
		return nil
	}
	return h.H2(
		g.If(p.ElementID != "", h.ID(p.ElementID)),
		h.Class(styles.Join(blockRoot, "sb-component-title text-4xl sm:text-5xl font-bold", p.Color, styles.ClassNames(p.Styles.Self), class)),
		g.Text(p.Text),
	)
}

var (
	bgSize = map[string]string{
		"auto":    "bg-auto",
		"cover":   "bg-cover",
		"contain": "bg-contain",
	}
	bgPosition = map[string]string{
		"bottom":       "bg-bottom",
		"center":       "bg-center",
		"left":         "bg-left",
		"left-bottom":  "bg-left-bottom",
		"left-top":     "bg-left-top",
		"right":        "bg-right",
		"right-bottom": "bg-right-bottom",
		"right-top":    "bg-right-top",
		"top":          "bg-top",
	}
	bgRepeat = map[string]string{
		"repeat":    "bg-repeat",
		"repeat-x":  "bg-repeat-x",
		"repeat-y":  "bg-repeat-y",
		"no-repeat": "bg-no-repeat",
	}
)

// BackgroundImage renders a decorative layer painted with bg. Size, position
// and repeat default to cover, center and no-repeat. Opacity is a percentage;
// zero means fully opaque.
func BackgroundImage(bg styles.BackgroundImage, class string) g.Node {
	if strings.TrimSpace(bg.URL) == "" {
		return nil
	}
	style := "background-image: " + CSSURL(bg.URL)
	if bg.Opacity > 0 && bg.Opacity < 100 {
		style += "; opacity: " + strconv.FormatFloat(bg.Opacity/100, 'f', -1, 64)
	}
	return h.Div(
		h.Class(styles.Join(
			"sb-component sb-component-background-image",
			pick(bgSize, bg.Size, "bg-cover"),
			pick(bgPosition, bg.Position, "bg-center"),
			pick(bgRepeat, bg.Repeat, "bg-no-repeat"),
			class,
		)),
		g.Attr("style", style),
		g.If(bg.AltText != "", g.Attr("aria-label", bg.AltText)),
		g.If(bg.AltText == "", g.Attr("aria-hidden", "true")),
	)
}

func pick(m map[string]string, key, def string) string {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

// CSSURL quotes u for use inside a style attribute, dropping characters that
// could end the url() token.
func CSSURL(u string) string {
	clean := strings.Map(func(r rune) rune {
		switch r {
		case '\'', '"', '\\', '(', ')', '\n', '\r', '\t', ';', '<', '>':
			return -1
		}
		return r
	}, strings.TrimSpace(u))
	return "url('" + clean + "')"
}
