// Package styles maps the abstract style options carried in page documents
// to Tailwind class names.
package styles

import "strings"

// Options are the style keys understood by ClassNames. Padding and Margin are
// lists of utility classes used as-is; the remaining keys are enum values
// translated through the tables below.
type Options struct {
	Padding        []string `yaml:"padding"`
	Margin         []string `yaml:"margin"`
	AlignItems     string   `yaml:"alignItems"`
	JustifyContent string   `yaml:"justifyContent"`
	FlexDirection  string   `yaml:"flexDirection"`
	TextAlign      string   `yaml:"textAlign"`
	FontWeight     string   `yaml:"fontWeight"`
	FontStyle      string   `yaml:"fontStyle"`
	BorderRadius   string   `yaml:"borderRadius"`
	BoxShadow      string   `yaml:"boxShadow"`
	Width          string   `yaml:"width"`
}

// BackgroundImage describes an image painted behind a section.
type BackgroundImage struct {
	URL      string  `yaml:"url"`
	AltText  string  `yaml:"altText"`
	Size     string  `yaml:"backgroundSize"`
	Position string  `yaml:"backgroundPosition"`
	Repeat   string  `yaml:"backgroundRepeat"`
	Opacity  float64 `yaml:"opacity"`
}

// Self is the style block a section applies to its own root element.
type Self struct {
	Options `yaml:",inline"`

	IsHero          bool             `yaml:"isHero"`
	MinHeight       string           `yaml:"minHeight"`
	Height          string           `yaml:"height"`
	BackgroundImage *BackgroundImage `yaml:"backgroundImage"`

	BackgroundSize     string `yaml:"backgroundSize"`
	BackgroundPosition string `yaml:"backgroundPosition"`
	BackgroundRepeat   string `yaml:"backgroundRepeat"`
}

// BackgroundURL returns the background image url or "".
func (s Self) BackgroundURL() string {
	if s.BackgroundImage == nil {
		return ""
	}
	return strings.TrimSpace(s.BackgroundImage.URL)
}

// Styles is the full styles block of a section: the root plus per-element
// overrides.
type Styles struct {
	Self     Self    `yaml:"self"`
	Title    Options `yaml:"title"`
	Subtitle Options `yaml:"subtitle"`
	Text     Options `yaml:"text"`
}

var (
	alignItems = map[string]string{
		"flex-start": "items-start",
		"flex-end":   "items-end",
		"center":     "items-center",
		"stretch":    "items-stretch",
		"baseline":   "items-baseline",
	}
	justifyContent = map[string]string{
		"flex-start":    "justify-start",
		"flex-end":      "justify-end",
		"center":        "justify-center",
		"space-between": "justify-between",
		"space-around":  "justify-around",
	}
	flexDirection = map[string]string{
		"row":         "flex-row",
		"row-reverse": "flex-row-reverse",
		"col":         "flex-col",
		"col-reverse": "flex-col-reverse",
	}
	textAlign = map[string]string{
		"left":    "text-left",
		"center":  "text-center",
		"right":   "text-right",
		"justify": "text-justify",
	}
	fontWeight = map[string]string{
		"400": "font-normal",
		"500": "font-medium",
		"600": "font-semibold",
		"700": "font-bold",
	}
	fontStyle = map[string]string{
		"italic": "italic",
		"normal": "not-italic",
	}
	borderRadius = map[string]string{
		"none":    "rounded-none",
		"x-small": "rounded-sm",
		"small":   "rounded",
		"medium":  "rounded-md",
		"large":   "rounded-lg",
		"x-large": "rounded-xl",
		"full":    "rounded-full",
	}
	boxShadow = map[string]string{
		"none":    "shadow-none",
		"x-small": "shadow-sm",
		"small":   "shadow",
		"medium":  "shadow-md",
		"large":   "shadow-lg",
		"x-large": "shadow-xl",
	}
	width = map[string]string{
		"narrow": "w-full max-w-3xl",
		"wide":   "w-full max-w-5xl",
		"full":   "w-full",
	}
)

// ClassNames renders o as a class string in a fixed key order. Unknown enum
// values are dropped.
func ClassNames(o Options) string {
	parts := make([]string, 0, len(o.Padding)+len(o.Margin)+9)
	parts = append(parts, o.Padding...)
	parts = append(parts, o.Margin...)
	parts = append(parts,
		alignItems[o.AlignItems],
		justifyContent[o.JustifyContent],
		flexDirection[o.FlexDirection],
		textAlign[o.TextAlign],
		fontWeight[o.FontWeight],
		fontStyle[o.FontStyle],
		borderRadius[o.BorderRadius],
		boxShadow[o.BoxShadow],
		width[o.Width],
	)
	return Join(parts...)
}

// Join concatenates the non-empty class fragments in order, collapsing
// surrounding whitespace.
func Join(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p)
	}
	return b.String()
}

// If returns class when cond holds, else "".
func If(cond bool, class string) string {
	if cond {
		return class
	}
	return ""
}
