// Package sections renders the page sections: the layout wrapper every
// section sits in, the generic content section and the hero slideshow.
//
// Each component first reduces its props to a layout record with a pure
// Decide function and then renders that record, so layout branching can be
// tested without parsing markup.
package sections

import (
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/keithlinneman/linnemanlabs-sections/internal/atoms"
	"github.com/keithlinneman/linnemanlabs-sections/internal/dataattrs"
	"github.com/keithlinneman/linnemanlabs-sections/internal/styles"
)

const (
	sectionRoot     = "sb-component sb-component-section relative"
	defaultColors   = "bg-light-fg-dark"
	defaultPadding  = "px-4 py-28"
	heroRoot        = "w-screen max-w-none p-0 m-0 overflow-hidden"
	heroInner       = "relative w-full h-full"
	cappedInner     = "relative w-full max-w-7xl mx-auto"
	backgroundLayer = "absolute inset-0 w-full h-full object-cover z-0"
	minHeightScreen = "screen"
	heightFull      = "full"
)

// SectionProps are the inputs of the layout wrapper.
type SectionProps struct {
	ElementID       string
	ClassName       string
	Colors          string
	BackgroundImage *styles.BackgroundImage
	Styles          styles.Self
	DataAttrs       dataattrs.Attrs
	Children        []g.Node
}

// SectionLayout is the wrapper's layout decision.
type SectionLayout struct {
	Hero       bool
	RootClass  string
	InnerClass string
	Background *styles.BackgroundImage
}

// IsHero reports whether the wrapper renders full bleed. Any one of the
// signals is enough, checked in order: the explicit flag, a screen min
// height, a full height, a background url in the styles, a direct
// background image.
func IsHero(p SectionProps) bool {
	s := p.Styles
	return s.IsHero ||
		s.MinHeight == minHeightScreen ||
		s.Height == heightFull ||
		s.BackgroundURL() != "" ||
		(p.BackgroundImage != nil && p.BackgroundImage.URL != "")
}

func DecideSection(p SectionProps) SectionLayout {
	hero := IsHero(p)

	colors := p.Colors
	if colors == "" {
		colors = defaultColors
	}

	var sizing string
	switch {
	case hero:
		sizing = heroRoot
	case len(p.Styles.Padding) > 0:
		sizing = styles.ClassNames(styles.Options{Padding: p.Styles.Padding})
	default:
		sizing = defaultPadding
	}

	var margin string
	if len(p.Styles.Margin) > 0 {
		margin = styles.ClassNames(styles.Options{Margin: p.Styles.Margin})
	}

	inner := cappedInner
	if hero {
		inner = heroInner
	}

	return SectionLayout{
		Hero:       hero,
		RootClass:  styles.Join(sectionRoot, p.ClassName, colors, sizing, margin),
		InnerClass: inner,
		Background: p.BackgroundImage,
	}
}

// Section wraps children in the sized container.
func Section(p SectionProps) g.Node {
	return renderSection(p, DecideSection(p))
}

func renderSection(p SectionProps, l SectionLayout) g.Node {
	var bg g.Node
	if l.Background != nil {
		bg = atoms.BackgroundImage(*l.Background, backgroundLayer)
	}
	return h.Div(
		g.If(p.ElementID != "", h.ID(p.ElementID)),
		h.Class(l.RootClass),
		p.DataAttrs.Nodes(),
		bg,
		h.Div(h.Class(l.InnerClass), g.Group(p.Children)),
	)
}
