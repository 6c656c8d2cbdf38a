package page

import (
	"bytes"
	"context"
	"io"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	g "maragu.dev/gomponents"
	c "maragu.dev/gomponents/components"
	h "maragu.dev/gomponents/html"

	"github.com/keithlinneman/linnemanlabs-sections/internal/atoms"
	"github.com/keithlinneman/linnemanlabs-sections/internal/sections"
	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

const (
	DefaultStylesheet = "/static/site.css"
	DefaultScript     = "/static/slideshow.js"

	tracerName = "linnemanlabs/page"

	bodyClass  = "min-h-screen bg-white text-gray-900 antialiased"
	proseClass = "prose max-w-3xl mx-auto px-6 py-12"
)

type Renderer struct {
	Sections   *sections.Renderer
	Stylesheet string
	Script     string
}

func NewRenderer(sr *sections.Renderer) *Renderer {
	if sr == nil {
		sr = sections.NewRenderer(nil, nil, 0)
	}
	return &Renderer{Sections: sr, Stylesheet: DefaultStylesheet, Script: DefaultScript}
}

// Render writes the complete document for p. Nothing is written when
// rendering fails.
func (r *Renderer) Render(ctx context.Context, w io.Writer, site *Site, p *Page) error {
	ctx, span := otel.Tracer(tracerName).Start(ctx, "page.render")
	defer span.End()
	span.SetAttributes(
		attribute.String("page.slug", p.Slug),
		attribute.Int("page.sections", len(p.Sections)),
	)

	var buf bytes.Buffer
	if err := r.document(ctx, site, p).Render(&buf); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return xerrors.Wrapf(err, "render page %s", p.Slug)
	}
	_, err := buf.WriteTo(w)
	return err
}

func (r *Renderer) Document(site *Site, p *Page) g.Node {
	return r.document(context.Background(), site, p)
}

func (r *Renderer) document(ctx context.Context, site *Site, p *Page) g.Node {
	if site == nil {
		site = &Site{Language: "en"}
	}
	desc := p.Description
	if desc == "" {
		desc = site.Description
	}
	return c.HTML5(c.HTML5Props{
		Title:       documentTitle(site, p),
		Description: desc,
		Language:    site.Language,
		Head: []g.Node{
			g.If(r.Stylesheet != "", h.Link(h.Rel("stylesheet"), h.Href(r.Stylesheet))),
			g.If(r.Script != "", h.Script(h.Src(r.Script), h.Defer())),
		},
		Body: []g.Node{
			h.Class(bodyClass),
			header(site),
			h.Main(
				r.SectionNodes(ctx, p),
				g.If(p.Body != "", r.Sections.Markdown.Node(p.Body, proseClass)),
			),
			footer(site),
		},
	})
}

// SectionNodes renders the page's sections in document order. Each section
// gets a section.render span under ctx when it is written.
func (r *Renderer) SectionNodes(ctx context.Context, p *Page) g.Node {
	nodes := make([]g.Node, 0, len(p.Sections))
	for i, s := range p.Sections {
		var n g.Node
		switch {
		case s.Generic != nil:
			n = r.Sections.Generic(*s.Generic)
		case s.Hero != nil:
			n = r.Sections.Hero(*s.Hero)
		default:
			continue
		}
		nodes = append(nodes, tracedSection(ctx, i, s.Type, n))
	}
	return g.Group(nodes)
}

func tracedSection(ctx context.Context, index int, typ string, n g.Node) g.Node {
	return g.NodeFunc(func(w io.Writer) error {
		_, span := otel.Tracer(tracerName).Start(ctx, "section.render")
		defer span.End()
		span.SetAttributes(
			attribute.String("section.type", typ),
			attribute.Int("section.index", index),
		)
		if err := n.Render(w); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			return err
		}
		return nil
	})
}

func documentTitle(site *Site, p *Page) string {
	switch {
	case p.Title == "":
		return site.Title
	case site.Title == "" || p.Title == site.Title:
		return p.Title
	default:
		return p.Title + " | " + site.Title
	}
}

func header(site *Site) g.Node {
	if site.Title == "" && len(site.Nav) == 0 {
		return nil
	}
	return h.Header(h.Class("flex items-center justify-between px-8 py-4"),
		g.If(site.Title != "", h.A(h.Href("/"), h.Class("text-lg font-semibold"), g.Text(site.Title))),
		g.If(len(site.Nav) > 0, h.Nav(h.Class("flex items-center gap-6"),
			g.Map(site.Nav, atoms.Action),
		)),
	)
}

func footer(site *Site) g.Node {
	if site.Footer == "" {
		return nil
	}
	return h.Footer(h.Class("px-8 py-6 text-sm text-gray-500"), g.Text(site.Footer))
}
