// Package markdown renders section body text with goldmark.
//
// Raw HTML embedded in the source is omitted from the output; page authors
// get GitHub-flavoured markdown only.
package markdown

import (
	"bytes"
	"io"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

type Renderer struct {
	md goldmark.Markdown
}

func New() *Renderer {
	return &Renderer{md: goldmark.New(
		goldmark.WithExtensions(extension.GFM, extension.Typographer),
		goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	)}
}

var (
	defaultOnce sync.Once
	defaultR    *Renderer
)

// Default returns a shared Renderer. goldmark instances are safe for
// concurrent use.
func Default() *Renderer {
	defaultOnce.Do(func() { defaultR = New() })
	return defaultR
}

// Render converts src to HTML.
func (r *Renderer) Render(src string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(src), &buf); err != nil {
		return "", xerrors.Wrap(err, "convert markdown")
	}
	return buf.String(), nil
}

// Node renders src inside a div carrying class. Conversion happens when the
// node is rendered and its error propagates out of Render.
func (r *Renderer) Node(src, class string) g.Node {
	return h.Div(
		g.If(class != "", h.Class(class)),
		g.NodeFunc(func(w io.Writer) error {
			return r.md.Convert([]byte(src), w)
		}),
	)
}
