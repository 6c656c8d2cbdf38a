package registry

import (
	"net/url"
	"strings"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/keithlinneman/linnemanlabs-sections/internal/dataattrs"
	"github.com/keithlinneman/linnemanlabs-sections/internal/styles"
)

const blockRoot = "sb-component sb-component-block"

// ImageBlock renders an image with an optional caption.
func ImageBlock(m Media, annotations bool) g.Node {
	src := m.String("url")
	if src == "" {
		return nil
	}
	img := h.Img(
		g.If(m.String("elementId") != "", h.ID(m.String("elementId"))),
		h.Class(styles.Join(blockRoot, "sb-component-image-block w-full h-auto", m.String("className"))),
		h.Src(src),
		h.Alt(m.String("altText")),
		g.Attr("loading", "lazy"),
		dataattrs.FieldPath(annotations, "media"),
	)
	caption := m.String("caption")
	if caption == "" {
		return img
	}
	return g.El("figure",
		img,
		g.El("figcaption", h.Class("mt-2 text-sm text-gray-600"), g.Text(caption)),
	)
}

// VideoBlock renders YouTube and Vimeo urls as embedded players and anything
// else as a native video element. autoplay implies muted.
func VideoBlock(m Media, annotations bool) g.Node {
	raw := m.String("url")
	if raw == "" {
		return nil
	}
	autoplay := m.Bool("autoplay", false)
	loop := m.Bool("loop", false)
	muted := m.Bool("muted", false) || autoplay
	controls := m.Bool("controls", true)
	title := m.String("title")
	if title == "" {
		title = "Video"
	}

	wrapper := func(children ...g.Node) g.Node {
		return h.Div(
			g.If(m.String("elementId") != "", h.ID(m.String("elementId"))),
			h.Class(styles.Join(blockRoot, "sb-component-video-block relative w-full overflow-hidden", aspectClass(m.String("aspectRatio")))),
			dataattrs.FieldPath(annotations, "media"),
			g.Group(children),
		)
	}

	if embed, ok := embedURL(raw, autoplay, loop, muted, controls); ok {
		return wrapper(g.El("iframe",
			h.Class("absolute inset-0 w-full h-full"),
			h.Src(embed),
			g.Attr("title", title),
			g.Attr("allow", "autoplay; fullscreen; picture-in-picture"),
			g.Attr("allowfullscreen"),
			g.Attr("frameborder", "0"),
		))
	}
	return wrapper(g.El("video",
		h.Class("absolute inset-0 w-full h-full object-cover"),
		h.Src(raw),
		g.If(autoplay, g.Attr("autoplay")),
		g.If(loop, g.Attr("loop")),
		g.If(muted, g.Attr("muted")),
		g.If(controls, g.Attr("controls")),
		g.Attr("playsinline"),
	))
}

func aspectClass(ratio string) string {
	switch ratio {
	case "4:3":
		return "aspect-[4/3]"
	case "1:1":
		return "aspect-square"
	case "3:4":
		return "aspect-[3/4]"
	default:
		return "aspect-video"
	}
}

// embedURL maps YouTube and Vimeo page urls to their player urls.
func embedURL(raw string, autoplay, loop, muted, controls bool) (string, bool) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}
	host := strings.TrimPrefix(strings.ToLower(u.Host), "www.")

	var base, id string
	switch host {
	case "youtube.com", "m.youtube.com":
		id = u.Query().Get("v")
		base = "https://www.youtube.com/embed/"
	case "youtu.be":
		id = strings.Trim(u.Path, "/")
		base = "https://www.youtube.com/embed/"
	case "vimeo.com":
		id = strings.Trim(u.Path, "/")
		base = "https://player.vimeo.com/video/"
	default:
		return "", false
	}
	if id == "" || strings.Contains(id, "/") {
		return "", false
	}

	q := url.Values{}
	flag := func(k string, v bool) {
		if v {
			q.Set(k, "1")
		} else {
			q.Set(k, "0")
		}
	}
	flag("autoplay", autoplay)
	flag("loop", loop)
	flag("controls", controls)
	if strings.HasPrefix(base, "https://www.youtube.com") {
		flag("mute", muted)
		if loop {
			q.Set("playlist", id)
		}
	} else {
		flag("muted", muted)
	}
	return base + url.PathEscape(id) + "?" + q.Encode(), true
}
