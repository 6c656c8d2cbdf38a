package registry

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v2"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

func render(t *testing.T, n g.Node) string {
	t.Helper()
	if n == nil {
		return ""
	}
	var buf bytes.Buffer
	if err := n.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	return buf.String()
}

func media(typ string, kv ...any) Media {
	m := Media{Type: typ, Fields: map[string]any{}}
	for i := 0; i+1 < len(kv); i += 2 {
		m.Fields[kv[i].(string)] = kv[i+1]
	}
	return m
}

// Registry

func TestDefault_Names(t *testing.T) {
	got := strings.Join(Default().Names(), ",")
	if got != "ImageBlock,VideoBlock" {
		t.Fatalf("Names = %s", got)
	}
}

func TestLookup_Unknown(t *testing.T) {
	_, err := Default().Lookup("CarouselBlock")
	if !errors.Is(err, ErrUnknownComponent) {
		t.Fatalf("err = %v, want ErrUnknownComponent", err)
	}
	if !strings.Contains(err.Error(), `"CarouselBlock"`) {
		t.Fatalf("err should name the model: %v", err)
	}
}

func TestRegister(t *testing.T) {
	r := New()
	stub := ComponentFunc(func(Media, bool) g.Node { return h.Span(g.Text("stub")) })

	if err := r.Register("Stub", stub); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := r.Register("Stub", stub); err == nil {
		t.Fatal("duplicate Register should fail")
	}
	if err := r.Register("", stub); err == nil {
		t.Fatal("empty name should fail")
	}
	if err := r.Register("Nil", nil); err == nil {
		t.Fatal("nil component should fail")
	}

	c, err := r.Lookup("Stub")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if got := render(t, c.Render(Media{}, false)); got != "<span>stub</span>" {
		t.Fatalf("rendered %s", got)
	}
}

func TestMustRegister_Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic")
		}
	}()
	r := Default()
	r.MustRegister("ImageBlock", ComponentFunc(ImageBlock))
}

func TestMediaAccessors(t *testing.T) {
	m := media("X", "s", "v", "n", 3, "f", 1.5, "b", true)
	if m.String("s") != "v" || m.String("n") != "3" || m.String("f") != "1.5" || m.String("b") != "true" {
		t.Fatalf("String accessors: %+v", m.Fields)
	}
	if m.String("missing") != "" {
		t.Fatal("missing should be empty")
	}
	if !m.Bool("b", false) || m.Bool("s", false) || !m.Bool("missing", true) {
		t.Fatal("Bool accessors")
	}
}

// ImageBlock

func TestImageBlock(t *testing.T) {
	if ImageBlock(media("ImageBlock"), false) != nil {
		t.Fatal("no url should render nothing")
	}

	got := render(t, ImageBlock(media("ImageBlock", "url", "/a.png", "altText", "A"), true))
	for _, w := range []string{`src="/a.png"`, `alt="A"`, `loading="lazy"`, "sb-component-image-block", `data-sb-field-path="media"`} {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q in %s", w, got)
		}
	}
	if strings.Contains(got, "<figure>") {
		t.Errorf("no caption should mean no figure: %s", got)
	}

	got = render(t, ImageBlock(media("ImageBlock", "url", "/a.png", "caption", "Team"), false))
	if !strings.HasPrefix(got, "<figure><img") || !strings.Contains(got, ">Team</figcaption></figure>") {
		t.Errorf("caption: %s", got)
	}
	if strings.Contains(got, "data-sb-field-path") {
		t.Errorf("annotations disabled: %s", got)
	}
}

// VideoBlock

func TestVideoBlock(t *testing.T) {
	tests := []struct {
		name string
		m    Media
		want []string
		not  []string
	}{
		{
			name: "youtube watch",
			m:    media("VideoBlock", "url", "https://www.youtube.com/watch?v=abc123", "autoplay", true),
			want: []string{`src="https://www.youtube.com/embed/abc123?autoplay=1&amp;controls=1&amp;loop=0&amp;mute=1"`, "<iframe", "aspect-video"},
		},
		{
			name: "youtu.be loop",
			m:    media("VideoBlock", "url", "https://youtu.be/xyz", "loop", true),
			want: []string{"embed/xyz?", "playlist=xyz"},
		},
		{
			name: "vimeo",
			m:    media("VideoBlock", "url", "https://vimeo.com/12345", "aspectRatio", "4:3"),
			want: []string{"https://player.vimeo.com/video/12345?", "muted=0", "aspect-[4/3]"},
		},
		{
			name: "native",
			m:    media("VideoBlock", "url", "/v.mp4", "controls", false, "autoplay", true),
			want: []string{"<video", `src="/v.mp4"`, " autoplay", " muted", " playsinline"},
			not:  []string{" controls", "<iframe"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, VideoBlock(tt.m, false))
			for _, w := range tt.want {
				if !strings.Contains(got, w) {
					t.Errorf("missing %q in %s", w, got)
				}
			}
			for _, n := range tt.not {
				if strings.Contains(got, n) {
					t.Errorf("unexpected %q in %s", n, got)
				}
			}
		})
	}
	if VideoBlock(media("VideoBlock"), false) != nil {
		t.Fatal("no url should render nothing")
	}
}

func TestMedia_UnmarshalYAML(t *testing.T) {
	var doc struct {
		Media *Media `yaml:"media"`
	}
	src := "media:\n  type: ImageBlock\n  url: /a.png\n  altText: A\n"
	if err := yaml.Unmarshal([]byte(src), &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.Media == nil || doc.Media.Type != "ImageBlock" || doc.Media.String("url") != "/a.png" {
		t.Fatalf("media = %+v", doc.Media)
	}

	if err := yaml.Unmarshal([]byte("media:\n  url: /a.png\n"), &doc); err == nil {
		t.Fatal("media without type should fail")
	}
}
