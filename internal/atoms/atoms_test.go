package atoms

import (
	"bytes"
	"strings"
	"testing"

	g "maragu.dev/gomponents"

	"github.com/keithlinneman/linnemanlabs-sections/internal/styles"
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

// Action

func TestAction(t *testing.T) {
	tests := []struct {
		name string
		in   ActionProps
		want []string
		not  []string
	}{
		{
			name: "primary button default",
			in:   ActionProps{Label: "Contact", URL: "/contact"},
			want: []string{`href="/contact"`, "sb-component-button ", "sb-component-button-primary", ">Contact</a>"},
		},
		{
			name: "secondary button",
			in:   ActionProps{Type: ActionButton, Label: "More", URL: "/more", Style: StyleSecondary},
			want: []string{"sb-component-button-secondary"},
			not:  []string{"sb-component-button-primary"},
		},
		{
			name: "unknown style falls back to primary",
			in:   ActionProps{Label: "x", URL: "/", Style: "neon"},
			want: []string{"sb-component-button-primary"},
		},
		{
			name: "link",
			in:   ActionProps{Type: ActionLink, Label: "Read", URL: "/blog", ElementID: "cta"},
			want: []string{`id="cta"`, "sb-component-link"},
			not:  []string{"sb-component-button"},
		},
		{
			name: "alt text and extra class",
			in:   ActionProps{Label: "Go", URL: "/", AltText: "Go home", ClassName: "ml-2"},
			want: []string{`aria-label="Go home"`, "ml-2"},
		},
		{
			name: "label escaped",
			in:   ActionProps{Label: "<b>", URL: "/"},
			want: []string{"&lt;b&gt;"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := render(t, Action(tt.in))
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
}

func TestAction_Empty(t *testing.T) {
	if Action(ActionProps{}) != nil {
		t.Fatal("empty action should render nothing")
	}
}

// Badge / TitleBlock

func TestBadge(t *testing.T) {
	if Badge(BadgeProps{}) != nil {
		t.Fatal("badge without label should render nothing")
	}
	got := render(t, Badge(BadgeProps{Label: "New"}))
	if !strings.Contains(got, "sb-component-badge text-primary") || !strings.Contains(got, ">New</span>") {
		t.Fatalf("got %s", got)
	}
	got = render(t, Badge(BadgeProps{Label: "New", Color: "text-white"}))
	if !strings.Contains(got, "sb-component-badge text-white") {
		t.Fatalf("color not applied: %s", got)
	}
}

func TestTitleBlock(t *testing.T) {
	if TitleBlock(TitleProps{}, "mt-4") != nil {
		t.Fatal("title without text should render nothing")
	}
	p := TitleProps{Text: "Hello", Styles: TitleStyles{Self: styles.Options{TextAlign: "center"}}}
	got := render(t, TitleBlock(p, "mt-4 text-white"))
	if !strings.HasPrefix(got, "<h2 ") || !strings.Contains(got, ">Hello</h2>") {
		t.Fatalf("got %s", got)
	}
	if !strings.Contains(got, `text-center mt-4 text-white"`) {
		t.Fatalf("class order: %s", got)
	}
}

// BackgroundImage

func TestBackgroundImage(t *testing.T) {
	if BackgroundImage(styles.BackgroundImage{}, "x") != nil {
		t.Fatal("no url should render nothing")
	}

	got := render(t, BackgroundImage(styles.BackgroundImage{URL: "/bg.jpg"}, "absolute inset-0"))
	for _, w := range []string{"bg-cover bg-center bg-no-repeat absolute inset-0", "background-image: url(&#39;/bg.jpg&#39;)", `aria-hidden="true"`} {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q in %s", w, got)
		}
	}

	got = render(t, BackgroundImage(styles.BackgroundImage{URL: "/bg.jpg", Size: "contain", Position: "top", Repeat: "repeat-x", Opacity: 50, AltText: "city"}, ""))
	for _, w := range []string{"bg-contain bg-top bg-repeat-x", "opacity: 0.5", `aria-label="city"`} {
		if !strings.Contains(got, w) {
			t.Errorf("missing %q in %s", w, got)
		}
	}
}

func TestCSSURL(t *testing.T) {
	tests := []struct{ in, want string }{
		{"/a.jpg", "url('/a.jpg')"},
		{"  https://x/y.png ", "url('https://x/y.png')"},
		{"a');background:red;('", "url('abackground:red')"},
	}
	for _, tt := range tests {
		if got := CSSURL(tt.in); got != tt.want {
			t.Errorf("CSSURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
