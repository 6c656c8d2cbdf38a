package sections

import (
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/keithlinneman/linnemanlabs-sections/internal/atoms"
	"github.com/keithlinneman/linnemanlabs-sections/internal/slideshow"
)

// document fields

func TestHeroProps_YAML(t *testing.T) {
	tests := []struct {
		name     string
		src      string
		images   []string
		title    string
		subtitle string
	}{
		{
			name:   "scalar image",
			src:    "image: /a.jpg\ntitle:\n  text: Hi\n",
			images: []string{"/a.jpg"},
			title:  "Hi",
		},
		{
			name:     "sequence and string subtitle",
			src:      "image: [/a.jpg, /b.jpg, '']\nsubtitle: plain\n",
			images:   []string{"/a.jpg", "/b.jpg", ""},
			subtitle: "plain",
		},
		{
			name:   "blank scalar image is one slide",
			src:    "image: ''\n",
			images: []string{""},
		},
		{
			name:     "subtitle mapping",
			src:      "subtitle:\n  text: wrapped\n",
			subtitle: "wrapped",
		},
		{
			name:  "absent image",
			src:   "title: bare\n",
			title: "bare",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p HeroSectionProps
			if err := yaml.Unmarshal([]byte(tt.src), &p); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if len(p.Image) != len(tt.images) || strings.Join(p.Image, ",") != strings.Join(tt.images, ",") {
				t.Errorf("images = %q, want %q", p.Image, tt.images)
			}
			if p.Title.Text != tt.title || p.Subtitle.Text != tt.subtitle {
				t.Errorf("title/subtitle = %q / %q", p.Title.Text, p.Subtitle.Text)
			}
		})
	}
}

func TestDecideHero_BlankImageIsActive(t *testing.T) {
	var p HeroSectionProps
	if err := yaml.Unmarshal([]byte("image: ''\n"), &p); err != nil {
		t.Fatal(err)
	}
	l := DecideHero(p, 0)
	if l.Empty || len(l.Layers) != 1 || l.Layers[0].Opacity != 1 {
		t.Fatalf("layout = %+v", l)
	}
	out := render(t, HeroSection(p))
	if strings.Contains(out, EmptyHeading) || !strings.Contains(out, `data-slide-count="1"`) {
		t.Fatalf("blank image rendered the empty shell: %s", out)
	}
}

func TestHeroProps_YAMLNullAction(t *testing.T) {
	var p HeroSectionProps
	src := "actions:\n  - ~\n  - label: Docs\n    url: /docs\n"
	if err := yaml.Unmarshal([]byte(src), &p); err != nil {
		t.Fatal(err)
	}
	l := DecideHero(p, 0)
	if l.Primary != nil || l.Secondary == nil || l.Secondary.Label != "Docs" {
		t.Fatalf("slots = %+v / %+v", l.Primary, l.Secondary)
	}
}

// decisions

func TestDecideHero_LayerAtCurrentTwo(t *testing.T) {
	l := DecideHero(HeroSectionProps{Image: Images("/a", "/b", "/c")}, 2)
	if l.Layers[0].Offset != -2 || l.Layers[0].Transform != "translateX(-200%)" || l.Layers[0].Opacity != 0 {
		t.Fatalf("layer 0 = %+v", l.Layers[0])
	}
	if l.Layers[2].Opacity != 1 {
		t.Fatalf("layer 2 = %+v", l.Layers[2])
	}
	if l.Interval != slideshow.DefaultInterval {
		t.Fatalf("interval = %s", l.Interval)
	}
}

func TestLayerStyle(t *testing.T) {
	got := LayerStyle("/a.jpg", slideshow.LayerAt(1, 0))
	want := "background-image: url('/a.jpg'); background-size: cover; background-position: center; position: absolute; inset: 0; " +
		"transform: translateX(100%); opacity: 0; transition: transform 1200ms ease, opacity 1200ms ease; " +
		"will-change: transform, opacity; pointer-events: none"
	if got != want {
		t.Fatalf("got  %s\nwant %s", got, want)
	}
}

// rendering

func TestHeroSection_Empty(t *testing.T) {
	out := render(t, HeroSection(HeroSectionProps{Title: Text{Text: "ignored"}}))
	want := `<section class="relative w-full h-screen flex items-center">` +
		`<div class="absolute inset-0 bg-gray-800"></div>` +
		`<div class="relative z-10 max-w-4xl pl-8 px-6 text-left text-white"><h1 class="text-4xl font-bold">No hero images found</h1></div>` +
		`</section>`
	if out != want {
		t.Fatalf("got  %s\nwant %s", out, want)
	}
	if strings.Contains(out, "data-slideshow") {
		t.Fatal("empty hero must not mount the slideshow")
	}
}

func TestHeroSection_Active(t *testing.T) {
	out := render(t, HeroSection(HeroSectionProps{
		ElementID: "top",
		Image:     Images("/a.jpg", "/b.jpg", "/c.jpg"),
		Title:     Text{Text: "Build"},
		Subtitle:  Text{Text: "Faster"},
		Interval:  5 * time.Second,
	}))
	for _, w := range []string{
		`id="top"`,
		`data-slideshow="hero"`,
		`data-slide-count="3"`,
		`data-slide-interval="5000"`,
		`data-slide-index="2"`,
		"translateX(0%); opacity: 1",
		"translateX(200%); opacity: 0",
		">Build</h1>",
		`<p class="text-xl mb-8">Faster</p>`,
		"2,635", "projects done", "129", "total clients", "30+", "designers",
	} {
		if !strings.Contains(out, w) {
			t.Errorf("missing %q", w)
		}
	}
	if strings.Count(out, "data-slide-index=") != 3 {
		t.Fatal("want one layer per image")
	}
	if strings.Contains(out, "Get Started") || strings.Contains(out, "Learn More") {
		t.Fatal("no actions means no buttons")
	}
}

func TestHeroSection_NoSubtitle(t *testing.T) {
	out := render(t, HeroSection(HeroSectionProps{Image: Images("/a.jpg")}))
	if strings.Contains(out, "text-xl mb-8") {
		t.Fatal("subtitle paragraph without subtitle")
	}
}

func TestHeroSection_OnlyFirstAction(t *testing.T) {
	out := render(t, HeroSection(HeroSectionProps{
		Image:   Images("/a.jpg"),
		Actions: []*atoms.ActionProps{{URL: "/start"}},
	}))
	if !strings.Contains(out, `href="/start"`) || !strings.Contains(out, ">Get Started</a>") {
		t.Fatalf("primary button missing: %s", out)
	}
	if strings.Contains(out, "border-white/40") || strings.Contains(out, "<svg") {
		t.Fatal("outlined button must be absent")
	}
}

func TestHeroSection_BothActions(t *testing.T) {
	out := render(t, HeroSection(HeroSectionProps{
		Image:   Images("/a.jpg"),
		Actions: []*atoms.ActionProps{{Label: "Go", URL: "/go"}, {URL: "/more"}, {Label: "Ignored", URL: "/x"}},
	}))
	for _, w := range []string{">Go</a>", "<span>Learn More</span>", `d="M13.5 4.5l6 6m0 0l-6 6m6-6H4.5"`} {
		if !strings.Contains(out, w) {
			t.Errorf("missing %q", w)
		}
	}
	if strings.Contains(out, "Ignored") {
		t.Fatal("only two action slots are rendered")
	}
}

func TestRenderer_HeroInterval(t *testing.T) {
	r := NewRenderer(nil, nil, 4*time.Second)
	out := render(t, r.Hero(HeroSectionProps{Image: Images("/a.jpg")}))
	if !strings.Contains(out, `data-slide-interval="4000"`) {
		t.Fatalf("renderer interval not applied: %s", out)
	}
}

func TestRenderer_LocalSlides(t *testing.T) {
	props := HeroSectionProps{Image: Images("/a.jpg", "/b.jpg")}

	served := render(t, NewRenderer(nil, nil, 0).Hero(props))
	if strings.Contains(served, "data-slide-driver") {
		t.Fatalf("served hero marked local: %s", served)
	}

	r := NewRenderer(nil, nil, 1500*time.Millisecond)
	r.LocalSlides = true
	out := render(t, r.Hero(props))
	for _, want := range []string{`data-slide-driver="local"`, `data-slide-interval="1500"`, `data-slide-count="2"`} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q", want)
		}
	}
}
