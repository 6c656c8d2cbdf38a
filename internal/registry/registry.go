// Package registry resolves media renderers by the model name carried in a
// section's media field.
package registry

import (
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"

	g "maragu.dev/gomponents"
)

// ErrUnknownComponent is returned by Lookup for names nothing registered.
var ErrUnknownComponent = errors.New("unknown component")

// Media is a media reference from a page document: the model name used for
// dispatch plus every field the document set on it.
type Media struct {
	Type   string
	Fields map[string]any
}

// String returns the named field as a string, or "".
func (m Media) String(key string) string {
	switch v := m.Fields[key].(type) {
	case string:
		return v
	case int:
		return strconv.Itoa(v)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	}
	return ""
}

// Bool returns the named field as a bool, or def when unset or not a bool.
func (m Media) Bool(key string, def bool) bool {
	if v, ok := m.Fields[key].(bool); ok {
		return v
	}
	return def
}

// Component renders one media model.
type Component interface {
	Render(m Media, annotations bool) g.Node
}

// ComponentFunc adapts a function to Component.
type ComponentFunc func(m Media, annotations bool) g.Node

func (f ComponentFunc) Render(m Media, annotations bool) g.Node { return f(m, annotations) }

type Registry struct {
	mu         sync.RWMutex
	components map[string]Component
}

func New() *Registry {
	return &Registry{components: make(map[string]Component)}
}

// Default returns a registry holding the built-in media blocks.
func Default() *Registry {
	r := New()
	r.MustRegister("ImageBlock", ComponentFunc(ImageBlock))
	r.MustRegister("VideoBlock", ComponentFunc(VideoBlock))
	return r
}

// Register adds c under name. Registering a name twice is an error.
func (r *Registry) Register(name string, c Component) error {
	if name == "" {
		return errors.New("register component: empty name")
	}
	if c == nil {
		return fmt.Errorf("register component %q: nil component", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.components[name]; dup {
		return fmt.Errorf("register component %q: already registered", name)
	}
	r.components[name] = c
	return nil
}

func (r *Registry) MustRegister(name string, c Component) {
	if err := r.Register(name, c); err != nil {
		panic(err)
	}
}

// Lookup returns the component registered under name. Unknown names yield an
// error wrapping ErrUnknownComponent.
func (r *Registry) Lookup(name string) (Component, error) {
	r.mu.RLock()
	c, ok := r.components[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownComponent, name)
	}
	return c, nil
}

// Names lists the registered names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.components))
	for k := range r.components {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// UnmarshalYAML reads the model name from the type key and keeps every key
// in Fields.
func (m *Media) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	typ, _ := raw["type"].(string)
	if typ == "" {
		return errors.New("media: missing type")
	}
	m.Type = typ
	m.Fields = raw
	return nil
}
