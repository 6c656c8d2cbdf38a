// Package page parses page documents (markdown with YAML frontmatter) and
// renders them as complete HTML documents.
package page

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/adrg/frontmatter"
	"gopkg.in/yaml.v2"

	"github.com/keithlinneman/linnemanlabs-sections/internal/atoms"
	"github.com/keithlinneman/linnemanlabs-sections/internal/dataattrs"
	"github.com/keithlinneman/linnemanlabs-sections/internal/sections"
	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

var ErrUnknownSection = errors.New("unknown section type")

type Page struct {
	Title       string    `yaml:"title"`
	Description string    `yaml:"description"`
	Slug        string    `yaml:"slug"`
	Layout      string    `yaml:"layout"`
	Draft       bool      `yaml:"draft"`
	Sections    []Section `yaml:"sections"`

	// Body is the markdown after the frontmatter.
	Body string `yaml:"-"`
	// Source is the document path within the content tree.
	Source string `yaml:"-"`
}

// Section is one entry of a page's sections list, decoded by its type key.
// Exactly one of the typed props is set.
type Section struct {
	Type    string
	Generic *sections.GenericSectionProps
	Hero    *sections.HeroSectionProps
}

func (s *Section) UnmarshalYAML(unmarshal func(any) error) error {
	var raw map[string]any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	typ, _ := raw["type"].(string)
	s.Type = typ

	switch typ {
	case sections.TypeGeneric:
		var p sections.GenericSectionProps
		if err := unmarshal(&p); err != nil {
			return fmt.Errorf("%s: %w", typ, err)
		}
		p.DataAttrs = dataattrs.Extract(raw)
		s.Generic = &p
	case sections.TypeHero:
		var p sections.HeroSectionProps
		if err := unmarshal(&p); err != nil {
			return fmt.Errorf("%s: %w", typ, err)
		}
		s.Hero = &p
	default:
		return fmt.Errorf("%w %q", ErrUnknownSection, typ)
	}
	return nil
}

// Parse reads one page document. source is the document's path within the
// content tree and supplies the slug when the frontmatter has none.
func Parse(source string, r io.Reader) (*Page, error) {
	var p Page
	body, err := frontmatter.Parse(r, &p)
	if err != nil {
		return nil, xerrors.Wrapf(err, "parse page %s", source)
	}
	p.Body = string(bytes.TrimSpace(body))
	p.Source = source
	if p.Slug == "" {
		p.Slug = SlugFor(source)
	}
	p.Slug = NormalizeSlug(p.Slug)
	return &p, nil
}

// SlugFor derives a url path from a document path under pages/:
// pages/index.md is "/", pages/about.md is "/about", pages/blog/index.md is
// "/blog".
func SlugFor(source string) string {
	p := strings.TrimPrefix(path.Clean("/"+source), "/pages")
	p = strings.TrimSuffix(p, path.Ext(p))
	if path.Base(p) == "index" {
		p = path.Dir(p)
	}
	return NormalizeSlug(p)
}

// NormalizeSlug returns a clean absolute path without a trailing slash.
func NormalizeSlug(s string) string {
	s = path.Clean("/" + strings.TrimSpace(s))
	if s == "." {
		return "/"
	}
	return s
}

// Site holds site-wide settings from site.yaml.
type Site struct {
	Title       string              `yaml:"title"`
	Description string              `yaml:"description"`
	BaseURL     string              `yaml:"baseURL"`
	Language    string              `yaml:"language"`
	Version     string              `yaml:"version"`
	Nav         []atoms.ActionProps `yaml:"nav"`
	Footer      string              `yaml:"footer"`
}

func ParseSite(data []byte) (*Site, error) {
	var s Site
	if err := yaml.UnmarshalStrict(data, &s); err != nil {
		return nil, xerrors.Wrap(err, "parse site.yaml")
	}
	if s.Language == "" {
		s.Language = "en"
	}
	return &s, nil
}
