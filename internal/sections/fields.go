package sections

import (
	"strings"
)

// Text is a document field written either as a plain string or as a
// mapping with a text key.
type Text struct {
	Text string
}

func (t *Text) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		t.Text = s
		return nil
	}
	var m struct {
		Text string `yaml:"text"`
	}
	if err := unmarshal(&m); err != nil {
		return err
	}
	t.Text = m.Text
	return nil
}

// ImageList is an ordered list of image urls written either as a single
// scalar or as a sequence. A present scalar is always one slide, even when
// blank; only an absent field is empty.
type ImageList []string

func (l *ImageList) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err == nil {
		*l = Images(s)
		return nil
	}
	var xs []string
	if err := unmarshal(&xs); err != nil {
		return err
	}
	*l = Images(xs...)
	return nil
}

// Images normalizes urls into an ImageList, trimming surrounding space.
func Images(urls ...string) ImageList {
	if len(urls) == 0 {
		return nil
	}
	out := make(ImageList, len(urls))
	for i, u := range urls {
		out[i] = strings.TrimSpace(u)
	}
	return out
}
