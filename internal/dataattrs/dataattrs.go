// Package dataattrs picks pass-through data-* attributes out of a section's
// raw document fields so they can be spread onto the rendered root element.
package dataattrs

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"

	g "maragu.dev/gomponents"
)

// validName matches the names Nodes may emit. gomponents writes attribute
// names unescaped.
var validName = regexp.MustCompile(`^data-[a-z0-9_.:-]+$`)

// Attrs maps attribute name to value.
type Attrs map[string]string

// Extract returns every data-* key of props whose value is a scalar.
// Nested maps and lists are skipped, as are names outside
// lowercase letters, digits and "_.:-".
func Extract(props map[string]any) Attrs {
	out := Attrs{}
	for k, v := range props {
		if !validName.MatchString(k) {
			continue
		}
		if s, ok := scalar(v); ok {
			out[k] = s
		}
	}
	return out
}

func scalar(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case bool:
		return strconv.FormatBool(x), true
	case int, int64, int32, uint, uint64, uint32:
		return fmt.Sprint(x), true
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), true
	}
	return "", false
}

// Nodes renders the attributes sorted by name for stable markup.
func (a Attrs) Nodes() g.Node {
	if len(a) == 0 {
		return nil
	}
	keys := make([]string, 0, len(a))
	for k := range a {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	nodes := make([]g.Node, 0, len(keys))
	for _, k := range keys {
		if !validName.MatchString(k) {
			continue
		}
		nodes = append(nodes, g.Attr(k, a[k]))
	}
	return g.Group(nodes)
}

// FieldPath marks an element with the document field it was rendered from.
// Emits nothing unless annotations are enabled.
func FieldPath(enabled bool, path string) g.Node {
	if !enabled || path == "" {
		return nil
	}
	return g.Attr("data-sb-field-path", path)
}
