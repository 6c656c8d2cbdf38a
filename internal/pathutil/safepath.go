// Package pathutil holds URL path checks shared by the site handlers.
package pathutil

import "strings"

// HasDotSegments reports whether any segment is "." or "..".
func HasDotSegments(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if seg == "." || seg == ".." {
			return true
		}
	}
	return false
}

// IsHidden reports whether any segment starts with a dot, such as
// /.git/config or /img/.DS_Store.
func IsHidden(p string) bool {
	for _, seg := range strings.Split(p, "/") {
		if strings.HasPrefix(seg, ".") {
			return true
		}
	}
	return false
}
