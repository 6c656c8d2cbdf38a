package webassets

import (
	"embed"
	"fmt"
	"io/fs"
)

// fallback/ holds the maintenance and 404 pages served when no content is
// active. seed/ is a complete content tree used when no other source is
// configured. static/ is the stylesheet and slideshow script.
//
//go:embed fallback seed static
var embedded embed.FS

func sub(dir string) fs.FS {
	s, err := fs.Sub(embedded, dir)
	if err != nil {
		panic(fmt.Errorf("webassets: %s subfs: %w", dir, err))
	}
	return s
}

func FallbackFS() fs.FS { return sub("fallback") }

// SeedFS returns the embedded content tree. It has the same layout as a
// content bundle: site.yaml, pages/ and public/.
func SeedFS() fs.FS { return sub("seed") }

func StaticFS() fs.FS { return sub("static") }
