package sitehandler

import (
	"io/fs"
	"path"
	"strings"

	"github.com/keithlinneman/linnemanlabs-sections/internal/pathutil"
)

// resolveSlug maps a URL path to a page slug. A trailing slash is not
// canonical: the caller should redirect to redirectTo. ok is false for
// paths that can never name content.
func resolveSlug(urlPath string) (slug, redirectTo string, ok bool) {
	p := urlPath
	if p == "" {
		p = "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if strings.ContainsAny(p, "\x00\\") || strings.Contains(p, "..") || pathutil.HasDotSegments(p) {
		return "", "", false
	}

	clean := path.Clean(p)
	if clean != "/" && strings.HasSuffix(p, "/") {
		return "", clean, true
	}
	if p != clean {
		// duplicate slashes
		return "", clean, true
	}
	return clean, "", true
}

// assetName maps a slug with an extension to a file under dir.
func assetName(dir, slug string) (string, bool) {
	if path.Ext(slug) == "" || pathutil.IsHidden(slug) {
		return "", false
	}
	name := path.Join(dir, strings.TrimPrefix(slug, "/"))
	if !fs.ValidPath(name) {
		return "", false
	}
	return name, true
}

func existsFile(fsys fs.FS, name string) bool {
	if fsys == nil || name == "" || !fs.ValidPath(name) {
		return false
	}
	info, err := fs.Stat(fsys, name)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
