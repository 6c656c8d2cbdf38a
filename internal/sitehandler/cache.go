package sitehandler

import (
	"path"
	"strings"
)

func cacheControlForFile(name string, o *Options) string {
	switch strings.ToLower(path.Ext(name)) {
	case "", ".html":
		return o.PageCacheControl
	case ".css", ".js", ".mjs",
		".png", ".jpg", ".jpeg", ".webp", ".avif", ".gif", ".svg", ".ico",
		".mp4", ".webm",
		".woff", ".woff2", ".ttf",
		".map":
		return o.AssetCacheControl
	}
	return o.OtherCacheControl
}
