package main

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/keithlinneman/linnemanlabs-sections/internal/content"
	"github.com/keithlinneman/linnemanlabs-sections/internal/page"
	"github.com/keithlinneman/linnemanlabs-sections/internal/pathutil"
	"github.com/keithlinneman/linnemanlabs-sections/internal/sections"
	"github.com/keithlinneman/linnemanlabs-sections/internal/sitehttp"
	"github.com/keithlinneman/linnemanlabs-sections/internal/slideshow"
	"github.com/keithlinneman/linnemanlabs-sections/internal/webassets"
	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

const publicDir = "public"

type options struct {
	ContentDir        string
	OutDir            string
	SlideshowInterval time.Duration
	CopyStatic        bool
	CopyPublic        bool
}

func defaultOptions() options {
	return options{
		OutDir:            "dist",
		SlideshowInterval: slideshow.DefaultInterval,
		CopyStatic:        true,
		CopyPublic:        true,
	}
}

type result struct {
	Pages       int
	Assets      int
	ContentHash string
}

func run(ctx context.Context, opts options) (result, error) {
	if opts.OutDir == "" {
		return result{}, xerrors.New("output directory is required")
	}

	snap, err := loadSnapshot(opts.ContentDir)
	if err != nil {
		return result{}, err
	}
	if err := content.ValidateSnapshot(snap, content.DefaultValidationOptions()); err != nil {
		return result{}, err
	}

	res := result{ContentHash: snap.Meta.SHA256}
	sr := sections.NewRenderer(nil, nil, opts.SlideshowInterval)
	sr.LocalSlides = true
	r := page.NewRenderer(sr)

	slugs := make([]string, 0, len(snap.Pages))
	for slug := range snap.Pages {
		slugs = append(slugs, slug)
	}
	sort.Strings(slugs)

	for _, slug := range slugs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		var buf bytes.Buffer
		if err := r.Render(ctx, &buf, snap.Site, snap.Pages[slug]); err != nil {
			return res, xerrors.Wrapf(err, "render %s", slug)
		}
		if err := writeFile(opts.OutDir, outputPath(slug), buf.Bytes()); err != nil {
			return res, err
		}
		res.Pages++
	}

	if opts.CopyPublic {
		n, err := copyTree(ctx, snap.FS, publicDir, opts.OutDir, "")
		if err != nil {
			return res, err
		}
		res.Assets += n
	}
	if opts.CopyStatic {
		n, err := copyTree(ctx, webassets.StaticFS(), ".", opts.OutDir, strings.Trim(sitehttp.StaticPrefix, "/"))
		if err != nil {
			return res, err
		}
		res.Assets += n
	}
	return res, nil
}

func loadSnapshot(dir string) (*content.Snapshot, error) {
	if dir == "" {
		return content.LoadFS(webassets.SeedFS(), content.SourceSeed)
	}
	return content.LoadDir(dir)
}

// outputPath maps a slug to the file a static host serves for it:
// "/" is index.html, "/404" is 404.html, "/about" is about/index.html.
func outputPath(slug string) string {
	slug = page.NormalizeSlug(slug)
	switch slug {
	case "/":
		return "index.html"
	case "/404":
		return "404.html"
	}
	return path.Join(strings.TrimPrefix(slug, "/"), "index.html")
}

// copyTree copies regular files under root in fsys to outDir/prefix,
// skipping hidden files. A missing root copies nothing.
func copyTree(ctx context.Context, fsys fs.FS, root, outDir, prefix string) (int, error) {
	if _, err := fs.Stat(fsys, root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, xerrors.Wrapf(err, "stat %s", root)
	}

	n := 0
	err := fs.WalkDir(fsys, root, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		rel := name
		if root != "." {
			rel = strings.TrimPrefix(strings.TrimPrefix(name, root), "/")
		} else if rel == "." {
			rel = ""
		}
		if rel != "" && pathutil.IsHidden(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			return err
		}
		if err := writeFile(outDir, path.Join(prefix, rel), data); err != nil {
			return err
		}
		n++
		return nil
	})
	if err != nil {
		return n, xerrors.Wrapf(err, "copy %s", root)
	}
	return n, nil
}

// writeFile replaces outDir/rel atomically so a host serving outDir never
// sees a partial page.
func writeFile(outDir, rel string, data []byte) error {
	dst := filepath.Join(outDir, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return xerrors.Wrapf(err, "mkdir for %s", rel)
	}
	if err := atomic.WriteFile(dst, bytes.NewReader(data)); err != nil {
		return xerrors.Wrapf(err, "write %s", rel)
	}
	return nil
}
