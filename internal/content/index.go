package content

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"io/fs"
	"path"
	"strings"
	"time"

	"github.com/keithlinneman/linnemanlabs-sections/internal/page"
	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

const (
	SiteFile = "site.yaml"
	PagesDir = "pages"
)

// Index parses site.yaml and every markdown document under pages/.
// Drafts are skipped. Two documents claiming one slug is an error.
func Index(fsys fs.FS) (*page.Site, map[string]*page.Page, error) {
	raw, err := fs.ReadFile(fsys, SiteFile)
	if err != nil {
		return nil, nil, xerrors.Wrapf(err, "read %s", SiteFile)
	}
	site, err := page.ParseSite(raw)
	if err != nil {
		return nil, nil, err
	}

	pages := make(map[string]*page.Page)
	err = fs.WalkDir(fsys, PagesDir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !isPageDoc(name) {
			return nil
		}
		p, err := parseFile(fsys, name)
		if err != nil {
			return err
		}
		if p.Draft {
			return nil
		}
		if prev, dup := pages[p.Slug]; dup {
			return xerrors.Newf("slug %s claimed by %s and %s", p.Slug, prev.Source, name)
		}
		pages[p.Slug] = p
		return nil
	})
	if err != nil {
		return nil, nil, xerrors.Wrap(err, "index pages")
	}
	return site, pages, nil
}

func isPageDoc(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".md", ".markdown":
		return !strings.HasPrefix(path.Base(name), ".")
	}
	return false
}

func parseFile(fsys fs.FS, name string) (*page.Page, error) {
	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return page.Parse(name, f)
}

// Build indexes fsys into a snapshot carrying meta.
func Build(fsys fs.FS, meta Meta) (*Snapshot, error) {
	site, pages, err := Index(fsys)
	if err != nil {
		return nil, err
	}
	if meta.Version == "" {
		meta.Version = site.Version
	}
	return &Snapshot{
		FS:       fsys,
		Meta:     meta,
		Site:     site,
		Pages:    pages,
		LoadedAt: time.Now().UTC(),
	}, nil
}

// TreeHash digests every regular file path and body in lexical walk
// order. It identifies local trees that have no bundle digest.
func TreeHash(fsys fs.FS) (string, error) {
	h := sha256.New()
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		f, err := fsys.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		io.WriteString(h, name)
		h.Write([]byte{0})
		if _, err := io.Copy(h, f); err != nil {
			return err
		}
		h.Write([]byte{0})
		return nil
	})
	if err != nil {
		return "", xerrors.Wrap(err, "hash content tree")
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
