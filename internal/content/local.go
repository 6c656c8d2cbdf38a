package content

import (
	"io/fs"
	"os"
	"time"

	"github.com/keithlinneman/linnemanlabs-sections/internal/xerrors"
)

// LoadFS builds a snapshot from an in-process tree such as the embedded
// seed.
func LoadFS(fsys fs.FS, src Source) (*Snapshot, error) {
	if fsys == nil {
		return nil, xerrors.New("nil content filesystem")
	}
	hash, err := TreeHash(fsys)
	if err != nil {
		return nil, err
	}
	return Build(fsys, Meta{
		SHA256:     hash,
		Source:     src,
		VerifiedAt: time.Now().UTC(),
	})
}

// LoadDir builds a snapshot from a directory on disk.
func LoadDir(dir string) (*Snapshot, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, xerrors.Wrapf(err, "content dir %s", dir)
	}
	if !info.IsDir() {
		return nil, xerrors.Newf("content dir %s is not a directory", dir)
	}
	return LoadFS(os.DirFS(dir), SourceDir)
}
