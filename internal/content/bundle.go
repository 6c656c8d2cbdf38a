package content

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path"
	"strings"
	"testing/fstest"
)

const (
	maxBundleSize   int64 = 50 << 20
	maxSingleFile   int64 = 10 << 20
	maxTotalExtract int64 = 100 << 20
	maxSignature    int64 = 16 << 10
)

var ErrBundleTooLarge = errors.New("bundle exceeds size limit")

// readWithHash reads r up to maxSize bytes, returning the body and its hex
// SHA-256.
func readWithHash(r io.Reader, maxSize int64) ([]byte, string, error) {
	h := sha256.New()
	data, err := io.ReadAll(io.TeeReader(io.LimitReader(r, maxSize+1), h))
	if err != nil {
		return nil, "", err
	}
	if int64(len(data)) > maxSize {
		return nil, "", fmt.Errorf("%w: more than %d bytes", ErrBundleTooLarge, maxSize)
	}
	return data, hex.EncodeToString(h.Sum(nil)), nil
}

// extractBundle unpacks a tar.gz into memory. Only regular files and
// directories are accepted; absolute or escaping names are rejected.
func extractBundle(data []byte) (fstest.MapFS, error) {
	gr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("open gzip: %w", err)
	}
	defer gr.Close()

	mfs := make(fstest.MapFS)
	tr := tar.NewReader(gr)
	var total int64

	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return mfs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read tar header: %w", err)
		}

		name, err := bundlePath(hdr.Name)
		if err != nil {
			return nil, err
		}
		if name == "" {
			continue
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			continue
		case tar.TypeReg:
			if hdr.Size > maxSingleFile {
				return nil, fmt.Errorf("%w: %s is %d bytes", ErrBundleTooLarge, name, hdr.Size)
			}
			body, err := io.ReadAll(io.LimitReader(tr, maxSingleFile+1))
			if err != nil {
				return nil, fmt.Errorf("read %s: %w", name, err)
			}
			if int64(len(body)) > maxSingleFile {
				return nil, fmt.Errorf("%w: %s", ErrBundleTooLarge, name)
			}
			total += int64(len(body))
			if total > maxTotalExtract {
				return nil, fmt.Errorf("%w: extracted total over %d bytes", ErrBundleTooLarge, maxTotalExtract)
			}
			mfs[name] = &fstest.MapFile{Data: body, Mode: fs.FileMode(hdr.Mode).Perm()}
		default:
			return nil, fmt.Errorf("unsupported entry %s (type %q)", name, hdr.Typeflag)
		}
	}
}

// bundlePath cleans an archive name. "" means the entry is the root.
func bundlePath(raw string) (string, error) {
	if strings.Contains(raw, "\\") || strings.ContainsRune(raw, 0) {
		return "", fmt.Errorf("invalid name in archive: %q", raw)
	}
	if path.IsAbs(raw) {
		return "", fmt.Errorf("absolute path in archive: %s", raw)
	}
	name := path.Clean(raw)
	if name == "." {
		return "", nil
	}
	if name == ".." || strings.HasPrefix(name, "../") || !fs.ValidPath(name) {
		return "", fmt.Errorf("path traversal in archive: %s", raw)
	}
	return name, nil
}
