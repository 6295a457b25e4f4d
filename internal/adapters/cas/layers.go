package cas

import (
	"archive/tar"
	"bufio"
	"bytes"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	opaqueWhiteout = ".wh..wh..opq"
	whiteoutPrefix = ".wh."
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
)

func (a *Archive) applyLayer(layer v1.Descriptor, outDir string) error {
	blob, err := a.blobPath(layer.Digest)
	if err != nil {
		return err
	}

	//nolint:gosec // Path is inside the content addressed cache
	f, err := os.Open(blob)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error()), "path", blob)
	}
	defer func() { _ = f.Close() }()

	r, closeFn, err := decompress(bufio.NewReader(f), layer.MediaType)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error()), "path", blob)
	}
	defer closeFn()

	root, err := filepath.EvalSymlinks(outDir)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error()), "path", outDir)
	}
	l := &layerWriter{root: root, written: make(map[string]struct{})}
	return l.untar(tar.NewReader(r))
}

// decompress selects a decoder from the media type, falling back to the stream's magic bytes.
func decompress(br *bufio.Reader, mediaType string) (io.Reader, func(), error) {
	kind := ""
	switch {
	case strings.HasSuffix(mediaType, "gzip"):
		kind = "gzip"
	case strings.HasSuffix(mediaType, "zstd"):
		kind = "zstd"
	default:
		head, _ := br.Peek(len(zstdMagic))
		switch {
		case bytes.HasPrefix(head, gzipMagic):
			kind = "gzip"
		case bytes.HasPrefix(head, zstdMagic):
			kind = "zstd"
		}
	}

	switch kind {
	case "gzip":
		gz, err := gzip.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return gz, func() { _ = gz.Close() }, nil
	case "zstd":
		dec, err := zstd.NewReader(br)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	default:
		return br, func() {}, nil
	}
}

// layerWriter applies one layer on top of root. Whiteouts only hide content
// from lower layers, so paths written by the current layer are tracked.
type layerWriter struct {
	root    string
	written map[string]struct{}
}

func (l *layerWriter) untar(tr *tar.Reader) error {
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error())
		}
		if err := l.apply(tr, hdr); err != nil {
			return zerr.With(err, "entry", hdr.Name)
		}
	}
}

func (l *layerWriter) apply(tr *tar.Reader, hdr *tar.Header) error {
	root := l.root
	rel := filepath.Clean(strings.TrimLeft(hdr.Name, "/"))
	if rel == "." {
		return nil
	}
	if !filepath.IsLocal(rel) {
		return domain.ErrUnsafeLayerPath
	}

	target := filepath.Join(root, rel)
	parent := filepath.Dir(target)
	base := filepath.Base(rel)

	if err := ensureWithin(root, parent); err != nil {
		return err
	}
	if err := os.MkdirAll(parent, domain.DirPerm); err != nil {
		return zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error())
	}

	switch {
	case base == opaqueWhiteout:
		return l.clearDir(parent)
	case strings.HasPrefix(base, whiteoutPrefix):
		return removePath(filepath.Join(parent, strings.TrimPrefix(base, whiteoutPrefix)))
	}
	l.written[target] = struct{}{}

	mode := hdr.FileInfo().Mode().Perm()

	switch hdr.Typeflag {
	case tar.TypeDir:
		if info, err := os.Lstat(target); err == nil && !info.IsDir() {
			if err := removePath(target); err != nil {
				return err
			}
		}
		if err := os.MkdirAll(target, mode|0o700); err != nil {
			return zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error())
		}
		return nil
	case tar.TypeReg:
		if err := removePath(target); err != nil {
			return err
		}
		return writeFile(target, tr, mode)
	case tar.TypeSymlink:
		if err := removePath(target); err != nil {
			return err
		}
		if err := os.Symlink(hdr.Linkname, target); err != nil {
			return zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error())
		}
		return nil
	case tar.TypeLink:
		linkRel := filepath.Clean(strings.TrimLeft(hdr.Linkname, "/"))
		if !filepath.IsLocal(linkRel) {
			return zerr.With(domain.ErrUnsafeLayerPath, "link", hdr.Linkname)
		}
		source := filepath.Join(root, linkRel)
		if err := ensureWithin(root, filepath.Dir(source)); err != nil {
			return zerr.With(err, "link", hdr.Linkname)
		}
		if err := removePath(target); err != nil {
			return err
		}
		if err := os.Link(source, target); err != nil {
			return zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error())
		}
		return nil
	default:
		// Device nodes and FIFOs are not needed by package builds.
		return nil
	}
}

func writeFile(target string, r io.Reader, mode fs.FileMode) error {
	//nolint:gosec // Target is confined to the output directory by ensureWithin
	f, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode|0o600)
	if err != nil {
		return zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error())
	}
	//nolint:gosec // Layer content is pinned by digest
	if _, err := io.Copy(f, r); err != nil {
		_ = f.Close()
		return zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error())
	}
	if err := f.Close(); err != nil {
		return zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error())
	}
	return nil
}

// ensureWithin rejects directories that resolve outside root through a symlink
// planted by an earlier entry. Only the deepest existing ancestor is resolved.
func ensureWithin(root, dir string) error {
	existing := dir
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		next := filepath.Dir(existing)
		if next == existing {
			break
		}
		existing = next
	}

	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		return zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error())
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || !filepath.IsLocal(rel) {
		return zerr.With(domain.ErrUnsafeLayerPath, "resolved", resolved)
	}
	return nil
}

// clearDir removes the lower-layer content of an opaque directory.
func (l *layerWriter) clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error())
	}
	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		if _, ok := l.written[path]; ok {
			continue
		}
		if err := removePath(path); err != nil {
			return err
		}
	}
	return nil
}

func removePath(path string) error {
	if err := os.RemoveAll(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error()), "path", path)
	}
	return nil
}
