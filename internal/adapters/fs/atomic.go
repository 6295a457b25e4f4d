// Package fs implements the filesystem side effects of resolution: verification
// markers, the external kit metadata file, and atomic file replacement.
package fs

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/zerr"
)

// WriteFileAtomic replaces path with data through a temporary sibling and a
// rename, so readers see either the old or the new content.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create directory"), "path", dir)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-")
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create temporary file"), "path", path)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(err, "failed to write temporary file"), "path", tmpName)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to close temporary file"), "path", tmpName)
	}
	if err := os.Chmod(tmpName, perm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to set file mode"), "path", tmpName)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to rename temporary file"), "path", path)
	}
	return nil
}

// SyncMetadataFile writes content to path unless the file already holds
// exactly those bytes. It reports whether a write happened.
func SyncMetadataFile(path string, content []byte) (bool, error) {
	//nolint:gosec // Path is the external kit metadata file
	existing, err := os.ReadFile(path)
	switch {
	case err == nil && bytes.Equal(existing, content):
		return false, nil
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return false, zerr.With(zerr.Wrap(err, domain.ErrMetadataFileWriteFailed.Error()), "path", path)
	}

	if err := WriteFileAtomic(path, content, domain.FilePerm); err != nil {
		return false, zerr.Wrap(err, domain.ErrMetadataFileWriteFailed.Error())
	}
	return true, nil
}
