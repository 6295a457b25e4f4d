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

// Markers stores verification markers as files named after their tag kind.
type Markers struct{}

// NewMarkers creates a new Markers store.
func NewMarkers() *Markers {
	return &Markers{}
}

// ClearTags removes every known marker from dir. Missing markers are ignored.
func (m *Markers) ClearTags(dir string) error {
	for _, kind := range domain.TagKinds {
		path := filepath.Join(dir, kind.MarkerFile())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, domain.ErrMarkerRemoveFailed.Error()), "path", path)
		}
	}
	return nil
}

// WriteTags clears dir, then writes one marker per tag. If any write fails the
// markers are cleared again so a partial set is never observed afterwards.
func (m *Markers) WriteTags(dir string, tags []domain.VerifyTag) error {
	if err := m.ClearTags(dir); err != nil {
		return err
	}

	for _, tag := range tags {
		if err := writeMarker(dir, tag); err != nil {
			_ = m.ClearTags(dir)
			return err
		}
	}
	return nil
}

func writeMarker(dir string, tag domain.VerifyTag) error {
	path := filepath.Join(dir, tag.Kind.MarkerFile())
	content, err := tag.Manifest.Canonical()
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error()), "path", path)
	}
	if err := WriteFileAtomic(path, content, domain.FilePerm); err != nil {
		return zerr.Wrap(err, domain.ErrMarkerWriteFailed.Error())
	}
	return nil
}

// CheckTags reports whether dir holds a marker with the expected content for
// every tag and no marker of any other kind.
func (m *Markers) CheckTags(dir string, tags []domain.VerifyTag) (bool, error) {
	expected := make(map[domain.TagKind]domain.VerificationManifest, len(tags))
	for _, tag := range tags {
		expected[tag.Kind] = tag.Manifest
	}

	for _, kind := range domain.TagKinds {
		path := filepath.Join(dir, kind.MarkerFile())
		//nolint:gosec // Marker paths are fixed names inside the external kits directory
		content, err := os.ReadFile(path)
		exists := err == nil
		if err != nil && !errors.Is(err, fs.ErrNotExist) {
			return false, zerr.With(zerr.Wrap(err, "failed to read marker"), "path", path)
		}

		manifest, want := expected[kind]
		switch {
		case want && !exists, !want && exists:
			return false, nil
		case want:
			canonical, err := manifest.Canonical()
			if err != nil {
				return false, err
			}
			if !bytes.Equal(content, canonical) {
				return false, nil
			}
		}
	}
	return true, nil
}
