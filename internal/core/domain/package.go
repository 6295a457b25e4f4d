package domain

import (
	"fmt"
	"slices"
)

// LockedImage is a resolved dependency pinned to the digest of its manifest list.
//
// Source is the tag-based URI the image was resolved from, kept for traceability.
// Digest is the canonical identity: two LockedImages are the same artifact when
// Source and Digest agree, whatever their informational name or version.
type LockedImage struct {
	Name    string  `json:"name"    toml:"name"`
	Version Version `json:"version" toml:"version"`
	Vendor  string  `json:"vendor"  toml:"vendor"`
	Source  string  `json:"source"  toml:"source"`
	Digest  string  `json:"digest"  toml:"digest"`
}

// Equal reports whether both values pin the same source and digest.
func (l LockedImage) Equal(o LockedImage) bool {
	return l.Key() == o.Key()
}

// Key returns the artifact identity of the locked image.
func (l LockedImage) Key() ArtifactKey {
	return ArtifactKey{Source: l.Source, Digest: l.Digest}
}

// Image returns the declared image this lock entry satisfies.
func (l LockedImage) Image() Image {
	return Image{Name: l.Name, Version: l.Version, Vendor: l.Vendor}
}

// String renders the identity recorded in verification markers.
func (l LockedImage) String() string {
	return fmt.Sprintf("%s-%s@%s (%s@%s)", l.Name, l.Version, l.Vendor, l.Source, l.Digest)
}

// ArtifactKey is the (source, digest) identity of a resolved image.
type ArtifactKey struct {
	Source string
	Digest string
}

// ImageMetadata is a kit's own dependency declaration, embedded in its image config.
type ImageMetadata struct {
	Name    string  `json:"name"`
	Version Version `json:"version"`
	SDK     Image   `json:"sdk"`
	Kits    []Image `json:"kit"`
}

// Equal reports whether two metadata values declare exactly the same requirements.
func (m *ImageMetadata) Equal(o *ImageMetadata) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Name == o.Name &&
		m.Version == o.Version &&
		m.SDK == o.SDK &&
		slices.Equal(m.Kits, o.Kits)
}
