// Package cas implements the content addressed cache of pulled OCI image archives.
package cas

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/twoliter/internal/core/ports"
	"go.trai.ch/zerr"
)

// Archive is one platform-specific image, cached on disk as an OCI image layout
// directory keyed by its manifest digest.
type Archive struct {
	uri      string
	digest   digest.Digest
	cacheDir string
}

// NewArchive creates an Archive for the image at uri whose manifest has the given digest.
func NewArchive(uri string, d digest.Digest, cacheDir string) *Archive {
	return &Archive{
		uri:      uri,
		digest:   d,
		cacheDir: filepath.Clean(cacheDir),
	}
}

// Digest returns the manifest digest the archive is keyed by.
func (a *Archive) Digest() digest.Digest {
	return a.digest
}

// ArchivePath returns the deterministic cache location of the archive.
func (a *Archive) ArchivePath() string {
	return filepath.Join(a.cacheDir, strings.ReplaceAll(a.digest.String(), ":", "-"))
}

// IsPulled reports whether the archive is already present in the cache.
func (a *Archive) IsPulled() bool {
	_, err := os.Stat(a.ArchivePath())
	return err == nil
}

// Pull fetches the archive into the cache unless it is already present.
// The image is staged in a sibling directory and renamed into place, so an
// interrupted pull never leaves a directory that looks complete.
func (a *Archive) Pull(ctx context.Context, tool ports.ImageTool) error {
	if a.IsPulled() {
		return nil
	}

	if err := os.MkdirAll(a.cacheDir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "path", a.cacheDir)
	}

	staging, err := os.MkdirTemp(a.cacheDir, filepath.Base(a.ArchivePath())+".partial-")
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "path", a.cacheDir)
	}

	if err := tool.PullOCIImage(ctx, staging, a.uri); err != nil {
		_ = os.RemoveAll(staging)
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "uri", a.uri)
	}

	if err := os.Rename(staging, a.ArchivePath()); err != nil {
		_ = os.RemoveAll(staging)
		// Kits sharing a platform image pull it concurrently; the first rename wins.
		if a.IsPulled() {
			return nil
		}
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "path", a.ArchivePath())
	}

	return nil
}

// IsUnpacked reports whether outDir was last populated from this archive.
func (a *Archive) IsUnpacked(outDir string) bool {
	//nolint:gosec // Path is constructed from the trusted output directory
	marker, err := os.ReadFile(filepath.Join(outDir, domain.DigestMarkerFileName))
	if err != nil {
		return false
	}
	return string(bytes.TrimSpace(marker)) == a.digest.String()
}

// UnpackLayers populates outDir with the archive's layers, in manifest order.
//
// When outDir already carries a digest marker for this archive nothing is done.
// Otherwise outDir is wiped, every layer is applied on top of the previous ones,
// and the marker is written last.
func (a *Archive) UnpackLayers(outDir string) error {
	if a.IsUnpacked(outDir) {
		return nil
	}

	if err := os.RemoveAll(outDir); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error()), "path", outDir)
	}
	if err := os.MkdirAll(outDir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error()), "path", outDir)
	}

	manifest, err := a.readManifest()
	if err != nil {
		return err
	}

	for _, layer := range manifest.Layers {
		if err := a.applyLayer(layer, outDir); err != nil {
			return zerr.With(err, "layer", layer.Digest.String())
		}
	}

	marker := filepath.Join(outDir, domain.DigestMarkerFileName)
	//nolint:gosec // Marker content is a digest, readable by build tooling
	if err := os.WriteFile(marker, []byte(a.digest.String()), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error()), "path", marker)
	}

	return nil
}

func (a *Archive) readManifest() (*v1.Manifest, error) {
	var index v1.Index
	if err := readJSON(filepath.Join(a.ArchivePath(), v1.ImageIndexFile), &index); err != nil {
		return nil, err
	}
	if len(index.Manifests) == 0 {
		return nil, zerr.With(domain.ErrEmptyManifestList, "path", a.ArchivePath())
	}

	blob, err := a.blobPath(index.Manifests[0].Digest)
	if err != nil {
		return nil, err
	}

	var manifest v1.Manifest
	if err := readJSON(blob, &manifest); err != nil {
		return nil, err
	}
	return &manifest, nil
}

func (a *Archive) blobPath(d digest.Digest) (string, error) {
	if err := d.Validate(); err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "digest", d.String())
	}
	return filepath.Join(a.ArchivePath(), v1.ImageBlobsDir, d.Algorithm().String(), d.Encoded()), nil
}

func readJSON(path string, target any) error {
	//nolint:gosec // Path is inside the content addressed cache
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return zerr.With(zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error()), "missing", path)
		}
		return zerr.With(zerr.Wrap(err, domain.ErrArchiveUnpackFailed.Error()), "path", path)
	}
	if err := json.Unmarshal(data, target); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "path", path)
	}
	return nil
}
