package image

import (
	"context"
	"path/filepath"

	"go.trai.ch/twoliter/internal/adapters/cas"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/twoliter/internal/core/ports"
	"go.trai.ch/zerr"
)

var dockerArchitectures = map[string]string{
	"x86_64":  "amd64",
	"aarch64": "arm64",
}

// DockerArch maps a build architecture name to its OCI platform architecture.
// Names without a mapping are returned unchanged.
func DockerArch(arch string) string {
	if mapped, ok := dockerArchitectures[arch]; ok {
		return mapped
	}
	return arch
}

// ExtractPath returns the directory an image's arch-specific contents are unpacked into.
func ExtractPath(root string, img domain.Image, arch string) string {
	return filepath.Join(root, img.Vendor, img.Name, arch)
}

// Extract pulls the platform image for arch into the archive cache under root
// and unpacks its layers into root/vendor/name/arch.
//
// When pinned is non-empty, the manifest list currently published under the
// tag must still hash to it.
func (r *Resolver) Extract(ctx context.Context, tool ports.ImageTool, root, arch, pinned string) error {
	uri := r.URI()

	raw, index, err := fetchManifestList(ctx, tool, uri)
	if err != nil {
		return err
	}
	if pinned != "" {
		if got := ManifestListDigest(raw); got != pinned {
			err := zerr.With(domain.ErrLockChanged, "uri", uri)
			err = zerr.With(err, "locked_digest", pinned)
			return zerr.With(err, "remote_digest", got)
		}
	}

	want := DockerArch(arch)
	for _, m := range platformManifests(index) {
		if m.Platform == nil || m.Platform.Architecture != want {
			continue
		}
		if err := m.Digest.Validate(); err != nil {
			return zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "uri", uri)
		}

		archive := cas.NewArchive(r.DigestURI(m.Digest), m.Digest, domain.CachePath(root))
		if err := archive.Pull(ctx, tool); err != nil {
			return err
		}
		return archive.UnpackLayers(ExtractPath(root, r.image, arch))
	}

	err = zerr.With(domain.ErrArchNotFound, "uri", uri)
	return zerr.With(err, "arch", arch)
}
