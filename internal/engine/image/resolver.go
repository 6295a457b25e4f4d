// Package image resolves declared kit and SDK images against their registries.
package image

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"strings"

	digest "github.com/opencontainers/go-digest"
	v1 "github.com/opencontainers/image-spec/specs-go/v1"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/twoliter/internal/core/ports"
	"go.trai.ch/zerr"
)

// attestationReferenceType marks buildx attestation entries in a manifest list.
const attestationReferenceType = "vnd.docker.reference.type"

type kind int

const (
	// verbatim resolves against the vendor's registry under the image's own name.
	verbatim kind = iota
	// overridden resolves against a registry or repository name from Twoliter.override.
	overridden
)

// Resolver locates one declared image in its registry.
type Resolver struct {
	kind         kind
	image        domain.Image
	vendor       domain.Vendor
	override     domain.Override
	skipMetadata bool
}

// NewResolver creates a resolver for img published by vendor. A nil override
// resolves against the vendor's registry verbatim.
func NewResolver(img domain.Image, vendor domain.Vendor, override *domain.Override) *Resolver {
	r := &Resolver{kind: verbatim, image: img, vendor: vendor}
	if override != nil && (override.Name != "" || override.Registry != "") {
		r.kind = overridden
		r.override = *override
	}
	return r
}

// SkipMetadata disables reading the kit metadata label. SDK images carry none.
func (r *Resolver) SkipMetadata() *Resolver {
	r.skipMetadata = true
	return r
}

// Image returns the declared image being resolved.
func (r *Resolver) Image() domain.Image {
	return r.image
}

// repository returns the registry and repository name the image is fetched from.
func (r *Resolver) repository() (string, string) {
	switch r.kind {
	case overridden:
		registry, name := r.vendor.Registry, r.image.Name
		if r.override.Registry != "" {
			registry = r.override.Registry
		}
		if r.override.Name != "" {
			name = r.override.Name
		}
		return registry, name
	default:
		return r.vendor.Registry, r.image.Name
	}
}

// URI returns the tag-based reference of the image, e.g. registry/name:v1.0.0.
func (r *Resolver) URI() string {
	registry, name := r.repository()
	return joinRepository(registry, name) + ":" + r.image.Version.Tag()
}

// DigestURI returns a by-digest reference to a manifest in the same repository.
func (r *Resolver) DigestURI(d digest.Digest) string {
	registry, name := r.repository()
	return joinRepository(registry, name) + "@" + d.String()
}

func joinRepository(registry, name string) string {
	registry = strings.TrimSuffix(registry, "/")
	if registry == "" {
		return name
	}
	return registry + "/" + name
}

// Resolve pins the image to the digest of its manifest list and, unless
// metadata is skipped, reads the dependency metadata every platform image
// declares. All platforms must declare identical metadata.
func (r *Resolver) Resolve(ctx context.Context, tool ports.ImageTool) (domain.LockedImage, *domain.ImageMetadata, error) {
	if err := ctx.Err(); err != nil {
		return domain.LockedImage{}, nil, err
	}
	uri := r.URI()

	raw, index, err := fetchManifestList(ctx, tool, uri)
	if err != nil {
		return domain.LockedImage{}, nil, err
	}

	locked := domain.LockedImage{
		Name:    r.image.Name,
		Version: r.image.Version,
		Vendor:  r.image.Vendor,
		Source:  uri,
		Digest:  ManifestListDigest(raw),
	}
	if r.skipMetadata {
		return locked, nil, nil
	}

	var (
		metadata *domain.ImageMetadata
		first    string
	)
	for _, m := range platformManifests(index) {
		if err := ctx.Err(); err != nil {
			return domain.LockedImage{}, nil, err
		}

		md, err := r.platformMetadata(ctx, tool, m)
		if err != nil {
			return domain.LockedImage{}, nil, zerr.With(err, "uri", uri)
		}

		platform := platformName(m.Platform)
		if metadata == nil {
			metadata, first = md, platform
			continue
		}
		if !metadata.Equal(md) {
			err := zerr.With(domain.ErrMetadataMismatch, "uri", uri)
			err = zerr.With(err, "platform", first)
			return domain.LockedImage{}, nil, zerr.With(err, "other_platform", platform)
		}
	}
	if metadata == nil {
		return domain.LockedImage{}, nil, zerr.With(domain.ErrEmptyManifestList, "uri", uri)
	}

	return locked, metadata, nil
}

func (r *Resolver) platformMetadata(ctx context.Context, tool ports.ImageTool, m v1.Descriptor) (*domain.ImageMetadata, error) {
	if err := m.Digest.Validate(); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "digest", m.Digest.String())
	}

	ref := r.DigestURI(m.Digest)
	cfg, err := tool.GetConfig(ctx, ref)
	if err != nil {
		return nil, zerr.With(err, "manifest", ref)
	}

	md, err := DecodeMetadata(cfg.Labels)
	if err != nil {
		return nil, zerr.With(err, "manifest", ref)
	}
	return md, nil
}

// ManifestListDigest returns the base64 encoded SHA-256 of raw manifest list bytes.
func ManifestListDigest(raw []byte) string {
	sum := sha256.Sum256(raw)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func fetchManifestList(ctx context.Context, tool ports.ImageTool, uri string) ([]byte, *v1.Index, error) {
	raw, err := tool.GetManifest(ctx, uri)
	if err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, domain.ErrManifestFetchFailed.Error()), "uri", uri)
	}

	var index v1.Index
	if err := json.Unmarshal(raw, &index); err != nil {
		return nil, nil, zerr.With(zerr.Wrap(err, domain.ErrManifestParseFailed.Error()), "uri", uri)
	}
	if len(platformManifests(&index)) == 0 {
		return nil, nil, zerr.With(domain.ErrEmptyManifestList, "uri", uri)
	}
	return raw, &index, nil
}

// platformManifests drops attestation entries, which carry no image config.
func platformManifests(index *v1.Index) []v1.Descriptor {
	out := make([]v1.Descriptor, 0, len(index.Manifests))
	for _, m := range index.Manifests {
		if _, ok := m.Annotations[attestationReferenceType]; ok {
			continue
		}
		if m.Platform != nil && m.Platform.Architecture == "unknown" {
			continue
		}
		out = append(out, m)
	}
	return out
}

func platformName(p *v1.Platform) string {
	if p == nil {
		return "unknown"
	}
	if p.Variant != "" {
		return p.OS + "/" + p.Architecture + "/" + p.Variant
	}
	return p.OS + "/" + p.Architecture
}
