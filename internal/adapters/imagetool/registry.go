// Package imagetool implements ports.ImageTool against container registries,
// either directly or through the docker CLI.
package imagetool

import (
	"bytes"
	"context"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/crane"
	ggcr "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/layout"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/zerr"
)

// Registry talks to registries directly using go-containerregistry.
type Registry struct {
	options []crane.Option
}

// NewRegistry creates a Registry tool authenticating with the default
// keychain (docker config and credential helpers).
func NewRegistry(opts ...crane.Option) *Registry {
	options := []crane.Option{crane.WithAuthFromKeychain(authn.DefaultKeychain)}
	return &Registry{options: append(options, opts...)}
}

func (r *Registry) opts(ctx context.Context) []crane.Option {
	return append([]crane.Option{crane.WithContext(ctx)}, r.options...)
}

// GetManifest returns the raw manifest or manifest list bytes at uri.
func (r *Registry) GetManifest(ctx context.Context, uri string) ([]byte, error) {
	raw, err := crane.Manifest(uri, r.opts(ctx)...)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrManifestFetchFailed.Error()), "uri", uri)
	}
	return raw, nil
}

// GetConfig returns the labels of the image config at uri.
func (r *Registry) GetConfig(ctx context.Context, uri string) (*domain.ContainerConfig, error) {
	raw, err := crane.Config(uri, r.opts(ctx)...)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigFetchFailed.Error()), "uri", uri)
	}

	cfg, err := ggcr.ParseConfigFile(bytes.NewReader(raw))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrConfigParseFailed.Error()), "uri", uri)
	}
	return &domain.ContainerConfig{Labels: cfg.Config.Labels}, nil
}

// PullOCIImage writes the image at uri as an OCI image layout at path.
func (r *Registry) PullOCIImage(ctx context.Context, path, uri string) error {
	img, err := crane.Pull(uri, r.opts(ctx)...)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "uri", uri)
	}

	p, err := layout.Write(path, empty.Index)
	if err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "path", path)
	}
	if err := p.AppendImage(img); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrPullFailed.Error()), "uri", uri)
	}
	return nil
}
