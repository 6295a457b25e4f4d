// Package imagetest provides an in-memory registry implementing ports.ImageTool.
package imagetest

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/google/go-containerregistry/pkg/crane"
	ggcr "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/empty"
	"github.com/google/go-containerregistry/pkg/v1/layout"
	"github.com/google/go-containerregistry/pkg/v1/mutate"
	"github.com/google/go-containerregistry/pkg/v1/types"
	"github.com/stretchr/testify/require"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/twoliter/internal/engine/image"
	"go.trai.ch/zerr"
)

// ErrNotFound is returned for references that were never pushed.
var ErrNotFound = zerr.New("reference not found")

// Platform describes one architecture of a pushed image.
type Platform struct {
	Arch   string
	Labels map[string]string
	Files  map[string][]byte
}

// Registry serves pushed images by tag and by digest.
type Registry struct {
	mu      sync.Mutex
	indexes map[string]ggcr.ImageIndex
	images  map[string]ggcr.Image
	pulls   map[string]int
	calls   map[string]int
	fail    map[string]error
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		indexes: make(map[string]ggcr.ImageIndex),
		images:  make(map[string]ggcr.Image),
		pulls:   make(map[string]int),
		calls:   make(map[string]int),
		fail:    make(map[string]error),
	}
}

// Push publishes a manifest list at repo:tag with one image per platform and
// returns the manifest list digest as recorded in a lock.
func (r *Registry) Push(t testing.TB, repo, tag string, platforms ...Platform) string {
	t.Helper()

	idx := mutate.IndexMediaType(empty.Index, types.OCIImageIndex)
	for _, p := range platforms {
		img := buildImage(t, p)
		d, err := img.Digest()
		require.NoError(t, err)

		r.mu.Lock()
		r.images[repo+"@"+d.String()] = img
		r.mu.Unlock()

		idx = mutate.AppendManifests(idx, mutate.IndexAddendum{
			Add: img,
			Descriptor: ggcr.Descriptor{
				Platform: &ggcr.Platform{OS: "linux", Architecture: image.DockerArch(p.Arch)},
			},
		})
	}

	raw, err := idx.RawManifest()
	require.NoError(t, err)

	r.mu.Lock()
	r.indexes[repo+":"+tag] = idx
	r.mu.Unlock()

	return image.ManifestListDigest(raw)
}

// PushKit publishes a kit carrying md as its metadata label on every arch.
func (r *Registry) PushKit(t testing.TB, repo string, md *domain.ImageMetadata, archs ...string) string {
	t.Helper()

	labels := r.Labels(t, md)

	platforms := make([]Platform, 0, len(archs))
	for _, arch := range archs {
		platforms = append(platforms, Platform{
			Arch:   arch,
			Labels: labels,
			Files: map[string][]byte{
				fmt.Sprintf("%s/%s.txt", md.Name, arch): []byte(md.Name + " " + md.Version.String()),
			},
		})
	}
	return r.Push(t, repo, md.Version.Tag(), platforms...)
}

// Labels returns image config labels carrying md.
func (r *Registry) Labels(t testing.TB, md *domain.ImageMetadata) map[string]string {
	t.Helper()
	label, err := image.EncodeMetadata(md)
	require.NoError(t, err)
	return map[string]string{image.MetadataLabel(): label}
}

// PushSDK publishes an SDK image without kit metadata.
func (r *Registry) PushSDK(t testing.TB, repo string, version domain.Version, archs ...string) string {
	t.Helper()

	platforms := make([]Platform, 0, len(archs))
	for _, arch := range archs {
		platforms = append(platforms, Platform{
			Arch:  arch,
			Files: map[string][]byte{"sdk/" + arch + ".txt": []byte(version.String())},
		})
	}
	return r.Push(t, repo, version.Tag(), platforms...)
}

// Save captures what repo:tag currently points at and returns a function
// that moves the tag back.
func (r *Registry) Save(repo, tag string) func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	idx, ok := r.indexes[repo+":"+tag]
	return func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if ok {
			r.indexes[repo+":"+tag] = idx
		} else {
			delete(r.indexes, repo+":"+tag)
		}
	}
}

// Fail makes every call for uri return err.
func (r *Registry) Fail(uri string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fail[uri] = err
}

// Pulls returns how many times uri was pulled.
func (r *Registry) Pulls(uri string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pulls[uri]
}

// TotalPulls returns how many pulls were made for any reference.
func (r *Registry) TotalPulls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	total := 0
	for _, n := range r.pulls {
		total += n
	}
	return total
}

// Calls returns how many manifest or config requests were made for uri.
func (r *Registry) Calls(uri string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[uri]
}

// GetManifest implements ports.ImageTool.
func (r *Registry) GetManifest(ctx context.Context, uri string) ([]byte, error) {
	if err := r.record(ctx, uri); err != nil {
		return nil, err
	}

	r.mu.Lock()
	idx, isIndex := r.indexes[uri]
	img, isImage := r.images[uri]
	r.mu.Unlock()

	switch {
	case isIndex:
		return idx.RawManifest()
	case isImage:
		return img.RawManifest()
	default:
		return nil, zerr.With(ErrNotFound, "uri", uri)
	}
}

// GetConfig implements ports.ImageTool.
func (r *Registry) GetConfig(ctx context.Context, uri string) (*domain.ContainerConfig, error) {
	if err := r.record(ctx, uri); err != nil {
		return nil, err
	}

	img, err := r.image(uri)
	if err != nil {
		return nil, err
	}
	cfg, err := img.ConfigFile()
	if err != nil {
		return nil, err
	}
	return &domain.ContainerConfig{Labels: cfg.Config.Labels}, nil
}

// PullOCIImage implements ports.ImageTool.
func (r *Registry) PullOCIImage(ctx context.Context, path, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	r.mu.Lock()
	r.pulls[uri]++
	failure := r.fail[uri]
	r.mu.Unlock()
	if failure != nil {
		return failure
	}

	img, err := r.image(uri)
	if err != nil {
		return err
	}
	p, err := layout.Write(path, empty.Index)
	if err != nil {
		return err
	}
	return p.AppendImage(img)
}

func (r *Registry) record(ctx context.Context, uri string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[uri]++
	return r.fail[uri]
}

func (r *Registry) image(uri string) (ggcr.Image, error) {
	if !strings.Contains(uri, "@") {
		return nil, zerr.With(ErrNotFound, "uri", uri)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	img, ok := r.images[uri]
	if !ok {
		return nil, zerr.With(ErrNotFound, "uri", uri)
	}
	return img, nil
}

func buildImage(t testing.TB, p Platform) ggcr.Image {
	t.Helper()

	files := p.Files
	if files == nil {
		files = map[string][]byte{}
	}
	layer, err := crane.Layer(files)
	require.NoError(t, err)

	img, err := mutate.AppendLayers(empty.Image, layer)
	require.NoError(t, err)

	cfg, err := img.ConfigFile()
	require.NoError(t, err)
	cfg = cfg.DeepCopy()
	cfg.OS = "linux"
	cfg.Architecture = image.DockerArch(p.Arch)
	cfg.Config.Labels = p.Labels

	img, err = mutate.ConfigFile(img, cfg)
	require.NoError(t, err)
	return img
}
