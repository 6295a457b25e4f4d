package imagetool_test

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/google/go-containerregistry/pkg/name"
	"github.com/google/go-containerregistry/pkg/v1/layout"
	"github.com/google/go-containerregistry/pkg/v1/tarball"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/twoliter/internal/adapters/imagetool"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/zerr"
)

// stubRunner answers docker invocations keyed by the subcommand line.
type stubRunner struct {
	outputs map[string][]byte
	errs    map[string]error
	save    func(path string) error
	calls   []string
}

func (s *stubRunner) Run(_ context.Context, bin string, args ...string) ([]byte, error) {
	line := bin + " " + strings.Join(args, " ")
	s.calls = append(s.calls, line)

	for prefix, err := range s.errs {
		if strings.HasPrefix(line, prefix) {
			return nil, err
		}
	}
	if len(args) > 2 && args[0] == "save" && s.save != nil {
		return nil, s.save(args[2])
	}
	return s.outputs[line], nil
}

func TestDocker_GetManifest(t *testing.T) {
	uri := "example.com/bottlerocket/core-kit:v1.0.0"
	runner := &stubRunner{outputs: map[string][]byte{
		"docker buildx imagetools inspect --raw " + uri: []byte(`{"manifests":[]}`),
	}}

	raw, err := imagetool.NewDockerWithRunner(runner).GetManifest(t.Context(), uri)
	require.NoError(t, err)
	assert.JSONEq(t, `{"manifests":[]}`, string(raw))
}

func TestDocker_GetConfig(t *testing.T) {
	uri := "example.com/bottlerocket/core-kit@sha256:" + strings.Repeat("a", 64)
	runner := &stubRunner{outputs: map[string][]byte{
		"docker image inspect --format {{json .Config.Labels}} " + uri: []byte(`{"dev.bottlerocket.kit.v2":"e30="}` + "\n"),
	}}

	cfg, err := imagetool.NewDockerWithRunner(runner).GetConfig(t.Context(), uri)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"dev.bottlerocket.kit.v2": "e30="}, cfg.Labels)
	assert.Equal(t, "docker pull --quiet "+uri, runner.calls[0])
}

func TestDocker_GetConfig_NoLabels(t *testing.T) {
	uri := "example.com/bottlerocket/core-kit:v1.0.0"
	runner := &stubRunner{outputs: map[string][]byte{
		"docker image inspect --format {{json .Config.Labels}} " + uri: []byte("null\n"),
	}}

	cfg, err := imagetool.NewDockerWithRunner(runner).GetConfig(t.Context(), uri)
	require.NoError(t, err)
	assert.Empty(t, cfg.Labels)
}

func TestDocker_PullOCIImage(t *testing.T) {
	uri := "example.com/bottlerocket/core-kit:v1.0.0"
	img := labeledImage(t, nil)
	tag, err := name.NewTag(uri)
	require.NoError(t, err)
	runner := &stubRunner{save: func(path string) error {
		return tarball.WriteToFile(path, tag, img)
	}}

	path := t.TempDir()
	require.NoError(t, imagetool.NewDockerWithRunner(runner).PullOCIImage(t.Context(), path, uri))

	p, err := layout.FromPath(path)
	require.NoError(t, err)
	index, err := p.ImageIndex()
	require.NoError(t, err)
	manifest, err := index.IndexManifest()
	require.NoError(t, err)

	want, err := img.Digest()
	require.NoError(t, err)
	require.Len(t, manifest.Manifests, 1)
	assert.Equal(t, want, manifest.Manifests[0].Digest)
	assert.True(t, slices.Contains(runner.calls, "docker pull --quiet "+uri))
}

func TestDocker_Errors(t *testing.T) {
	failed := zerr.New("exit status 1")
	uri := "example.com/bottlerocket/core-kit:v1.0.0"

	tests := []struct {
		name    string
		errs    map[string]error
		outputs map[string][]byte
		call    func(*imagetool.Docker) error
		wantErr error
	}{
		{
			name: "manifest inspect fails",
			errs: map[string]error{"docker buildx": failed},
			call: func(d *imagetool.Docker) error {
				_, err := d.GetManifest(context.Background(), uri)
				return err
			},
			wantErr: domain.ErrManifestFetchFailed,
		},
		{
			name: "pull fails",
			errs: map[string]error{"docker pull": failed},
			call: func(d *imagetool.Docker) error {
				_, err := d.GetConfig(context.Background(), uri)
				return err
			},
			wantErr: domain.ErrConfigFetchFailed,
		},
		{
			name: "labels are not json",
			outputs: map[string][]byte{
				"docker image inspect --format {{json .Config.Labels}} " + uri: []byte("<no value>"),
			},
			call: func(d *imagetool.Docker) error {
				_, err := d.GetConfig(context.Background(), uri)
				return err
			},
			wantErr: domain.ErrConfigParseFailed,
		},
		{
			name: "save fails",
			errs: map[string]error{"docker save": failed},
			call: func(d *imagetool.Docker) error {
				return d.PullOCIImage(context.Background(), t.TempDir(), uri)
			},
			wantErr: domain.ErrPullFailed,
		},
		{
			name: "flag-like reference",
			call: func(d *imagetool.Docker) error {
				_, err := d.GetManifest(context.Background(), "--help")
				return err
			},
			wantErr: domain.ErrInvalidReference,
		},
		{
			name: "malformed reference",
			call: func(d *imagetool.Docker) error {
				_, err := d.GetManifest(context.Background(), "Example/Core Kit:v1")
				return err
			},
			wantErr: domain.ErrInvalidReference,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := imagetool.NewDockerWithRunner(&stubRunner{errs: tt.errs, outputs: tt.outputs})
			err := tt.call(d)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr.Error())
		})
	}
}
