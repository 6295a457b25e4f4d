package image_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/twoliter/internal/core/ports/mocks"
	"go.trai.ch/twoliter/internal/engine/image"
	"go.trai.ch/zerr"
	"go.uber.org/mock/gomock"
)

func TestResolver_Resolve_MalformedResponses(t *testing.T) {
	vendor := domain.Vendor{Registry: registry}
	img := mustImage(t, "core-kit", "1.0.0", "bottlerocket")
	uri := registry + "/core-kit:v1.0.0"

	tests := []struct {
		name     string
		manifest string
		labels   map[string]string
		cfgErr   error
		wantErr  error
	}{
		{
			name:     "manifest list is not json",
			manifest: "<html>rate limited</html>",
			wantErr:  domain.ErrManifestParseFailed,
		},
		{
			name: "entry digest is invalid",
			manifest: `{"schemaVersion":2,"manifests":[` +
				`{"digest":"sha256:nothex","platform":{"architecture":"amd64","os":"linux"}}]}`,
			wantErr: domain.ErrManifestParseFailed,
		},
		{
			name: "only attestations",
			manifest: `{"schemaVersion":2,"manifests":[` +
				`{"digest":"sha256:` + hex64 + `","platform":{"architecture":"unknown","os":"unknown"}}]}`,
			wantErr: domain.ErrEmptyManifestList,
		},
		{
			name: "metadata label is not base64",
			manifest: `{"schemaVersion":2,"manifests":[` +
				`{"digest":"sha256:` + hex64 + `","platform":{"architecture":"amd64","os":"linux"}}]}`,
			labels:  map[string]string{image.MetadataLabel(): "%%%"},
			wantErr: domain.ErrMetadataDecodeFailed,
		},
		{
			name: "config fetch fails",
			manifest: `{"schemaVersion":2,"manifests":[` +
				`{"digest":"sha256:` + hex64 + `","platform":{"architecture":"arm64","os":"linux"}}]}`,
			cfgErr:  zerr.Wrap(zerr.New("unauthorized"), domain.ErrConfigFetchFailed.Error()),
			wantErr: domain.ErrConfigFetchFailed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			tool := mocks.NewMockImageTool(ctrl)
			tool.EXPECT().GetManifest(gomock.Any(), uri).Return([]byte(tt.manifest), nil)
			switch {
			case tt.cfgErr != nil:
				tool.EXPECT().GetConfig(gomock.Any(), registry+"/core-kit@sha256:"+hex64).
					Return(nil, tt.cfgErr)
			case tt.labels != nil:
				tool.EXPECT().GetConfig(gomock.Any(), registry+"/core-kit@sha256:"+hex64).
					Return(&domain.ContainerConfig{Labels: tt.labels}, nil)
			}

			_, _, err := image.NewResolver(img, vendor, nil).Resolve(context.Background(), tool)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr.Error())
			assert.Equal(t, 1, strings.Count(err.Error(), tt.wantErr.Error()))
		})
	}
}

const hex64 = "0123456789abcdef0123456789abcdef0123456789abcdef0123456789abcdef"
