package lock_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/twoliter/internal/core/ports/mocks"
	"go.trai.ch/twoliter/internal/engine/image"
	"go.trai.ch/twoliter/internal/engine/image/imagetest"
	"go.trai.ch/twoliter/internal/engine/lock"
	"go.uber.org/mock/gomock"
)

const (
	registry = "example.com/bottlerocket"
	vendor   = "bottlerocket"
)

func img(t *testing.T, name, version string) domain.Image {
	t.Helper()
	i, err := domain.NewImage(name, version, vendor)
	require.NoError(t, err)
	return i
}

func newProject(t *testing.T, kits ...domain.Image) *domain.Project {
	t.Helper()
	return &domain.Project{
		Dir:           t.TempDir(),
		SchemaVersion: 1,
		Kits:          kits,
		Vendors:       map[string]domain.Vendor{vendor: {Registry: registry}},
	}
}

func newLocker(t *testing.T, reg *imagetest.Registry) *lock.Locker {
	t.Helper()
	ctrl := gomock.NewController(t)
	logger := mocks.NewMockLogger(ctrl)
	logger.EXPECT().Info(gomock.Any()).AnyTimes()
	return lock.NewLocker(reg, logger)
}

func pushKit(t *testing.T, reg *imagetest.Registry, name, version, sdkVersion string, deps ...domain.Image) string {
	t.Helper()
	return reg.PushKit(t, registry+"/"+name, &domain.ImageMetadata{
		Name:    name,
		Version: domain.Version(version),
		SDK:     img(t, "my-sdk", sdkVersion),
		Kits:    deps,
	}, "x86_64", "aarch64")
}

func TestLocker_Resolve_CoreKit(t *testing.T) {
	reg := imagetest.NewRegistry()
	kitDigest := pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
	sdkDigest := reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64", "aarch64")

	project := newProject(t, img(t, "core-kit", "1.0.0"))

	got, err := newLocker(t, reg).Resolve(context.Background(), project)
	require.NoError(t, err)

	want := &domain.Lock{
		SchemaVersion: 1,
		SDK: domain.LockedImage{
			Name: "my-sdk", Version: "1.0.0", Vendor: vendor,
			Source: registry + "/my-sdk:v1.0.0", Digest: sdkDigest,
		},
		Kits: []domain.LockedImage{{
			Name: "core-kit", Version: "1.0.0", Vendor: vendor,
			Source: registry + "/core-kit:v1.0.0", Digest: kitDigest,
		}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Resolve() mismatch (-want +got):\n%s", diff)
	}
}

func TestLocker_Resolve_Idempotent(t *testing.T) {
	reg := imagetest.NewRegistry()
	pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
	pushKit(t, reg, "extra-kit", "2.1.0", "1.0.0", img(t, "core-kit", "1.0.0"))
	reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

	project := newProject(t, img(t, "extra-kit", "2.1.0"))
	locker := newLocker(t, reg)

	first, err := locker.Resolve(context.Background(), project)
	require.NoError(t, err)
	second, err := locker.Resolve(context.Background(), project)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	a, err := lock.Encode(first)
	require.NoError(t, err)
	b, err := lock.Encode(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestLocker_Resolve_Diamond(t *testing.T) {
	reg := imagetest.NewRegistry()
	pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
	pushKit(t, reg, "left-kit", "1.0.0", "1.0.0", img(t, "core-kit", "1.0.0"))
	pushKit(t, reg, "right-kit", "1.0.0", "1.0.0", img(t, "core-kit", "1.0.0"))
	reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

	project := newProject(t, img(t, "left-kit", "1.0.0"), img(t, "right-kit", "1.0.0"))

	got, err := newLocker(t, reg).Resolve(context.Background(), project)
	require.NoError(t, err)

	names := make([]string, 0, len(got.Kits))
	for _, k := range got.Kits {
		names = append(names, k.Name)
	}
	assert.ElementsMatch(t, []string{"left-kit", "right-kit", "core-kit"}, names)
	assert.Equal(t, 1, reg.Calls(registry+"/core-kit:v1.0.0"), "shared dependency is resolved once")
}

func TestLocker_Resolve_Errors(t *testing.T) {
	t.Run("version conflict", func(t *testing.T) {
		reg := imagetest.NewRegistry()
		pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
		pushKit(t, reg, "core-kit", "2.0.0", "1.0.0")
		pushKit(t, reg, "left-kit", "1.0.0", "1.0.0", img(t, "core-kit", "1.0.0"))
		pushKit(t, reg, "right-kit", "1.0.0", "1.0.0", img(t, "core-kit", "2.0.0"))
		reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

		project := newProject(t, img(t, "left-kit", "1.0.0"), img(t, "right-kit", "1.0.0"))
		_, err := newLocker(t, reg).Resolve(context.Background(), project)
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrKitVersionConflict.Error())
		assert.Contains(t, err.Error(), "1.0.0")
		assert.Contains(t, err.Error(), "2.0.0")
	})

	t.Run("multiple sdks by version", func(t *testing.T) {
		reg := imagetest.NewRegistry()
		pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
		pushKit(t, reg, "extra-kit", "1.0.0", "2.0.0")

		project := newProject(t, img(t, "core-kit", "1.0.0"), img(t, "extra-kit", "1.0.0"))
		_, err := newLocker(t, reg).Resolve(context.Background(), project)
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrMultipleSDKs.Error())
		assert.Contains(t, err.Error(), "my-sdk-1.0.0@bottlerocket")
		assert.Contains(t, err.Error(), "my-sdk-2.0.0@bottlerocket")
	})

	t.Run("multiple sdks by vendor", func(t *testing.T) {
		reg := imagetest.NewRegistry()
		pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")

		project := newProject(t, img(t, "core-kit", "1.0.0"))
		project.SDK = &domain.Image{Name: "my-sdk", Version: "1.0.0", Vendor: "custom"}
		_, err := newLocker(t, reg).Resolve(context.Background(), project)
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrMultipleSDKs.Error())
		assert.Contains(t, err.Error(), "my-sdk-1.0.0@bottlerocket")
		assert.Contains(t, err.Error(), "my-sdk-1.0.0@custom")
	})

	t.Run("multiple sdks by name", func(t *testing.T) {
		reg := imagetest.NewRegistry()
		pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")

		project := newProject(t, img(t, "core-kit", "1.0.0"))
		project.SDK = &domain.Image{Name: "other-sdk", Version: "1.0.0", Vendor: vendor}
		_, err := newLocker(t, reg).Resolve(context.Background(), project)
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrMultipleSDKs.Error())
		assert.Contains(t, err.Error(), "my-sdk-1.0.0@bottlerocket")
		assert.Contains(t, err.Error(), "other-sdk-1.0.0@bottlerocket")
	})

	t.Run("no sdk", func(t *testing.T) {
		_, err := newLocker(t, imagetest.NewRegistry()).Resolve(context.Background(), newProject(t))
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrNoSDK.Error())
	})

	t.Run("undeclared vendor", func(t *testing.T) {
		project := newProject(t, domain.Image{Name: "core-kit", Version: "1.0.0", Vendor: "nobody"})
		_, err := newLocker(t, imagetest.NewRegistry()).Resolve(context.Background(), project)
		require.Error(t, err)
		assert.Contains(t, err.Error(), domain.ErrVendorNotFound.Error())
	})

	t.Run("canceled", func(t *testing.T) {
		reg := imagetest.NewRegistry()
		pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := newLocker(t, reg).Resolve(ctx, newProject(t, img(t, "core-kit", "1.0.0")))
		require.ErrorIs(t, err, context.Canceled)
	})
}

func TestLocker_Resolve_DirectSDKOnly(t *testing.T) {
	reg := imagetest.NewRegistry()
	digest := reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

	project := newProject(t)
	sdk := img(t, "my-sdk", "1.0.0")
	project.SDK = &sdk

	got, err := newLocker(t, reg).Resolve(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, digest, got.SDK.Digest)
	assert.Empty(t, got.Kits)
}

func TestLocker_Resolve_Override(t *testing.T) {
	reg := imagetest.NewRegistry()
	reg.PushKit(t, "mirror.local/my-core-kit", &domain.ImageMetadata{
		Name: "core-kit", Version: "1.0.0", SDK: img(t, "my-sdk", "1.0.0"),
	}, "x86_64")
	reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

	project := newProject(t, img(t, "core-kit", "1.0.0"))
	project.Overrides = map[string]map[string]domain.Override{
		vendor: {"core-kit": {Name: "my-core-kit", Registry: "mirror.local"}},
	}

	got, err := newLocker(t, reg).Resolve(context.Background(), project)
	require.NoError(t, err)
	require.Len(t, got.Kits, 1)
	assert.Equal(t, "mirror.local/my-core-kit:v1.0.0", got.Kits[0].Source)
	assert.Equal(t, "core-kit", got.Kits[0].Name)
}

func TestLocker_CreateLoad(t *testing.T) {
	reg := imagetest.NewRegistry()
	pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
	reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

	project := newProject(t, img(t, "core-kit", "1.0.0"))
	locker := newLocker(t, reg)

	_, err := locker.Load(context.Background(), project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrLockNotFound.Error())

	created, err := locker.Create(context.Background(), project)
	require.NoError(t, err)
	require.FileExists(t, project.LockPath())

	loaded, err := locker.Load(context.Background(), project)
	require.NoError(t, err)
	assert.True(t, created.Equal(loaded))

	sdk, err := locker.LoadSDK(context.Background(), project)
	require.NoError(t, err)
	assert.Equal(t, created.SDK, sdk.SDK)
}

func TestLocker_Load_DetectsDriftAndRecovers(t *testing.T) {
	reg := imagetest.NewRegistry()
	pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
	reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

	project := newProject(t, img(t, "core-kit", "1.0.0"))
	locker := newLocker(t, reg)
	_, err := locker.Create(context.Background(), project)
	require.NoError(t, err)

	restore := reg.Save(registry+"/core-kit", "v1.0.0")
	reg.Push(t, registry+"/core-kit", "v1.0.0", imagetest.Platform{
		Arch:   "x86_64",
		Labels: reg.Labels(t, &domain.ImageMetadata{Name: "core-kit", Version: "1.0.0", SDK: img(t, "my-sdk", "1.0.0")}),
		Files:  map[string][]byte{"rebuilt": []byte("yes")},
	})

	_, err = locker.Load(context.Background(), project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrLockChanged.Error())

	restore()
	_, err = locker.Load(context.Background(), project)
	require.NoError(t, err)
}

func TestLocker_Load_DetectsProjectChange(t *testing.T) {
	reg := imagetest.NewRegistry()
	pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
	pushKit(t, reg, "core-kit", "1.1.0", "1.0.0")
	reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

	project := newProject(t, img(t, "core-kit", "1.0.0"))
	locker := newLocker(t, reg)
	_, err := locker.Create(context.Background(), project)
	require.NoError(t, err)

	project.Kits = []domain.Image{img(t, "core-kit", "1.1.0")}
	_, err = locker.Load(context.Background(), project)
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrLockChanged.Error())
}

func TestLocker_Create_StableOrder(t *testing.T) {
	reg := imagetest.NewRegistry()
	pushKit(t, reg, "alpha-kit", "1.0.0", "1.0.0")
	pushKit(t, reg, "beta-kit", "1.0.0", "1.0.0")
	pushKit(t, reg, "gamma-kit", "1.0.0", "1.0.0", img(t, "alpha-kit", "1.0.0"))
	reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

	forward := newProject(t, img(t, "gamma-kit", "1.0.0"), img(t, "beta-kit", "1.0.0"))
	reverse := newProject(t, img(t, "beta-kit", "1.0.0"), img(t, "gamma-kit", "1.0.0"))
	locker := newLocker(t, reg)

	_, err := locker.Create(context.Background(), forward)
	require.NoError(t, err)
	_, err = locker.Create(context.Background(), reverse)
	require.NoError(t, err)

	a, err := os.ReadFile(forward.LockPath())
	require.NoError(t, err)
	b, err := os.ReadFile(reverse.LockPath())
	require.NoError(t, err)
	assert.Equal(t, string(a), string(b))
}

func TestLocker_Fetch(t *testing.T) {
	reg := imagetest.NewRegistry()
	pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
	pushKit(t, reg, "extra-kit", "1.0.0", "1.0.0", img(t, "core-kit", "1.0.0"))
	reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

	project := newProject(t, img(t, "extra-kit", "1.0.0"))
	locker := newLocker(t, reg).WithConcurrency(2)
	locked, err := locker.Create(context.Background(), project)
	require.NoError(t, err)

	require.NoError(t, locker.Fetch(context.Background(), project, locked, "aarch64"))

	root := project.ExternalKitsDir()
	for _, name := range []string{"core-kit", "extra-kit"} {
		out := image.ExtractPath(root, img(t, name, "1.0.0"), "aarch64")
		data, err := os.ReadFile(filepath.Join(out, name, "aarch64.txt"))
		require.NoError(t, err)
		assert.Equal(t, name+" 1.0.0", string(data))
	}

	metadataPath := filepath.Join(root, domain.ExternalKitMetadataFileName)
	want, err := lock.MetadataFileContent(locked)
	require.NoError(t, err)
	got, err := os.ReadFile(metadataPath)
	require.NoError(t, err)
	assert.Equal(t, string(want), string(got))

	past := time.Now().Add(-time.Hour).Truncate(time.Second)
	require.NoError(t, os.Chtimes(metadataPath, past, past))
	pulls := reg.TotalPulls()

	require.NoError(t, locker.Fetch(context.Background(), project, locked, "aarch64"))
	assert.Equal(t, pulls, reg.TotalPulls(), "cached archives are not pulled again")

	info, err := os.Stat(metadataPath)
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(past), "identical metadata file is not rewritten")
}

func TestLocker_Fetch_UnknownArch(t *testing.T) {
	reg := imagetest.NewRegistry()
	pushKit(t, reg, "core-kit", "1.0.0", "1.0.0")
	reg.PushSDK(t, registry+"/my-sdk", "1.0.0", "x86_64")

	project := newProject(t, img(t, "core-kit", "1.0.0"))
	locker := newLocker(t, reg)
	locked, err := locker.Create(context.Background(), project)
	require.NoError(t, err)

	err = locker.Fetch(context.Background(), project, locked, "riscv64")
	require.Error(t, err)
	assert.Contains(t, err.Error(), domain.ErrArchNotFound.Error())
	assert.NoFileExists(t, filepath.Join(project.ExternalKitsDir(), domain.ExternalKitMetadataFileName))
}

func TestMetadataFileContent(t *testing.T) {
	l := &domain.Lock{
		SDK: domain.LockedImage{Name: "my-sdk", Version: "1.0.0", Vendor: vendor, Source: "s", Digest: "d"},
		Kits: []domain.LockedImage{
			{Name: "z-kit", Version: "1.0.0", Vendor: vendor, Source: "z", Digest: "zd"},
			{Name: "a-kit", Version: "1.0.0", Vendor: vendor, Source: "a", Digest: "ad"},
		},
	}

	got, err := lock.MetadataFileContent(l)
	require.NoError(t, err)
	assert.Equal(t,
		`{"kit":[{"digest":"ad","name":"a-kit","source":"a","vendor":"bottlerocket","version":"1.0.0"},`+
			`{"digest":"zd","name":"z-kit","source":"z","vendor":"bottlerocket","version":"1.0.0"}],`+
			`"sdk":{"digest":"d","name":"my-sdk","source":"s","vendor":"bottlerocket","version":"1.0.0"}}`,
		string(got))
}
