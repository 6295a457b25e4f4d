package domain

import "path/filepath"

const (
	// ProjectFileName is the name of the project declaration file.
	ProjectFileName = "Twoliter.toml"

	// OverrideFileName is the name of the optional per-artifact override file.
	OverrideFileName = "Twoliter.override"

	// LockFileName is the name of the persisted lockfile.
	LockFileName = "Twoliter.lock"

	// BuildDirName is the name of the project's build output directory.
	BuildDirName = "build"

	// ExternalKitsDirName is the directory kits are extracted into, under the build directory.
	ExternalKitsDirName = "external-kits"

	// CacheDirName is the content addressed archive cache, under the external kits directory.
	CacheDirName = "cache"

	// DigestMarkerFileName marks an unpacked directory with the digest it was populated from.
	DigestMarkerFileName = "digest"

	// ExternalKitMetadataFileName holds the resolved SDK and kits for the package build.
	ExternalKitMetadataFileName = "external-kit-metadata.json"

	// SDKVerifiedFileName is the marker recording that the SDK was verified.
	SDKVerifiedFileName = ".sdk-verified"

	// KitsVerifiedFileName is the marker recording that external kits were verified.
	KitsVerifiedFileName = ".kits-verified"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// ExternalKitsPath returns the external kits directory under a project directory.
func ExternalKitsPath(projectDir string) string {
	return filepath.Join(projectDir, BuildDirName, ExternalKitsDirName)
}

// CachePath returns the archive cache directory under an external kits directory.
func CachePath(externalKitsDir string) string {
	return filepath.Join(externalKitsDir, CacheDirName)
}
