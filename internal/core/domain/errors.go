package domain

import "go.trai.ch/zerr"

var (
	// ErrProjectNotFound is returned when no Twoliter.toml can be found.
	ErrProjectNotFound = zerr.New("could not find Twoliter.toml")

	// ErrProjectReadFailed is returned when the project file cannot be read.
	ErrProjectReadFailed = zerr.New("failed to read project file")

	// ErrProjectParseFailed is returned when the project file cannot be parsed.
	ErrProjectParseFailed = zerr.New("failed to parse project file")

	// ErrOverrideParseFailed is returned when the override file cannot be parsed.
	ErrOverrideParseFailed = zerr.New("failed to parse override file")

	// ErrInvalidVersion is returned when a declared version is not a semantic version.
	ErrInvalidVersion = zerr.New("invalid semantic version")

	// ErrInvalidImage is returned when a declared image is missing a name or vendor.
	ErrInvalidImage = zerr.New("invalid image declaration")

	// ErrVendorNotFound is returned when an image references a vendor the project does not declare.
	ErrVendorNotFound = zerr.New("vendor is not declared in Twoliter.toml")

	// ErrKitVersionConflict is returned when two requesters need different versions of the same kit.
	ErrKitVersionConflict = zerr.New("cannot resolve diamond dependency on kit")

	// ErrMultipleSDKs is returned when more than one SDK is reachable from the project.
	ErrMultipleSDKs = zerr.New("cannot use multiple SDKs")

	// ErrNoSDK is returned when no SDK is reachable from the project.
	ErrNoSDK = zerr.New("no SDK found, declare an SDK in Twoliter.toml or depend on a kit")

	// ErrManifestFetchFailed is returned when the image tool fails to fetch a manifest.
	ErrManifestFetchFailed = zerr.New("failed to fetch image manifest")

	// ErrManifestParseFailed is returned when a manifest or manifest list cannot be decoded.
	ErrManifestParseFailed = zerr.New("failed to parse image manifest")

	// ErrEmptyManifestList is returned when a manifest list carries no platform entries.
	ErrEmptyManifestList = zerr.New("manifest list contains no manifests")

	// ErrInvalidReference is returned when an image URI is not a valid reference.
	ErrInvalidReference = zerr.New("invalid image reference")

	// ErrUnknownImageTool is returned when TWOLITER_IMAGE_TOOL names an unsupported tool.
	ErrUnknownImageTool = zerr.New("unknown image tool, expected docker or registry")

	// ErrConfigFetchFailed is returned when the image tool fails to fetch an image config.
	ErrConfigFetchFailed = zerr.New("failed to fetch image config")

	// ErrConfigParseFailed is returned when a fetched image config cannot be decoded.
	ErrConfigParseFailed = zerr.New("failed to parse image config")

	// ErrPullFailed is returned when an image archive cannot be pulled.
	ErrPullFailed = zerr.New("failed to pull image archive")

	// ErrArchNotFound is returned when an image has no manifest for the requested architecture.
	ErrArchNotFound = zerr.New("image has no manifest for architecture")

	// ErrMetadataMissing is returned when an image carries no kit metadata label at all.
	ErrMetadataMissing = zerr.New("image carries no kit metadata, is it a kit?")

	// ErrMetadataOlder is returned when an image carries metadata from an older schema.
	ErrMetadataOlder = zerr.New("kit metadata is older than this version of twoliter supports, rebuild the kit")

	// ErrMetadataNewer is returned when an image carries metadata from a newer schema.
	ErrMetadataNewer = zerr.New("kit metadata is newer than this version of twoliter supports, upgrade twoliter")

	// ErrMetadataDecodeFailed is returned when the kit metadata label cannot be decoded.
	ErrMetadataDecodeFailed = zerr.New("failed to decode kit metadata")

	// ErrMetadataMismatch is returned when a kit's metadata differs between architectures.
	ErrMetadataMismatch = zerr.New("kit metadata differs between architectures")

	// ErrArchiveUnpackFailed is returned when image layers cannot be unpacked.
	ErrArchiveUnpackFailed = zerr.New("failed to unpack image layers")

	// ErrUnsafeLayerPath is returned when a layer entry would escape the output directory.
	ErrUnsafeLayerPath = zerr.New("layer entry escapes output directory")

	// ErrLockNotFound is returned when Twoliter.lock does not exist.
	ErrLockNotFound = zerr.New("Twoliter.lock does not exist, run 'twoliter update' to create it")

	// ErrLockReadFailed is returned when the lockfile cannot be read or decoded.
	ErrLockReadFailed = zerr.New("failed to read Twoliter.lock")

	// ErrLockWriteFailed is returned when the lockfile cannot be written.
	ErrLockWriteFailed = zerr.New("failed to write Twoliter.lock")

	// ErrLockChanged is returned when the lockfile no longer matches the project or registry.
	ErrLockChanged = zerr.New(
		"Twoliter.toml or remote kit images have changed compared to Twoliter.lock, run 'twoliter update'",
	)

	// ErrArchRequired is returned when kits are fetched without a target architecture.
	ErrArchRequired = zerr.New("an architecture is required to fetch kits")

	// ErrMarkerWriteFailed is returned when a verification marker cannot be written.
	ErrMarkerWriteFailed = zerr.New("failed to write verification marker")

	// ErrMarkerRemoveFailed is returned when a stale verification marker cannot be removed.
	ErrMarkerRemoveFailed = zerr.New("failed to remove verification marker")

	// ErrMarkersStale is returned when marker files do not match the current lock.
	ErrMarkersStale = zerr.New("verification markers do not match Twoliter.lock, run 'twoliter fetch'")

	// ErrMetadataFileWriteFailed is returned when external-kit-metadata.json cannot be written.
	ErrMetadataFileWriteFailed = zerr.New("failed to write external kit metadata")
)
