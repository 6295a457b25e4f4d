package config

// ProjectFile represents the structure of the Twoliter.toml project file.
type ProjectFile struct {
	SchemaVersion  int                  `toml:"schema-version"`
	ReleaseVersion string               `toml:"release-version"`
	Vendors        map[string]VendorDTO `toml:"vendor"`
	SDK            *ImageDTO            `toml:"sdk"`
	Kits           []ImageDTO           `toml:"kit"`
}

// VendorDTO represents a vendor table.
type VendorDTO struct {
	Registry string `toml:"registry"`
}

// ImageDTO represents a declared SDK or kit dependency.
type ImageDTO struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
	Vendor  string `toml:"vendor"`
}

// OverrideFile represents Twoliter.override, keyed by vendor then artifact name.
type OverrideFile map[string]map[string]OverrideDTO

// OverrideDTO replaces the repository name and/or registry of one artifact.
type OverrideDTO struct {
	Name     string `toml:"name"`
	Registry string `toml:"registry"`
}
