package domain

import (
	"path/filepath"

	"go.trai.ch/zerr"
)

// Project is a loaded Twoliter.toml together with its optional override file.
type Project struct {
	// Dir is the absolute directory containing Twoliter.toml.
	Dir string

	// SchemaVersion is the project file schema version, copied into the lock.
	SchemaVersion int

	// ReleaseVersion is the version of the variant being built.
	ReleaseVersion string

	// SDK is the directly declared SDK, if any.
	SDK *Image

	// Kits are the directly declared kit dependencies.
	Kits []Image

	// Vendors maps vendor names to registries.
	Vendors map[string]Vendor

	// Overrides maps vendor name, then artifact name, to an override.
	Overrides map[string]map[string]Override
}

// Vendor looks up a declared vendor by name.
func (p *Project) Vendor(name string) (Vendor, error) {
	v, ok := p.Vendors[name]
	if !ok {
		return Vendor{}, zerr.With(ErrVendorNotFound, "vendor", name)
	}
	return v, nil
}

// Override returns the override for an artifact of a vendor, if one exists.
func (p *Project) Override(vendor, name string) *Override {
	byName, ok := p.Overrides[vendor]
	if !ok {
		return nil
	}
	o, ok := byName[name]
	if !ok {
		return nil
	}
	return &o
}

// LockPath returns the path of the project's lockfile.
func (p *Project) LockPath() string {
	return filepath.Join(p.Dir, LockFileName)
}

// ExternalKitsDir returns the directory resolved kits are extracted into.
func (p *Project) ExternalKitsDir() string {
	return ExternalKitsPath(p.Dir)
}
