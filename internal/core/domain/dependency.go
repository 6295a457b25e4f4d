package domain

import (
	"fmt"

	"github.com/Masterminds/semver"
	"go.trai.ch/zerr"
)

// Version is a normalized semantic version string (e.g., "1.0.0").
type Version string

// NewVersion parses s as a semantic version and returns its normalized form.
func NewVersion(s string) (Version, error) {
	v, err := semver.NewVersion(s)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, ErrInvalidVersion.Error()), "version", s)
	}
	return Version(v.String()), nil
}

// String returns the version without any prefix.
func (v Version) String() string {
	return string(v)
}

// Tag returns the image tag kits and SDKs are published under (e.g., "v1.0.0").
func (v Version) Tag() string {
	return "v" + string(v)
}

// Image is a declared dependency on a vendor-published kit or SDK image.
// It identifies an intent, not a concrete artifact.
type Image struct {
	Name    string  `json:"name"    toml:"name"`
	Version Version `json:"version" toml:"version"`
	Vendor  string  `json:"vendor"  toml:"vendor"`
}

// NewImage validates the fields of a declared image and normalizes its version.
func NewImage(name, version, vendor string) (Image, error) {
	if name == "" || vendor == "" {
		err := zerr.With(ErrInvalidImage, "name", name)
		return Image{}, zerr.With(err, "vendor", vendor)
	}
	v, err := NewVersion(version)
	if err != nil {
		return Image{}, zerr.With(err, "image", name)
	}
	return Image{Name: name, Version: v, Vendor: vendor}, nil
}

// Key returns the (name, vendor) pair used to detect conflicting versions.
func (i Image) Key() ImageKey {
	return ImageKey{Name: i.Name, Vendor: i.Vendor}
}

// String renders the image as name-version@vendor.
func (i Image) String() string {
	return fmt.Sprintf("%s-%s@%s", i.Name, i.Version, i.Vendor)
}

// ImageKey identifies a kit independent of its version.
type ImageKey struct {
	Name   string
	Vendor string
}

// Vendor maps a vendor identifier to the registry its images are published in.
type Vendor struct {
	Registry string `toml:"registry"`
}

// Override substitutes the registry or repository name used for one vendor's artifact.
// Empty fields keep the vendor's defaults.
type Override struct {
	Name     string `toml:"name,omitempty"`
	Registry string `toml:"registry,omitempty"`
}

// ContainerConfig is the subset of an OCI image configuration the resolver reads.
type ContainerConfig struct {
	Labels map[string]string `json:"Labels"`
}
