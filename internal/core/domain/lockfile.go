package domain

import (
	"cmp"
	"slices"
)

// Lock is the fully pinned record of a project's resolved SDK and kits.
// It is persisted as Twoliter.lock and never mutated in place.
type Lock struct {
	// SchemaVersion is copied from the project that produced the lock.
	SchemaVersion int `toml:"schema-version"`

	// SDK is the single SDK reachable from the project.
	SDK LockedImage `toml:"sdk"`

	// Kits holds every transitively required kit.
	Kits []LockedImage `toml:"kit"`
}

// Equal compares two locks structurally. Kits are compared as a set keyed by
// (source, digest) so that resolution order never causes a spurious mismatch.
func (l *Lock) Equal(o *Lock) bool {
	if l == nil || o == nil {
		return l == o
	}
	if l.SchemaVersion != o.SchemaVersion || !l.SDK.Equal(o.SDK) {
		return false
	}
	return sameArtifacts(l.Kits, o.Kits)
}

// Sorted returns a copy of the lock with kits ordered by name, vendor, then version.
// The order only exists to keep the persisted file stable and diff-friendly.
func (l *Lock) Sorted() *Lock {
	kits := slices.Clone(l.Kits)
	slices.SortStableFunc(kits, func(a, b LockedImage) int {
		return cmp.Or(
			cmp.Compare(a.Name, b.Name),
			cmp.Compare(a.Vendor, b.Vendor),
			cmp.Compare(a.Version, b.Version),
		)
	})
	return &Lock{SchemaVersion: l.SchemaVersion, SDK: l.SDK, Kits: kits}
}

func sameArtifacts(a, b []LockedImage) bool {
	left := make(map[ArtifactKey]struct{}, len(a))
	for _, img := range a {
		left[img.Key()] = struct{}{}
	}
	right := make(map[ArtifactKey]struct{}, len(b))
	for _, img := range b {
		if _, ok := left[img.Key()]; !ok {
			return false
		}
		right[img.Key()] = struct{}{}
	}
	return len(left) == len(right)
}

// LockedSDK is a verified artifact set containing only the SDK.
type LockedSDK struct {
	SDK LockedImage
}
