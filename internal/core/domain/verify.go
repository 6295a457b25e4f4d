package domain

import (
	"slices"

	"github.com/secure-systems-lab/go-securesystemslib/cjson"
	"go.trai.ch/zerr"
)

// TagKind names the kind of artifact set a verification marker certifies.
type TagKind string

const (
	// TagSDK marks the SDK as verified.
	TagSDK TagKind = "sdk"
	// TagKits marks the external kits as verified.
	TagKits TagKind = "kits"
)

// TagKinds lists every marker kind, in the order markers are written.
var TagKinds = []TagKind{TagSDK, TagKits}

// MarkerFile returns the fixed marker file name for the tag kind.
func (k TagKind) MarkerFile() string {
	switch k {
	case TagSDK:
		return SDKVerifiedFileName
	case TagKits:
		return KitsVerifiedFileName
	}
	return "." + string(k) + "-verified"
}

// VerificationManifest is the set of artifact identities a tag certifies.
type VerificationManifest struct {
	entries []string
}

// NewVerificationManifest builds a manifest from identity strings.
// Duplicates are dropped and entries are sorted so the encoding is reproducible.
func NewVerificationManifest(entries ...string) VerificationManifest {
	sorted := slices.Clone(entries)
	slices.Sort(sorted)
	return VerificationManifest{entries: slices.Compact(sorted)}
}

// Entries returns the sorted identities in the manifest.
func (m VerificationManifest) Entries() []string {
	return slices.Clone(m.entries)
}

// Canonical returns the canonical JSON array encoding of the manifest.
func (m VerificationManifest) Canonical() ([]byte, error) {
	entries := m.entries
	if entries == nil {
		entries = []string{}
	}
	data, err := cjson.EncodeCanonical(entries)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to encode verification manifest")
	}
	return data, nil
}

// VerifyTag records that an artifact set of one kind was checked against the lock.
type VerifyTag struct {
	Kind     TagKind
	Manifest VerificationManifest
}

// Tags returns the verification tags certified by a verified lock.
func (l *Lock) Tags() []VerifyTag {
	kits := make([]string, 0, len(l.Kits))
	for _, kit := range l.Kits {
		kits = append(kits, kit.String())
	}
	return []VerifyTag{
		{Kind: TagSDK, Manifest: NewVerificationManifest(l.SDK.String())},
		{Kind: TagKits, Manifest: NewVerificationManifest(kits...)},
	}
}

// Tags returns the verification tags certified by a verified SDK.
func (s *LockedSDK) Tags() []VerifyTag {
	return []VerifyTag{
		{Kind: TagSDK, Manifest: NewVerificationManifest(s.SDK.String())},
	}
}
