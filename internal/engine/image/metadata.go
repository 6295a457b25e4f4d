package image

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"go.trai.ch/twoliter/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	// MetadataLabelPrefix is the prefix shared by every kit metadata label.
	MetadataLabelPrefix = "dev.bottlerocket.kit."

	// SupportedMetadataVersion is the kit metadata schema version this resolver reads.
	SupportedMetadataVersion = 2
)

// MetadataLabel returns the image config label carrying supported kit metadata.
func MetadataLabel() string {
	return metadataLabel(SupportedMetadataVersion)
}

func metadataLabel(version int) string {
	return fmt.Sprintf("%sv%d", MetadataLabelPrefix, version)
}

// EncodeMetadata produces the label value a kit build embeds in its image config.
func EncodeMetadata(m *domain.ImageMetadata) (string, error) {
	data, err := json.Marshal(m)
	if err != nil {
		return "", zerr.Wrap(err, "failed to encode kit metadata")
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DecodeMetadata extracts the kit metadata from image config labels.
//
// When the supported label is absent, labels from other schema versions are
// inspected so the error can say whether the kit or twoliter needs upgrading.
func DecodeMetadata(labels map[string]string) (*domain.ImageMetadata, error) {
	if value, ok := labels[MetadataLabel()]; ok {
		return decodeMetadataValue(value)
	}

	found := make([]string, 0, 1)
	for label := range labels {
		if strings.HasPrefix(label, MetadataLabelPrefix) {
			found = append(found, label)
		}
	}
	slices.Sort(found)

	for _, label := range found {
		version, ok := labelVersion(label)
		if !ok {
			continue
		}
		switch {
		case version < SupportedMetadataVersion:
			err := zerr.With(domain.ErrMetadataOlder, "label", label)
			return nil, zerr.With(err, "supported", MetadataLabel())
		case version > SupportedMetadataVersion:
			err := zerr.With(domain.ErrMetadataNewer, "label", label)
			return nil, zerr.With(err, "supported", MetadataLabel())
		}
	}

	err := zerr.With(domain.ErrMetadataMissing, "expected_label", MetadataLabel())
	if len(found) > 0 {
		err = zerr.With(err, "unrecognized_labels", strings.Join(found, ","))
	}
	return nil, err
}

func labelVersion(label string) (int, bool) {
	suffix, ok := strings.CutPrefix(strings.TrimPrefix(label, MetadataLabelPrefix), "v")
	if !ok {
		return 0, false
	}
	version, err := strconv.Atoi(suffix)
	if err != nil {
		return 0, false
	}
	return version, true
}

func decodeMetadataValue(value string) (*domain.ImageMetadata, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(value))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrMetadataDecodeFailed.Error()), "label", MetadataLabel())
	}

	var m domain.ImageMetadata
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, zerr.With(zerr.Wrap(err, domain.ErrMetadataDecodeFailed.Error()), "label", MetadataLabel())
	}

	return normalizeMetadata(&m)
}

// normalizeMetadata validates every declared version so that metadata built by
// different tools compares equal when it declares the same requirements.
func normalizeMetadata(m *domain.ImageMetadata) (*domain.ImageMetadata, error) {
	version, err := domain.NewVersion(m.Version.String())
	if err != nil {
		return nil, zerr.With(err, "kit", m.Name)
	}

	sdk, err := domain.NewImage(m.SDK.Name, m.SDK.Version.String(), m.SDK.Vendor)
	if err != nil {
		return nil, zerr.With(zerr.With(err, "kit", m.Name), "field", "sdk")
	}

	kits := make([]domain.Image, 0, len(m.Kits))
	for _, k := range m.Kits {
		kit, err := domain.NewImage(k.Name, k.Version.String(), k.Vendor)
		if err != nil {
			return nil, zerr.With(zerr.With(err, "kit", m.Name), "field", "kit")
		}
		kits = append(kits, kit)
	}

	return &domain.ImageMetadata{
		Name:    m.Name,
		Version: version,
		SDK:     sdk,
		Kits:    kits,
	}, nil
}
