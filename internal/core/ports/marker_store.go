package ports

import "go.trai.ch/twoliter/internal/core/domain"

// MarkerStore persists the verification markers the package build trusts.
//
//go:generate go run go.uber.org/mock/mockgen -source=marker_store.go -destination=mocks/mock_marker_store.go -package=mocks
type MarkerStore interface {
	// ClearTags removes every known marker from dir.
	ClearTags(dir string) error

	// WriteTags replaces the markers in dir with tags. On failure no marker is left behind.
	WriteTags(dir string, tags []domain.VerifyTag) error

	// CheckTags reports whether dir holds exactly the markers for tags.
	CheckTags(dir string, tags []domain.VerifyTag) (bool, error)
}
