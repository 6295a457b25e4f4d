package ports

import "go.trai.ch/twoliter/internal/core/domain"

// ProjectLoader defines the interface for loading the project declaration.
//
//go:generate go run go.uber.org/mock/mockgen -source=config_loader.go -destination=mocks/mock_config_loader.go -package=mocks
type ProjectLoader interface {
	// Load finds Twoliter.toml starting at path, walking up parent directories,
	// and returns the project together with any Twoliter.override entries.
	Load(path string) (*domain.Project, error)
}
