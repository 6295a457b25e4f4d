// Package ports defines the core interfaces for the application.
package ports

import (
	"context"

	"go.trai.ch/twoliter/internal/core/domain"
)

// ImageTool talks to container registries on behalf of the resolver.
//
// Implementations do not retry at this boundary beyond what their own
// transport does, and must not interpret the content they return.
//
//go:generate go run go.uber.org/mock/mockgen -source=image_tool.go -destination=mocks/mock_image_tool.go -package=mocks
type ImageTool interface {
	// PullOCIImage pulls the image at uri and writes it as an OCI image layout
	// directory (oci-layout, index.json, blobs/) at path.
	PullOCIImage(ctx context.Context, path, uri string) error

	// GetManifest returns the raw bytes of the manifest (or manifest list) at uri.
	GetManifest(ctx context.Context, uri string) ([]byte, error)

	// GetConfig returns the decoded image configuration of the image at uri.
	// Errors carry domain.ErrConfigFetchFailed or domain.ErrConfigParseFailed.
	GetConfig(ctx context.Context, uri string) (*domain.ContainerConfig, error)
}
