package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/twoliter/internal/core/ports"
)

// MarkersNodeID is the unique identifier for the verification marker store Graft node.
const MarkersNodeID graft.ID = "adapter.fs.markers"

func init() {
	graft.Register(graft.Node[ports.MarkerStore]{
		ID:        MarkersNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.MarkerStore, error) {
			return NewMarkers(), nil
		},
	})
}
