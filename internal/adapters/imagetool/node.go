package imagetool

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/twoliter/internal/core/ports"
)

// NodeID is the unique identifier for the image tool Graft node.
const NodeID graft.ID = "adapter.imagetool"

func init() {
	graft.Register(graft.Node[ports.ImageTool]{
		ID:        NodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ImageTool, error) {
			return FromEnvironment(OSEnvironment())
		},
	})
}
