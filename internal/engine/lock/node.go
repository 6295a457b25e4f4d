package lock

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/twoliter/internal/adapters/imagetool" //nolint:depguard // Wired in engine wiring
	"go.trai.ch/twoliter/internal/adapters/logger"    //nolint:depguard // Wired in engine wiring
	"go.trai.ch/twoliter/internal/core/ports"
)

// NodeID is the unique identifier for the locker Graft node.
const NodeID graft.ID = "engine.lock"

func init() {
	graft.Register(graft.Node[*Locker]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			imagetool.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Locker, error) {
			tool, err := graft.Dep[ports.ImageTool](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return NewLocker(tool, log), nil
		},
	})
}
