package cas

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/stratabuild/strata/internal/adapters/settings"
	"github.com/stratabuild/strata/internal/core/ports"
)

// NodeID is the unique identifier for the layer store Graft node.
const NodeID graft.ID = "adapter.layer_store"

func init() {
	graft.Register(graft.Node[ports.LayerStore]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID},
		Run: func(ctx context.Context) (ports.LayerStore, error) {
			cfg, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewStore(cfg.StateDir)
		},
	})
}
