package repo

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/stratabuild/strata/internal/adapters/settings"
	"github.com/stratabuild/strata/internal/core/ports"
)

// NodeID is the unique identifier for the fetcher Graft node.
const NodeID graft.ID = "adapter.fetcher"

func init() {
	graft.Register(graft.Node[ports.Fetcher]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{settings.NodeID},
		Run: func(ctx context.Context) (ports.Fetcher, error) {
			cfg, err := graft.Dep[*settings.Settings](ctx)
			if err != nil {
				return nil, err
			}
			return NewFetcher(cfg.Repositories), nil
		},
	})
}
