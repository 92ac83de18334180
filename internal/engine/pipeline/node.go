package pipeline

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/stratabuild/strata/internal/adapters/cas"               //nolint:depguard // Wired in engine wiring
	"github.com/stratabuild/strata/internal/adapters/fs"                //nolint:depguard // Wired in engine wiring
	"github.com/stratabuild/strata/internal/adapters/logger"            //nolint:depguard // Wired in engine wiring
	"github.com/stratabuild/strata/internal/adapters/manifest"          //nolint:depguard // Wired in engine wiring
	"github.com/stratabuild/strata/internal/adapters/oci"               //nolint:depguard // Wired in engine wiring
	"github.com/stratabuild/strata/internal/adapters/repo"              //nolint:depguard // Wired in engine wiring
	telemetry "github.com/stratabuild/strata/internal/adapters/telemetry/progrock" //nolint:depguard // Wired in engine wiring
	"github.com/stratabuild/strata/internal/core/ports"
)

// NodeID is the unique identifier for the pipeline Graft node.
const NodeID graft.ID = "engine.pipeline"

func init() {
	graft.Register(graft.Node[ports.Builder]{
		ID:        NodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			manifest.NodeID,
			oci.ResolverNodeID,
			oci.SerializerNodeID,
			repo.NodeID,
			fs.HasherNodeID,
			fs.CopierNodeID,
			cas.NodeID,
			telemetry.NodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (ports.Builder, error) {
			manifests, err := graft.Dep[ports.ManifestLoader](ctx)
			if err != nil {
				return nil, err
			}

			resolver, err := graft.Dep[ports.BaseResolver](ctx)
			if err != nil {
				return nil, err
			}

			serializer, err := graft.Dep[ports.LayerSerializer](ctx)
			if err != nil {
				return nil, err
			}

			fetcher, err := graft.Dep[ports.Fetcher](ctx)
			if err != nil {
				return nil, err
			}

			hasher, err := graft.Dep[ports.TreeHasher](ctx)
			if err != nil {
				return nil, err
			}

			copier, err := graft.Dep[ports.TreeCopier](ctx)
			if err != nil {
				return nil, err
			}

			store, err := graft.Dep[ports.LayerStore](ctx)
			if err != nil {
				return nil, err
			}

			tel, err := graft.Dep[ports.Telemetry](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(Deps{
				Manifests:  manifests,
				Resolver:   resolver,
				Fetcher:    fetcher,
				Hasher:     hasher,
				Copier:     copier,
				Serializer: serializer,
				Store:      store,
				Telemetry:  tel,
				Logger:     log,
			}), nil
		},
	})
}
