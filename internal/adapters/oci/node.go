package oci

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/stratabuild/strata/internal/adapters/cas"
	"github.com/stratabuild/strata/internal/core/ports"
)

const (
	// ResolverNodeID is the unique identifier for the base resolver Graft node.
	ResolverNodeID graft.ID = "adapter.oci.resolver"
	// WriterNodeID is the unique identifier for the image writer Graft node.
	WriterNodeID graft.ID = "adapter.oci.writer"
	// SerializerNodeID is the unique identifier for the layer serializer Graft node.
	SerializerNodeID graft.ID = "adapter.oci.serializer"
)

func init() {
	graft.Register(graft.Node[ports.BaseResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.BaseResolver, error) {
			return NewBaseResolver(), nil
		},
	})

	graft.Register(graft.Node[ports.ImageWriter]{
		ID:        WriterNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{cas.NodeID},
		Run: func(ctx context.Context) (ports.ImageWriter, error) {
			store, err := graft.Dep[ports.LayerStore](ctx)
			if err != nil {
				return nil, err
			}
			return NewWriter(store), nil
		},
	})

	graft.Register(graft.Node[ports.LayerSerializer]{
		ID:        SerializerNodeID,
		Cacheable: true,
		Run: func(ctx context.Context) (ports.LayerSerializer, error) {
			return NewSerializer(), nil
		},
	})
}
