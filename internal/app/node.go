package app

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/stratabuild/strata/internal/adapters/config" //nolint:depguard // Wired in app layer
	"github.com/stratabuild/strata/internal/adapters/logger" //nolint:depguard // Wired in app layer
	"github.com/stratabuild/strata/internal/adapters/oci"    //nolint:depguard // Wired in app layer
	"github.com/stratabuild/strata/internal/core/ports"
	"github.com/stratabuild/strata/internal/engine/pipeline"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components contains all the initialized application components.
// This struct provides controlled access to components needed by the CLI layer.
type Components struct {
	App    *App
	Logger ports.Logger
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			pipeline.NodeID,
			oci.WriterNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*App, error) {
			loader, err := graft.Dep[ports.ConfigLoader](ctx)
			if err != nil {
				return nil, err
			}

			builder, err := graft.Dep[ports.Builder](ctx)
			if err != nil {
				return nil, err
			}

			writer, err := graft.Dep[ports.ImageWriter](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return New(loader, builder, writer, log), nil
		},
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
		},
		Run: func(ctx context.Context) (*Components, error) {
			application, err := graft.Dep[*App](ctx)
			if err != nil {
				return nil, err
			}

			log, err := graft.Dep[ports.Logger](ctx)
			if err != nil {
				return nil, err
			}

			return &Components{
				App:    application,
				Logger: log,
			}, nil
		},
	})
}
