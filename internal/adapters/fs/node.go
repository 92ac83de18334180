package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"github.com/stratabuild/strata/internal/core/ports"
)

const (
	// WalkerNodeID is the unique identifier for the walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// HasherNodeID is the unique identifier for the hasher Graft node.
	HasherNodeID graft.ID = "adapter.fs.hasher"
	// CopierNodeID is the unique identifier for the copier Graft node.
	CopierNodeID graft.ID = "adapter.fs.copier"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.TreeHasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.TreeHasher, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewHasher(walker), nil
		},
	})

	graft.Register(graft.Node[ports.TreeCopier]{
		ID:        CopierNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID},
		Run: func(ctx context.Context) (ports.TreeCopier, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			return NewCopier(walker), nil
		},
	})
}
