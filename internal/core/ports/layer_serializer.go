package ports

import (
	"io"

	"github.com/opencontainers/go-digest"
	"github.com/stratabuild/strata/internal/core/domain"
)

// LayerSerializer turns a staged filesystem tree into a compressed layer blob.
//
//go:generate go run go.uber.org/mock/mockgen -source=layer_serializer.go -destination=mocks/mock_layer_serializer.go -package=mocks
type LayerSerializer interface {
	// Serialize writes the tree rooted at root as a deterministic compressed
	// tar stream to w and returns the diff ID of the uncompressed stream.
	// When owner is non-nil every entry is stamped with its uid and gid.
	Serialize(w io.Writer, root string, owner *domain.Identity) (digest.Digest, error)
}
