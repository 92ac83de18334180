package ports

import (
	"io"

	"github.com/opencontainers/go-digest"
	"github.com/stratabuild/strata/internal/core/domain"
)

// LayerStore is the layer cache: a content-addressed blob store plus an index
// from build-step cache keys to layer descriptors. Reusing an indexed layer
// across builds is what makes the dependency-installation step cache-friendly.
//
//go:generate go run go.uber.org/mock/mockgen -source=layer_store.go -destination=mocks/mock_layer_store.go -package=mocks
type LayerStore interface {
	// Stat returns the cached layer descriptor for a step key.
	// Returns nil, nil on a cache miss.
	Stat(key string) (*domain.Layer, error)

	// Commit stores the compressed blob and indexes its descriptor under key.
	// diffID is the digest of the uncompressed tar stream.
	Commit(key string, blob io.Reader, diffID digest.Digest, mediaType string) (domain.Layer, error)

	// Blob opens the compressed blob for the given digest.
	Blob(d digest.Digest) (io.ReadCloser, error)
}
