package oci

import (
	"io"

	"github.com/opencontainers/go-digest"

	"github.com/stratabuild/strata/internal/core/domain"
	"github.com/stratabuild/strata/internal/core/ports"
)

var _ ports.LayerSerializer = (*Serializer)(nil)

// Serializer implements layer serialization on top of WriteLayer.
type Serializer struct{}

// NewSerializer creates a Serializer.
func NewSerializer() *Serializer {
	return &Serializer{}
}

// Serialize writes the staged tree as a deterministic gzip tar stream.
func (s *Serializer) Serialize(w io.Writer, root string, owner *domain.Identity) (digest.Digest, error) {
	return WriteLayer(w, root, owner)
}
