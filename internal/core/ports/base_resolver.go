package ports

import (
	"context"

	"github.com/stratabuild/strata/internal/core/domain"
)

// BaseResolver resolves a base image reference into its layer stack, runtime
// defaults, and account tables.
//
//go:generate go run go.uber.org/mock/mockgen -source=base_resolver.go -destination=mocks/mock_base_resolver.go -package=mocks
type BaseResolver interface {
	// Resolve reads the base image named by ref: "scratch" for the empty
	// image, otherwise a path to an OCI image layout directory.
	Resolve(ctx context.Context, ref string) (*domain.BaseImage, error)
}
