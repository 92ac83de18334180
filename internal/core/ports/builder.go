package ports

import (
	"context"

	"github.com/stratabuild/strata/internal/core/domain"
)

// BuildOptions tune a single pipeline run.
type BuildOptions struct {
	// NoCache bypasses the layer store on lookup; produced layers are still
	// committed for later builds.
	NoCache bool
}

// Builder runs the build pipeline for a plan and returns the finished image.
//
//go:generate go run go.uber.org/mock/mockgen -source=builder.go -destination=mocks/mock_builder.go -package=mocks
type Builder interface {
	Build(ctx context.Context, plan *domain.Plan, opts BuildOptions) (*domain.Image, error)
}
